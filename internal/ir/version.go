package ir

// Version constants for the plan format and the toolchain.
const (
	// IRVersion is the plan/record schema version.
	IRVersion = "1"

	// EngineVersion is the iontrap pipeline version.
	EngineVersion = "0.1.0"
)

// NumIons is the fixed number of ions (and wires) of the processor.
const NumIons = 8
