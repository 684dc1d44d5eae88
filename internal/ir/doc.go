// Package ir provides the shared data model for iontrap.
//
// Sites, gates, ticks, position snapshots and routed plans live here, together
// with the structured error type every component reports through. All other
// internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Ions are identified by index 0..NumIons-1 and own no state of their own;
//     an ion's state at tick t is Positions[t][ion]
//   - Gates are a closed variant (RX, RY, MS) checked by Gate.Validate
//   - Every component fails fast with exactly one *Error
//   - All JSON tags use snake_case
//   - Canonical JSON (MarshalCanonical) is the only serialization used for
//     content-addressed identity
package ir
