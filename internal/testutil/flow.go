package testutil

// DefaultFlowToken is used when a scenario does not name its own token.
const DefaultFlowToken = "test-flow-default"

// FixedFlowGenerator returns the same token on every call, so golden output
// never depends on a random UUID.
type FixedFlowGenerator struct {
	token string
}

// NewFixedFlowGenerator returns a generator for token, or DefaultFlowToken
// when token is empty.
func NewFixedFlowGenerator(token string) *FixedFlowGenerator {
	if token == "" {
		token = DefaultFlowToken
	}
	return &FixedFlowGenerator{token: token}
}

// Generate returns the fixed token.
func (g *FixedFlowGenerator) Generate() string {
	return g.token
}
