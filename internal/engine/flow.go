package engine

import (
	"sync"

	"github.com/google/uuid"
)

// FlowTokenGenerator produces the token that correlates a run's stages,
// log lines and stored records.
type FlowTokenGenerator interface {
	Generate() string
}

// UUIDv7Generator issues time-sortable UUIDv7 tokens, so runs listed by
// token come out roughly in creation order. Stateless.
type UUIDv7Generator struct{}

// Generate returns a hyphenated UUIDv7.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// SequenceGenerator hands out a fixed list of tokens in order, for tests
// that run the engine more than once.
type SequenceGenerator struct {
	mu     sync.Mutex
	tokens []string
	next   int
}

// NewSequenceGenerator returns a generator over tokens.
func NewSequenceGenerator(tokens ...string) *SequenceGenerator {
	return &SequenceGenerator{tokens: tokens}
}

// Generate returns the next token. It panics once the list is used up: a
// test that runs more flows than it planned for is misconfigured.
func (g *SequenceGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.next >= len(g.tokens) {
		panic("SequenceGenerator: all tokens exhausted")
	}
	tok := g.tokens[g.next]
	g.next++
	return tok
}
