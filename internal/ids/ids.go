// Package ids generates the identifiers druidkit attaches to outgoing work:
// query ids in the query context and ingestion task ids.
package ids

import (
	"sync"

	"github.com/google/uuid"
)

// Generator produces unique identifiers.
type Generator interface {
	Generate() string
}

// UUIDv7 generates time-sortable UUIDv7 identifiers, so ids of queries and
// tasks submitted later sort after earlier ones in the engine's logs.
//
// UUIDv7 is stateless and safe for concurrent use.
type UUIDv7 struct{}

// Generate returns a new hyphenated UUIDv7.
//
// Format: "01890a5d-ac96-774b-bcce-b302099a8057" (36 characters)
//
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Fixed returns predetermined identifiers for tests, so encoded queries and
// task specs can be compared byte for byte.
//
// Fixed is safe for concurrent use.
type Fixed struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixed creates a generator that returns ids in order.
//
//	gen := NewFixed("q-1", "q-2")
//	gen.Generate() // "q-1"
//	gen.Generate() // "q-2"
//	gen.Generate() // panic: all ids exhausted
func NewFixed(ids ...string) *Fixed {
	return &Fixed{ids: ids}
}

// Generate returns the next predetermined id.
//
// Panics once every id has been handed out; a test that needs more ids than
// it declared is misconfigured.
func (g *Fixed) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.ids) {
		panic("ids.Fixed: all ids exhausted")
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}
