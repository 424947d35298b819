// Package testutils provides deterministic generators and a fake backend for lexshell testing.
// The generators keep production formats so test output looks like real output.
package testutils

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Generator hands out message ids and timestamps.
// In test mode both are deterministic; otherwise ids are random UUIDs and time is wall-clock.
type Generator struct {
	testMode bool

	mu          sync.Mutex
	idCounter   uint64
	timeCounter int64
}

// NewGenerator creates a Generator.
func NewGenerator(testMode bool) *Generator {
	return &Generator{testMode: testMode}
}

// IsTestMode reports whether the generator is deterministic.
func (g *Generator) IsTestMode() bool {
	return g.testMode
}

// NewID returns a UUID-formatted id.
// In test mode ids look like 00000001-0000-4000-8000-000000000001, 00000002-..., etc.
func (g *Generator) NewID() string {
	if !g.testMode {
		return uuid.New().String()
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.idCounter++
	return fmt.Sprintf("%08x-0000-4000-8000-%012x", g.idCounter, g.idCounter)
}

// Now returns the current time.
// In test mode each call is one second after the previous one, starting at 2025-01-01T00:00:01Z.
func (g *Generator) Now() time.Time {
	if !g.testMode {
		return time.Now()
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.timeCounter++
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return base.Add(time.Duration(g.timeCounter) * time.Second)
}

// Reset rewinds the deterministic counters.
func (g *Generator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.idCounter = 0
	g.timeCounter = 0
}
