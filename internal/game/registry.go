package game

import (
	"fmt"
	"sync"

	"github.com/wc3hostbot/core/internal/core"
)

// Registry resolves a core.GameHandle back to its Game. It is the
// indirection that replaces the original's back-pointer from User to
// Game (see core.GameHandle's doc comment): a User only ever reaches its
// Game by asking a Registry, and only while running on that Game's own
// tick goroutine.
//
// The bot scheduler is the only writer; lookups may happen from
// collaborator-facing command handlers on other goroutines, so reads are
// guarded by a mutex per the teacher's rarely-mutated-state convention.
type Registry struct {
	mu    sync.RWMutex
	games map[core.GameHandle]*Game
	byID  map[core.HostCounter]*Game
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		games: make(map[core.GameHandle]*Game),
		byID:  make(map[core.HostCounter]*Game),
	}
}

// Add registers a newly created game.
func (r *Registry) Add(g *Game) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.games[g.Handle] = g
	r.byID[g.HostCounter] = g
}

// Remove drops a destroyed game.
func (r *Registry) Remove(handle core.GameHandle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if g, ok := r.games[handle]; ok {
		delete(r.byID, g.HostCounter)
	}
	delete(r.games, handle)
}

// Resolve looks up a game by handle.
func (r *Registry) Resolve(handle core.GameHandle) (*Game, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.games[handle]
	if !ok {
		return nil, fmt.Errorf("game: handle %s not found", handle)
	}
	return g, nil
}

// ByHostCounter looks up a game by its wire-visible host_counter.
func (r *Registry) ByHostCounter(hc core.HostCounter) (*Game, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.byID[hc]
	if !ok {
		return nil, fmt.Errorf("game: host_counter %d not found", hc)
	}
	return g, nil
}

// All returns a snapshot slice of every live game, for the scheduler's
// per-tick iteration.
func (r *Registry) All() []*Game {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Game, 0, len(r.games))
	for _, g := range r.games {
		out = append(out, g)
	}
	return out
}
