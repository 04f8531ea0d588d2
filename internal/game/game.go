// Package game holds the closed set of playable games and their data images.
package game

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrUnknownGame is returned for any game identifier outside the configured set.
var ErrUnknownGame = errors.New("unknown game")

// ID identifies one configured game.
type ID string

// The games shipped by default.
const (
	Suspended ID = "suspended"
	Zork1     ID = "zork1"
	Zork2     ID = "zork2"
	Zork3     ID = "zork3"
)

// Definition is the immutable configuration of one game. Loaded once at
// startup, never mutated.
type Definition struct {
	ID    ID     `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image"` // path to the read-only story file
}

// Registry is the closed enumeration of configured games. Game identifiers
// are only ever resolved through it, never taken from client text directly.
type Registry struct {
	games map[ID]Definition
	order []ID
}

// NewRegistry builds a registry from definitions. Later definitions with a
// duplicate ID replace earlier ones, which lets a config file override the
// defaults.
func NewRegistry(defs []Definition) *Registry {
	r := &Registry{games: make(map[ID]Definition)}
	for _, def := range defs {
		if _, seen := r.games[def.ID]; !seen {
			r.order = append(r.order, def.ID)
		}
		r.games[def.ID] = def
	}
	return r
}

// DefaultDefinitions returns the built-in game set rooted at dataDir.
func DefaultDefinitions(dataDir string) []Definition {
	return []Definition{
		{ID: Suspended, Name: "Suspended", Image: filepath.Join(dataDir, "suspended.dat")},
		{ID: Zork1, Name: "Zork I", Image: filepath.Join(dataDir, "zork1", "ZORK1.DAT")},
		{ID: Zork2, Name: "Zork II", Image: filepath.Join(dataDir, "zork2", "ZORK2.DAT")},
		{ID: Zork3, Name: "Zork III", Image: filepath.Join(dataDir, "zork3", "ZORK3.DAT")},
	}
}

// Get resolves a game identifier.
func (r *Registry) Get(id ID) (Definition, error) {
	def, ok := r.games[id]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %q", ErrUnknownGame, id)
	}
	return def, nil
}

// Has reports whether the identifier is configured.
func (r *Registry) Has(id ID) bool {
	_, ok := r.games[id]
	return ok
}

// List returns all definitions in configuration order.
func (r *Registry) List() []Definition {
	defs := make([]Definition, 0, len(r.order))
	for _, id := range r.order {
		defs = append(defs, r.games[id])
	}
	return defs
}

// IDs returns the configured identifiers in configuration order.
func (r *Registry) IDs() []ID {
	return append([]ID(nil), r.order...)
}

// CheckImages verifies every configured story file exists and is readable.
// Called at startup so a misconfigured image fails fast rather than on the
// first request.
func (r *Registry) CheckImages() error {
	for _, id := range r.order {
		def := r.games[id]
		info, err := os.Stat(def.Image)
		if err != nil {
			return fmt.Errorf("game %s: story file %s: %w", id, filepath.Base(def.Image), err)
		}
		if info.IsDir() {
			return fmt.Errorf("game %s: story file %s is a directory", id, filepath.Base(def.Image))
		}
	}
	return nil
}
