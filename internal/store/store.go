// Package store owns the on-disk layout of per-session save files: one file
// per (game, session) pair under a per-game directory. No other state is
// persisted for a session; its save file is the session.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/spf13/afero"

	"github.com/zmachine-ai/zmachine-web/internal/game"
	"github.com/zmachine-ai/zmachine-web/internal/logging"
)

// ErrInvalidSession is returned for a session identifier that does not match
// the token alphabet. Rejecting these up front means no crafted identifier
// can resolve to a path outside the save root.
var ErrInvalidSession = errors.New("invalid session id")

// sessionIDPattern matches identifiers produced by the allocator plus some
// slack for forward compatibility. Deliberately excludes path separators and
// dots.
var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{8,128}$`)

// Store resolves save-file paths and reclaims stale sessions.
type Store struct {
	fs    afero.Fs
	root  string
	games *game.Registry
}

// New creates a store rooted at root. Pass afero.NewOsFs() in production.
func New(fs afero.Fs, root string, games *game.Registry) *Store {
	return &Store{fs: fs, root: root, games: games}
}

// saveFileName is the session-file naming convention. The expiry sweep only
// ever touches files matching it.
func saveFileName(gameID game.ID, sessionID string) string {
	return fmt.Sprintf("%s-session-%s.sav", gameID, sessionID)
}

// SavePath resolves (game, session) to the canonical save-file path. Pure
// and deterministic; rejects unknown games and malformed session ids without
// touching the filesystem.
func (s *Store) SavePath(gameID game.ID, sessionID string) (string, error) {
	if !s.games.Has(gameID) {
		return "", fmt.Errorf("%w: %q", game.ErrUnknownGame, gameID)
	}
	if !sessionIDPattern.MatchString(sessionID) {
		return "", ErrInvalidSession
	}
	return filepath.Join(s.root, string(gameID), saveFileName(gameID, sessionID)), nil
}

// GameDir returns the save directory for a game.
func (s *Store) GameDir(gameID game.ID) string {
	return filepath.Join(s.root, string(gameID))
}

// EnsureDir creates the save directory for a game if absent. Idempotent;
// concurrent callers racing on creation all succeed.
func (s *Store) EnsureDir(gameID game.ID) error {
	if !s.games.Has(gameID) {
		return fmt.Errorf("%w: %q", game.ErrUnknownGame, gameID)
	}
	if err := s.fs.MkdirAll(s.GameDir(gameID), 0o755); err != nil {
		return fmt.Errorf("create save directory: %w", err)
	}
	return nil
}

// Remove deletes a session's save file. A file that is already gone is
// success.
func (s *Store) Remove(gameID game.ID, sessionID string) error {
	path, err := s.SavePath(gameID, sessionID)
	if err != nil {
		return err
	}
	if err := s.fs.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove save file: %w", err)
	}
	return nil
}

// Exists reports whether a session's save file is on disk.
func (s *Store) Exists(gameID game.ID, sessionID string) bool {
	path, err := s.SavePath(gameID, sessionID)
	if err != nil {
		return false
	}
	ok, _ := afero.Exists(s.fs, path)
	return ok
}

// PurgeExpired deletes session save files whose last modification is maxAge
// or older, across every configured game. Errors on individual files are
// logged and skipped; the sweep always visits every remaining file. Only
// files matching the session naming convention are ever considered.
func (s *Store) PurgeExpired(maxAge time.Duration) (int, error) {
	now := time.Now()
	removed := 0

	for _, gameID := range s.games.IDs() {
		dir := s.GameDir(gameID)
		infos, err := afero.ReadDir(s.fs, dir)
		if err != nil {
			// Directory may not exist until the game's first session.
			continue
		}

		prefix := string(gameID) + "-session-"
		for _, info := range infos {
			name := info.Name()
			if info.IsDir() || len(name) <= len(prefix) ||
				name[:len(prefix)] != prefix || filepath.Ext(name) != ".sav" {
				continue
			}

			if now.Sub(info.ModTime()) < maxAge {
				continue
			}

			path := filepath.Join(dir, name)
			if err := s.fs.Remove(path); err != nil {
				logging.Warn().Err(err).Str("game", string(gameID)).Str("file", name).
					Msg("could not remove expired session file")
				continue
			}
			removed++
			logging.Debug().Str("game", string(gameID)).Str("file", name).
				Msg("removed expired session file")
		}
	}

	return removed, nil
}
