// Package session maps (game, session) identities onto single-shot
// interpreter invocations over isolated per-session save files. A session is
// nothing but its identifier and its save file: there is no session table
// and no close operation, expired files are garbage collected by the store's
// sweeper.
package session

import (
	"context"
	"errors"
	"strings"

	"github.com/zmachine-ai/zmachine-web/internal/event"
	"github.com/zmachine-ai/zmachine-web/internal/game"
	"github.com/zmachine-ai/zmachine-web/internal/interp"
	"github.com/zmachine-ai/zmachine-web/internal/logging"
	"github.com/zmachine-ai/zmachine-web/internal/store"
	"github.com/zmachine-ai/zmachine-web/pkg/types"
)

// BootstrapCommand opens every new session so the player sees the initial
// scene. Its output is shown verbatim, never routed through enhancement
// substitution, to preserve the author's introductory text.
const BootstrapCommand = "look"

var (
	// ErrEmptyCommand rejects empty or whitespace-only command text before
	// any process is spawned.
	ErrEmptyCommand = errors.New("command cannot be empty")
	// ErrMissingSession rejects requests without a session identifier.
	ErrMissingSession = errors.New("session id is required")
)

// Filter is the text-enhancement boundary. Process returns the original
// output unchanged when disabled, skipped, or when no substitution applies.
type Filter interface {
	Process(ctx context.Context, command string, out *types.Output, skip bool) *types.Output
}

// nopFilter is used when enhancement is not configured.
type nopFilter struct{}

func (nopFilter) Process(_ context.Context, _ string, out *types.Output, _ bool) *types.Output {
	return out
}

// Service orchestrates identity allocation, save-file resolution, and
// interpreter invocation.
//
// Concurrency: sessions are partitioned by save file, so requests for
// different sessions never contend. Concurrent commands on the same session
// are not serialized here; the client must wait for one response before
// sending the next command.
type Service struct {
	games   *game.Registry
	store   *store.Store
	adapter interp.Adapter
	filter  Filter
}

// BeginResult is the outcome of starting a session.
type BeginResult struct {
	SessionID string
	Output    *types.Output
}

// NewService creates a session service. A nil filter disables enhancement.
func NewService(games *game.Registry, st *store.Store, adapter interp.Adapter, filter Filter) *Service {
	if filter == nil {
		filter = nopFilter{}
	}
	return &Service{games: games, store: st, adapter: adapter, filter: filter}
}

// Begin starts a new session for a game: allocates an identifier, prepares a
// clean save path, and boots the interpreter with the bootstrap command.
func (s *Service) Begin(ctx context.Context, gameID game.ID) (*BeginResult, error) {
	def, err := s.games.Get(gameID)
	if err != nil {
		return nil, err
	}

	sessionID, err := NewSessionID()
	if err != nil {
		return nil, err
	}

	if err := s.store.EnsureDir(gameID); err != nil {
		return nil, err
	}
	savePath, err := s.store.SavePath(gameID, sessionID)
	if err != nil {
		return nil, err
	}

	// A file at this path would mean an allocator collision. Statistically
	// impossible, but a new session must start from a clean slate.
	if err := s.store.Remove(gameID, sessionID); err != nil {
		logging.Warn().Err(err).Str("game", string(gameID)).
			Msg("could not clear pre-existing save file")
	}

	out, err := s.adapter.Start(ctx, def, savePath, BootstrapCommand)
	if err != nil {
		return nil, err
	}

	// Recorded for conversational context only: skip substitution so the
	// intro text reaches the player unmodified.
	out = s.filter.Process(ctx, BootstrapCommand, out, true)

	logging.Info().Str("game", string(gameID)).Str("session", sessionID).
		Msg("session started")
	event.Publish(event.SessionCreated, event.SessionCreatedData{
		Game:      string(gameID),
		SessionID: sessionID,
	})

	return &BeginResult{SessionID: sessionID, Output: out}, nil
}

// Command applies one command to an existing session. Validation happens
// before any external process is spawned; interpreter failures surface to
// the caller unretried, since the save file may already have changed.
func (s *Service) Command(ctx context.Context, gameID game.ID, sessionID, text string) (*types.Output, error) {
	def, err := s.games.Get(gameID)
	if err != nil {
		return nil, err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyCommand
	}
	if sessionID == "" {
		return nil, ErrMissingSession
	}

	savePath, err := s.store.SavePath(gameID, sessionID)
	if err != nil {
		return nil, err
	}

	out, err := s.adapter.Step(ctx, def, savePath, text)
	if err != nil {
		return nil, err
	}

	event.Publish(event.SessionCommand, event.SessionCommandData{
		Game:      string(gameID),
		SessionID: sessionID,
		Command:   text,
	})

	return s.filter.Process(ctx, text, out, false), nil
}
