// Package types defines the wire-visible shapes shared between the server
// API and its clients.
package types

import "strings"

// Output is one interpreter response, split into display lines plus the
// untrimmed transcript.
type Output struct {
	Pretty []string `json:"pretty"`
	Full   string   `json:"full,omitempty"`
}

// Text joins the display lines into a single block.
func (o *Output) Text() string {
	if o == nil {
		return ""
	}
	return strings.Join(o.Pretty, "\n")
}

// GameInfo describes one playable game for the game picker.
type GameInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// NewGameResponse is the body of a successful POST /api/new-game.
type NewGameResponse struct {
	SessionID string  `json:"sessionId"`
	Output    *Output `json:"output"`
}

// CommandResponse is the body of a successful POST /api/command.
type CommandResponse struct {
	Output *Output `json:"output"`
}
