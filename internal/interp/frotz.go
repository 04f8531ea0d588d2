// Package interp wraps invocation of the external Z-machine interpreter.
// Every command is one fresh single-shot process scoped to one save file:
// restore, apply the command, save, quit. The only persistent trace is the
// save file, so a misbehaving process can never corrupt another session.
package interp

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/zmachine-ai/zmachine-web/internal/game"
	"github.com/zmachine-ai/zmachine-web/internal/logging"
	"github.com/zmachine-ai/zmachine-web/pkg/types"
)

const (
	// DefaultTimeout bounds one interpreter invocation. A hung child is
	// killed, not waited on.
	DefaultTimeout = 15 * time.Second

	sigkillDelay = 200 * time.Millisecond
)

// Adapter is the boundary to the interpreter. Start boots a fresh session
// with a bootstrap command; Step applies one command to an existing save.
type Adapter interface {
	Start(ctx context.Context, def game.Definition, saveFile, bootstrap string) (*types.Output, error)
	Step(ctx context.Context, def game.Definition, saveFile, command string) (*types.Output, error)
}

// Frotz runs the dfrotz binary.
type Frotz struct {
	executable string
	timeout    time.Duration
}

// Option configures a Frotz adapter.
type Option func(*Frotz)

// WithTimeout overrides the per-invocation timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *Frotz) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// NewFrotz creates an adapter for the given dfrotz executable.
func NewFrotz(executable string, opts ...Option) *Frotz {
	f := &Frotz{executable: executable, timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Start boots the game image with no prior save and applies the bootstrap
// command. Any save file already at saveFile must have been removed by the
// caller.
func (f *Frotz) Start(ctx context.Context, def game.Definition, saveFile, bootstrap string) (*types.Output, error) {
	raw, err := f.run(ctx, def, saveFile, bootstrap, false)
	if err != nil {
		return nil, err
	}
	return parseTranscript(raw, false), nil
}

// Step restores the session's save, applies one command, and saves again.
func (f *Frotz) Step(ctx context.Context, def game.Definition, saveFile, command string) (*types.Output, error) {
	if _, err := os.Stat(saveFile); err != nil {
		// The session has no save file: expired, reset, or never issued.
		return nil, &InterpreterError{Message: "could not restore saved game for this session"}
	}
	raw, err := f.run(ctx, def, saveFile, command, true)
	if err != nil {
		return nil, err
	}
	return parseTranscript(raw, true), nil
}

// run spawns one interpreter process. The save is directed at a temp path
// and renamed over the real save only after a clean exit, so a killed or
// failed process leaves the previous save intact.
func (f *Frotz) run(ctx context.Context, def game.Definition, saveFile, command string, restore bool) (string, error) {
	tmpSave := saveFile + ".tmp"
	_ = os.Remove(tmpSave)

	runCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	// -m: no MORE prompts, -p: plain ASCII, -w/-h: oversize screen so no
	// wrapping or paging interferes with parsing.
	cmd := exec.CommandContext(runCtx, f.executable, "-m", "-p", "-w", "500", "-h", "999", def.Image)
	cmd.Dir = filepath.Dir(saveFile)
	cmd.Stdin = strings.NewReader(script(filepath.Base(saveFile), filepath.Base(tmpSave), command, restore))

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	// Process group so a timeout kill takes child processes with it.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return killGroup(cmd)
	}
	cmd.WaitDelay = time.Second

	err := cmd.Run()
	if runCtx.Err() == context.DeadlineExceeded {
		_ = os.Remove(tmpSave)
		logging.Warn().Str("game", string(def.ID)).Dur("timeout", f.timeout).
			Msg("interpreter killed after timeout")
		return "", &TimeoutError{Timeout: f.timeout}
	}
	if err != nil {
		_ = os.Remove(tmpSave)
		logging.Error().Err(err).Str("game", string(def.ID)).Msg("interpreter failed")
		// Exec errors embed the executable path; clients get the process's
		// own stderr or nothing.
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = "interpreter failed to start"
		}
		return "", &InterpreterError{Message: msg}
	}

	if _, statErr := os.Stat(tmpSave); statErr != nil {
		return "", &InterpreterError{Message: "interpreter did not write a save file"}
	}
	if renameErr := os.Rename(tmpSave, saveFile); renameErr != nil {
		_ = os.Remove(tmpSave)
		return "", &InterpreterError{Message: "could not commit save file"}
	}

	return stdout.String(), nil
}

// script builds the stdin fed to the interpreter for one invocation. Save
// and restore filenames are relative to the save directory (the process
// working directory).
func script(saveName, tmpName, command string, restore bool) string {
	var b strings.Builder
	if restore {
		b.WriteString("restore\n")
		b.WriteString(saveName + "\n")
	}
	b.WriteString(command + "\n")
	b.WriteString("save\n")
	b.WriteString(tmpName + "\n")
	b.WriteString("quit\n")
	b.WriteString("y\n")
	return b.String()
}

// killGroup terminates the interpreter's process group, SIGTERM first.
func killGroup(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	pid := cmd.Process.Pid
	if err := syscall.Kill(-pid, syscall.SIGTERM); err != nil && !errors.Is(err, syscall.ESRCH) {
		return err
	}
	time.Sleep(sigkillDelay)
	if err := syscall.Kill(-pid, syscall.SIGKILL); err != nil && !errors.Is(err, syscall.ESRCH) {
		return err
	}
	return nil
}
