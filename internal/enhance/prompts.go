package enhance

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/zmachine-ai/zmachine-web/internal/logging"
)

// loadPrompts reads every *.txt file in dir as one character prompt, keyed
// by the uppercased filename. A missing directory yields an empty set, not
// an error, matching the optional nature of the feature.
func loadPrompts(dir string) (map[string]string, error) {
	prompts := make(map[string]string)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return prompts, nil
		}
		return nil, err
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".txt") {
			continue
		}
		content, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			logging.Warn().Err(err).Str("file", name).Msg("skipping unreadable prompt file")
			continue
		}
		robot := strings.ToUpper(strings.TrimSuffix(name, ".txt"))
		prompts[robot] = string(content)
	}

	return prompts, nil
}

// Watch reloads the prompt set whenever the prompts directory changes, so
// character prompts can be edited without a restart. Returns after the
// watcher is installed; reloading runs until ctx is canceled.
func (e *Enhancer) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(e.cfg.PromptsDir); err != nil {
		watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
					continue
				}
				e.reloadPrompts()
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logging.Warn().Err(err).Msg("prompt watcher error")
			}
		}
	}()

	return nil
}

func (e *Enhancer) reloadPrompts() {
	prompts, err := loadPrompts(e.cfg.PromptsDir)
	if err != nil {
		logging.Warn().Err(err).Msg("could not reload robot prompts")
		return
	}
	e.mu.Lock()
	e.prompts = prompts
	e.mu.Unlock()
	logging.Info().Int("count", len(prompts)).Msg("reloaded robot prompts")
}
