// Package enhance re-routes robot-directed commands that the game parser
// rejected to a generative text backend, in character. Output the game
// handled itself is always passed through untouched.
package enhance

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/cenkalti/backoff/v4"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/zmachine-ai/zmachine-web/internal/event"
	"github.com/zmachine-ai/zmachine-web/internal/logging"
	"github.com/zmachine-ai/zmachine-web/pkg/types"
)

const (
	// maxHistory bounds the rolling conversation context fed to the model.
	maxHistory = 10
	// cacheSize bounds the generated-response cache.
	cacheSize = 100
	// cacheOutputPrefix is how much of the game output participates in the
	// cache key.
	cacheOutputPrefix = 100

	generateTemperature = 0.8
	maxGenerateRetries  = 2
)

// parserFailureMarkers are the game parser's rejection phrases. Substitution
// only happens when the game failed to understand a robot-directed command;
// a successful game response is never replaced.
var parserFailureMarkers = []string{
	"I don't know the word",
	"I don't understand",
	"Huh?",
	"You can't see any such thing",
	"I don't see",
	"That's not a verb I recognize",
}

// chatModel is the slice of the eino model interface the enhancer needs.
type chatModel interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

// Config holds enhancement settings.
type Config struct {
	Enabled    bool
	APIKey     string
	Model      string
	MaxTokens  int
	PromptsDir string
}

// exchange is one command/output pair of conversation history.
type exchange struct {
	command string
	output  string
}

// Enhancer implements the text-enhancement filter. Disabled, it is a pure
// pass-through that still records conversation context.
type Enhancer struct {
	cfg   Config
	model chatModel
	cache *responseCache

	mu      sync.RWMutex
	prompts map[string]string
	history []exchange
}

// New creates an enhancer. When disabled or missing an API key the returned
// enhancer never calls the backend but remains safe to use.
func New(ctx context.Context, cfg Config) (*Enhancer, error) {
	e := &Enhancer{
		cfg:     cfg,
		cache:   newResponseCache(cacheSize),
		prompts: make(map[string]string),
	}

	if !cfg.Enabled {
		logging.Info().Msg("AI enhancement disabled")
		return e, nil
	}
	if cfg.APIKey == "" {
		logging.Warn().Msg("OPENAI_API_KEY not set, AI enhancement disabled")
		return e, nil
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 150
	}
	cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:              cfg.APIKey,
		Model:               cfg.Model,
		MaxCompletionTokens: &maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("create chat model: %w", err)
	}
	e.model = cm

	prompts, err := loadPrompts(cfg.PromptsDir)
	if err != nil {
		return nil, fmt.Errorf("load robot prompts: %w", err)
	}
	e.prompts = prompts

	names := make([]string, 0, len(prompts))
	for name := range prompts {
		names = append(names, name)
	}
	logging.Info().Strs("robots", names).Msg("AI enhancement enabled")

	return e, nil
}

// Enabled reports whether the backend is live.
func (e *Enhancer) Enabled() bool {
	return e.model != nil
}

// Process decides whether to substitute a generated response for the game's
// output. skip marks bootstrap output, which is recorded for context but
// never substituted. Backend failures always fall back to the original
// output.
func (e *Enhancer) Process(ctx context.Context, command string, out *types.Output, skip bool) *types.Output {
	if out == nil {
		return out
	}

	outputText := out.Text()
	e.record(command, outputText)

	if skip || e.model == nil {
		return out
	}

	robot, direct, ok := e.directCommand(command)
	if !ok || !parserFailed(outputText) {
		return out
	}

	key := cacheKey(robot, command, outputText)
	if cached, hit := e.cache.get(key); hit {
		e.rewriteLastExchange(cached)
		return formatResponse(cached, out)
	}

	reply, err := e.generate(ctx, robot, direct)
	if err != nil {
		logging.Error().Err(err).Str("robot", robot).Msg("response generation failed")
		return out
	}
	if reply == "" {
		return out
	}

	e.cache.put(key, reply)
	// The parser rejection would poison later context; remember the
	// generated reply instead.
	e.rewriteLastExchange(reply)

	event.Publish(event.EnhanceSubstituted, event.EnhanceSubstitutedData{
		Robot:   robot,
		Command: command,
	})

	return formatResponse(reply, out)
}

// directCommand detects a command addressed to a known robot: direct address
// with or without a comma ("waldo, check the east corridor", "waldo go
// east"), "ask waldo about ...", or "tell waldo to ...". Returns the robot
// name and the addressed text.
func (e *Enhancer) directCommand(command string) (robot, direct string, ok bool) {
	lower := strings.ToLower(strings.TrimSpace(command))

	e.mu.RLock()
	defer e.mu.RUnlock()

	for name := range e.prompts {
		nameLower := strings.ToLower(name)

		if rest, found := strings.CutPrefix(lower, nameLower+","); found {
			return name, strings.TrimSpace(rest), true
		}
		if rest, found := strings.CutPrefix(lower, nameLower+" "); found {
			return name, strings.TrimSpace(rest), true
		}
		if rest, found := strings.CutPrefix(lower, "ask "+nameLower); found {
			return name, strings.TrimSpace(rest), true
		}
		if rest, found := strings.CutPrefix(lower, "tell "+nameLower); found {
			return name, strings.TrimSpace(rest), true
		}
	}
	return "", "", false
}

func parserFailed(output string) bool {
	for _, marker := range parserFailureMarkers {
		if strings.Contains(output, marker) {
			return true
		}
	}
	return false
}

// generate asks the backend for an in-character reply, retrying transport
// errors with capped exponential backoff.
func (e *Enhancer) generate(ctx context.Context, robot, direct string) (string, error) {
	e.mu.RLock()
	prompt, ok := e.prompts[robot]
	gameContext := e.buildContext()
	e.mu.RUnlock()
	if !ok {
		return "", nil
	}

	messages := []*schema.Message{
		{Role: schema.System, Content: prompt + "\n\nIMPORTANT: You are currently in an active game session. " +
			"Use the game context below to understand the current situation and respond appropriately as " + robot + "."},
		{Role: schema.User, Content: gameContext + "\n\n---\n\nThe player is now speaking directly to you: \"" + direct + "\"\n\n" +
			"Respond as " + robot + " in character, taking into account the current game situation shown in the context above. " +
			"This is a conversation, not a game command."},
	}

	var reply string
	op := func() error {
		msg, err := e.model.Generate(ctx, messages, model.WithTemperature(generateTemperature))
		if err != nil {
			return err
		}
		reply = strings.TrimSpace(msg.Content)
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxGenerateRetries), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return "", err
	}
	return reply, nil
}

// record appends one exchange to the rolling history.
func (e *Enhancer) record(command, output string) {
	if command == "" || output == "" {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.history = append(e.history, exchange{command: command, output: output})
	if len(e.history) > maxHistory {
		e.history = e.history[len(e.history)-maxHistory:]
	}
}

// rewriteLastExchange replaces the most recent recorded output.
func (e *Enhancer) rewriteLastExchange(output string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.history) > 0 {
		e.history[len(e.history)-1].output = output
	}
}

// buildContext renders the history for the model. Caller holds e.mu.
func (e *Enhancer) buildContext() string {
	if len(e.history) == 0 {
		return "This is the start of a new game session."
	}
	var b strings.Builder
	b.WriteString("Recent game session context:\n\n")
	for i, ex := range e.history {
		fmt.Fprintf(&b, "[%d] Player: %s\n", i+1, ex.command)
		fmt.Fprintf(&b, "Game: %s\n\n", ex.output)
	}
	return strings.TrimSpace(b.String())
}

func cacheKey(robot, command, output string) string {
	if len(output) > cacheOutputPrefix {
		output = output[:cacheOutputPrefix]
	}
	return robot + ":" + command + ":" + output
}

// formatResponse shapes a generated reply like game output.
func formatResponse(reply string, original *types.Output) *types.Output {
	lines := make([]string, 0, 4)
	for _, line := range strings.Split(reply, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return original
	}
	return &types.Output{Pretty: lines, Full: reply}
}
