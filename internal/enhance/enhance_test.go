package enhance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/zmachine-ai/zmachine-web/pkg/types"
)

// fakeModel returns a canned reply and counts calls.
type fakeModel struct {
	calls int
	reply string
	err   error
}

func (f *fakeModel) Generate(_ context.Context, _ []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &schema.Message{Role: schema.Assistant, Content: f.reply}, nil
}

func newTestEnhancer(m chatModel) *Enhancer {
	return &Enhancer{
		cfg:    Config{Enabled: true},
		model:  m,
		cache:  newResponseCache(cacheSize),
		prompts: map[string]string{
			"WALDO":  "You are Waldo, a maintenance robot.",
			"SENSA":  "You are Sensa, a sensory robot.",
			"POET":   "You are Poet, a diagnostic robot.",
		},
	}
}

func failureOutput() *types.Output {
	return &types.Output{Pretty: []string{`I don't know the word "report".`}}
}

func sceneOutput() *types.Output {
	return &types.Output{Pretty: []string{"Waldo rolls into the east corridor."}}
}

func TestProcess_DisabledPassThrough(t *testing.T) {
	e, err := New(context.Background(), Config{Enabled: false})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if e.Enabled() {
		t.Error("disabled enhancer reports enabled")
	}

	out := failureOutput()
	got := e.Process(context.Background(), "waldo, report", out, false)
	if got != out {
		t.Error("disabled enhancer modified output")
	}
}

func TestNew_MissingAPIKeyDisables(t *testing.T) {
	e, err := New(context.Background(), Config{Enabled: true})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if e.Enabled() {
		t.Error("enhancer enabled without an API key")
	}
}

func TestProcess_SkipNeverSubstitutes(t *testing.T) {
	m := &fakeModel{reply: "WALDO REPORTING."}
	e := newTestEnhancer(m)

	out := failureOutput()
	got := e.Process(context.Background(), "waldo, report", out, true)
	if got != out {
		t.Error("bootstrap output was substituted")
	}
	if m.calls != 0 {
		t.Errorf("backend called %d times on skipped output", m.calls)
	}
}

func TestProcess_SubstitutesOnParserFailure(t *testing.T) {
	m := &fakeModel{reply: "WALDO: East corridor is clear. No anomalies detected."}
	e := newTestEnhancer(m)

	got := e.Process(context.Background(), "waldo, check the east corridor", failureOutput(), false)

	if m.calls != 1 {
		t.Fatalf("expected 1 backend call, got %d", m.calls)
	}
	text := strings.Join(got.Pretty, "\n")
	if !strings.Contains(text, "East corridor is clear") {
		t.Errorf("generated reply not returned: %v", got.Pretty)
	}
	if strings.Contains(text, "I don't know the word") {
		t.Errorf("parser failure leaked through: %v", got.Pretty)
	}
}

func TestProcess_GameOutputNeverReplaced(t *testing.T) {
	m := &fakeModel{reply: "should not appear"}
	e := newTestEnhancer(m)

	out := sceneOutput()
	got := e.Process(context.Background(), "waldo, go east", out, false)
	if got != out {
		t.Error("successful game output was substituted")
	}
	if m.calls != 0 {
		t.Errorf("backend called %d times for handled output", m.calls)
	}
}

func TestProcess_NonRobotCommandPassesThrough(t *testing.T) {
	m := &fakeModel{reply: "should not appear"}
	e := newTestEnhancer(m)

	out := failureOutput()
	got := e.Process(context.Background(), "xyzzy", out, false)
	if got != out {
		t.Error("non-robot command was substituted")
	}
	if m.calls != 0 {
		t.Error("backend called for non-robot command")
	}
}

func TestProcess_CacheHitSkipsBackend(t *testing.T) {
	m := &fakeModel{reply: "WALDO: Acknowledged."}
	e := newTestEnhancer(m)

	first := e.Process(context.Background(), "waldo, report", failureOutput(), false)
	second := e.Process(context.Background(), "waldo, report", failureOutput(), false)

	if m.calls != 1 {
		t.Errorf("expected 1 backend call, got %d", m.calls)
	}
	if strings.Join(first.Pretty, "\n") != strings.Join(second.Pretty, "\n") {
		t.Error("cache hit returned different output")
	}
}

func TestProcess_BackendErrorFallsBack(t *testing.T) {
	m := &fakeModel{err: errors.New("backend unavailable")}
	e := newTestEnhancer(m)

	out := failureOutput()
	got := e.Process(context.Background(), "waldo, report", out, false)
	if got != out {
		t.Error("backend failure did not fall back to game output")
	}
	if m.calls == 0 {
		t.Error("backend never attempted")
	}
}

func TestDirectCommand(t *testing.T) {
	e := newTestEnhancer(nil)

	tests := []struct {
		command string
		robot   string
		ok      bool
	}{
		{"waldo, check the east corridor", "WALDO", true},
		{"Waldo, report", "WALDO", true},
		{"waldo go east", "WALDO", true},
		{"ask sensa about the vibration", "SENSA", true},
		{"tell poet to examine the panel", "POET", true},
		{"  waldo, report  ", "WALDO", true},
		{"go east", "", false},
		{"waldorf, report", "", false},
		{"waldorf report", "", false},
		{"ask the computer", "", false},
	}
	for _, tt := range tests {
		robot, _, ok := e.directCommand(tt.command)
		if ok != tt.ok || robot != tt.robot {
			t.Errorf("directCommand(%q) = (%q, %v), want (%q, %v)", tt.command, robot, ok, tt.robot, tt.ok)
		}
	}
}

func TestParserFailed(t *testing.T) {
	for _, output := range []string{
		`I don't know the word "report".`,
		"Huh?",
		"You can't see any such thing.",
		"That's not a verb I recognize.",
	} {
		if !parserFailed(output) {
			t.Errorf("parserFailed(%q) = false", output)
		}
	}
	if parserFailed("Waldo rolls into the east corridor.") {
		t.Error("successful output classified as parser failure")
	}
}

func TestRecord_HistoryCapped(t *testing.T) {
	e := newTestEnhancer(nil)

	for i := 0; i < maxHistory+5; i++ {
		e.record(fmt.Sprintf("command %d", i), fmt.Sprintf("output %d", i))
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	if len(e.history) != maxHistory {
		t.Fatalf("history length = %d, want %d", len(e.history), maxHistory)
	}
	if e.history[0].command != "command 5" {
		t.Errorf("oldest exchanges not evicted, first = %q", e.history[0].command)
	}
}

func TestBuildContext(t *testing.T) {
	e := newTestEnhancer(nil)

	if got := e.buildContext(); !strings.Contains(got, "start of a new game session") {
		t.Errorf("empty history context = %q", got)
	}

	e.record("look", "Weather Monitors")
	got := e.buildContext()
	if !strings.Contains(got, "[1] Player: look") || !strings.Contains(got, "Game: Weather Monitors") {
		t.Errorf("context missing exchange: %q", got)
	}
}

func TestFormatResponse(t *testing.T) {
	original := failureOutput()

	out := formatResponse("Line one.\n\n  Line two.  \n", original)
	if len(out.Pretty) != 2 || out.Pretty[0] != "Line one." || out.Pretty[1] != "Line two." {
		t.Errorf("unexpected formatting: %v", out.Pretty)
	}

	if got := formatResponse("   \n\n", original); got != original {
		t.Error("blank reply should fall back to original output")
	}
}

func TestResponseCache_Eviction(t *testing.T) {
	c := newResponseCache(3)

	for i := 0; i < 5; i++ {
		c.put(fmt.Sprintf("key%d", i), fmt.Sprintf("value%d", i))
	}

	if c.len() != 3 {
		t.Fatalf("cache length = %d, want 3", c.len())
	}
	if _, ok := c.get("key0"); ok {
		t.Error("oldest entry not evicted")
	}
	if v, ok := c.get("key4"); !ok || v != "value4" {
		t.Error("newest entry missing")
	}
}

func TestResponseCache_PutSameKeyDoesNotGrow(t *testing.T) {
	c := newResponseCache(3)

	c.put("key", "first")
	c.put("key", "second")

	if c.len() != 1 {
		t.Fatalf("cache length = %d, want 1", c.len())
	}
	if v, _ := c.get("key"); v != "second" {
		t.Errorf("cache value = %q, want %q", v, "second")
	}
}
