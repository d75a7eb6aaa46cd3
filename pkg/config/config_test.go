package config

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestInitConfigCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg, err := InitConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(cfg, DefaultConfig()) {
		t.Errorf("got %+v", cfg)
	}
	reloaded, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(reloaded, DefaultConfig()) {
		t.Errorf("round trip changed config: %+v", reloaded)
	}
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
[words]
insertion_mode = "ignore-case-append"

[providers]
llm = true
word_lists = ["a.txt", "b.txt"]

[llm]
endpoint = "http://localhost:11434/v1/chat/completions"
temperature = 1.5
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Words.InsertionMode != IgnoreCaseAppend || !cfg.Words.InsertionMode.IgnoresCase() {
		t.Errorf("insertion mode %q", cfg.Words.InsertionMode)
	}
	if !cfg.Providers.LLM || !reflect.DeepEqual(cfg.Providers.WordLists, []string{"a.txt", "b.txt"}) {
		t.Errorf("providers %+v", cfg.Providers)
	}
	if cfg.LLM.Temperature != 1.5 || cfg.LLM.TimeoutMs != 5000 {
		t.Errorf("llm %+v", cfg.LLM)
	}
}

func TestLoadConfigPartialRecovery(t *testing.T) {
	path := writeConfig(t, `
[trigger]
max_look_back_distance = "fifty"
auto_focus = false

[llm]
temperature = 1
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Trigger.MaxLookBackDistance != 50 {
		t.Errorf("bad value should fall back, got %d", cfg.Trigger.MaxLookBackDistance)
	}
	if cfg.Trigger.AutoFocus {
		t.Error("valid sibling key was not salvaged")
	}
	if cfg.LLM.Temperature != 1 {
		t.Errorf("integer temperature got %v", cfg.LLM.Temperature)
	}
}

func TestSanitize(t *testing.T) {
	path := writeConfig(t, `
[trigger]
character_regex = ""
max_look_back_distance = -1

[words]
insertion_mode = "shout"
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	def := DefaultConfig()
	if cfg.Words.InsertionMode != def.Words.InsertionMode {
		t.Errorf("insertion mode %q", cfg.Words.InsertionMode)
	}
	if cfg.Trigger.CharacterRegex != def.Trigger.CharacterRegex || cfg.Trigger.MaxLookBackDistance != def.Trigger.MaxLookBackDistance {
		t.Errorf("trigger %+v", cfg.Trigger)
	}
}

func TestWatchReloads(t *testing.T) {
	path := writeConfig(t, "[server]\nmax_suggestions = 10\n")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan *Config, 4)
	done := make(chan error, 1)
	go func() { done <- Watch(ctx, path, func(c *Config) { reloaded <- c }) }()

	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(200 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case c := <-reloaded:
			if c.Server.MaxSuggestions != 7 {
				t.Fatalf("reloaded max_suggestions = %d", c.Server.MaxSuggestions)
			}
			cancel()
			if err := <-done; err != nil {
				t.Fatal(err)
			}
			return
		case <-tick.C:
			// rewritten until the watcher, which starts asynchronously, sees it
			if err := os.WriteFile(path, []byte("[server]\nmax_suggestions = 7\n"), 0644); err != nil {
				t.Fatal(err)
			}
		case <-deadline:
			t.Fatal("no reload")
		}
	}
}
