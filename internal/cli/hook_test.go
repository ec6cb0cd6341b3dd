package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInstallHookWrappers(t *testing.T) {
	dir := t.TempDir()
	if err := installHookWrappers(dir); err != nil {
		t.Fatalf("installHookWrappers: %v", err)
	}

	for name, sub := range hookWrappers {
		path := filepath.Join(dir, ".claude", "hooks", name)
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("reading %s: %v", name, err)
		}
		script := string(data)
		if !strings.HasPrefix(script, "#!/bin/sh") {
			t.Errorf("%s missing shebang:\n%s", name, script)
		}
		if !strings.Contains(script, "ace hook "+sub) {
			t.Errorf("%s does not delegate to %q:\n%s", name, sub, script)
		}
		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("stat %s: %v", name, err)
		}
		if info.Mode()&0o111 == 0 {
			t.Errorf("%s is not executable: %v", name, info.Mode())
		}
	}

	data, err := os.ReadFile(filepath.Join(dir, ".claude", "settings.json"))
	if err != nil {
		t.Fatalf("reading settings.json: %v", err)
	}
	var settings map[string]interface{}
	if err := json.Unmarshal(data, &settings); err != nil {
		t.Fatalf("decoding settings.json: %v", err)
	}
	hooks, ok := settings["hooks"].(map[string]interface{})
	if !ok {
		t.Fatalf("settings missing hooks section: %v", settings)
	}
	for _, key := range []string{"PostToolUse", "SessionEnd"} {
		if _, ok := hooks[key]; !ok {
			t.Errorf("hooks section missing %s", key)
		}
	}
}

func TestInstallHookWrappersPreservesSettings(t *testing.T) {
	dir := t.TempDir()
	claudeDir := filepath.Join(dir, ".claude")
	if err := os.MkdirAll(claudeDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	existing := `{"model": "custom", "hooks": {"Stale": []}}`
	if err := os.WriteFile(filepath.Join(claudeDir, "settings.json"), []byte(existing), 0o644); err != nil {
		t.Fatalf("seeding settings: %v", err)
	}

	if err := installHookWrappers(dir); err != nil {
		t.Fatalf("installHookWrappers: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(claudeDir, "settings.json"))
	if err != nil {
		t.Fatalf("reading settings.json: %v", err)
	}
	var settings map[string]interface{}
	if err := json.Unmarshal(data, &settings); err != nil {
		t.Fatalf("decoding settings.json: %v", err)
	}
	if settings["model"] != "custom" {
		t.Errorf("unrelated settings key lost: %v", settings)
	}
	hooks := settings["hooks"].(map[string]interface{})
	if _, ok := hooks["Stale"]; ok {
		t.Error("hooks section should be replaced, not merged")
	}
	if _, ok := hooks["PostToolUse"]; !ok {
		t.Error("hooks section missing PostToolUse")
	}
}
