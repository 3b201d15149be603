package shared

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestStripCommentsFromJSON(t *testing.T) {
	in := []byte("// header\n{\n  // inline\n  \"a\": 1\n}")
	got := string(StripCommentsFromJSON(in))
	want := "{\n  \"a\": 1\n}"
	if got != want {
		t.Errorf("StripCommentsFromJSON = %q, want %q", got, want)
	}
}

func TestLoadDefaultConfig(t *testing.T) {
	LoadDefaultConfig()

	symbols := Koanf.Strings("symbols")
	if len(symbols) != 20 {
		t.Fatalf("len(symbols) = %d, want 20", len(symbols))
	}
	if symbols[0] != "AAPL" || symbols[19] != "KO" {
		t.Errorf("symbols = %v, want AAPL first and KO last", symbols)
	}
	if got := Koanf.String("provider"); got != "yahoo" {
		t.Errorf("provider = %q, want %q", got, "yahoo")
	}
	if got := Koanf.Int("compare.days"); got != 30 {
		t.Errorf("compare.days = %d, want 30", got)
	}
	if got := Koanf.String("theme.downColor"); got != "#E53935" {
		t.Errorf("theme.downColor = %q, want %q", got, "#E53935")
	}
	if got := NetworkTimeout(); got != 15*time.Second {
		t.Errorf("NetworkTimeout() = %v, want 15s", got)
	}
}

func TestLoadUserConfigOverridesDefaults(t *testing.T) {
	LoadDefaultConfig()

	path := filepath.Join(t.TempDir(), "config.json")
	content := `// user overrides
{
	"provider": "tiingo",
	"compare": { "days": 60 }
}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	if err := LoadUserConfig(path); err != nil {
		t.Fatalf("LoadUserConfig failed: %v", err)
	}

	if got := Koanf.String("provider"); got != "tiingo" {
		t.Errorf("provider = %q, want %q", got, "tiingo")
	}
	if got := Koanf.Int("compare.days"); got != 60 {
		t.Errorf("compare.days = %d, want 60", got)
	}
	// untouched keys keep their defaults
	if got := Koanf.Int("compare.maxSymbols"); got != 3 {
		t.Errorf("compare.maxSymbols = %d, want 3", got)
	}
}

func TestLoadUserConfigMissingFile(t *testing.T) {
	LoadDefaultConfig()

	err := LoadUserConfig(filepath.Join(t.TempDir(), "nope.json"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if got := Koanf.String("provider"); got != "yahoo" {
		t.Errorf("provider = %q after failed load, want %q", got, "yahoo")
	}
}

func TestLoadUserConfigInvalidJSON(t *testing.T) {
	LoadDefaultConfig()

	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{ not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := LoadUserConfig(path); err == nil {
		t.Fatal("expected parse error")
	}
}
