package shared

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

var (
	// Config manager
	Koanf *koanf.Koanf
)

//go:embed config/default.json
var defaultConfig []byte

// Takes the bytes from a JSON document and removes their comment lines (lines starting with //)
func StripCommentsFromJSON(fileContent []byte) []byte {
	lines := bytes.Split(fileContent, []byte("\n"))
	var filteredLines [][]byte

	for _, line := range lines {
		trimmedLine := bytes.TrimSpace(line)
		if !bytes.HasPrefix(trimmedLine, []byte("//")) {
			filteredLines = append(filteredLines, line)
		}
	}

	return bytes.Join(filteredLines, []byte("\n"))
}

// Path of the user config file, ~/.config/stocktracker/config.json
func UserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "stocktracker", "config.json"), nil
}

// Loads the user defined config on top of whatever is already loaded.
func LoadUserConfig(path string) error {
	log.Debug("Loading configuration", "path", path)
	if Koanf == nil {
		Koanf = koanf.New(".")
	}

	fileContent, err := file.Provider(path).ReadBytes()
	if err != nil {
		return fmt.Errorf("reading user config: %w", err)
	}

	if err := Koanf.Load(rawbytes.Provider(StripCommentsFromJSON(fileContent)), json.Parser()); err != nil {
		return fmt.Errorf("parsing user config: %w", err)
	}
	log.Info("Loaded user config file", "path", path)
	return nil
}

// Loads the default config, replacing anything loaded before.
func LoadDefaultConfig() {
	Koanf = koanf.New(".")

	err := Koanf.Load(rawbytes.Provider(StripCommentsFromJSON(defaultConfig)), json.Parser())
	if err != nil {
		log.Fatalf("Error loading default config %v", err)
	}
	log.Info("Loaded default config.")
}

// Loads the defaults, then the user config if one exists.
func LoadConfig() {
	LoadDefaultConfig()

	path, err := UserConfigPath()
	if err != nil {
		log.Warn("Could not resolve user config path", "error", err)
		return
	}

	if _, err := os.Stat(path); err != nil {
		log.Info("No user config found", "path", path)
		return
	}

	if err := LoadUserConfig(path); err != nil {
		log.Warn("Ignoring user config", "error", err)
	}
}

// Timeout applied to every network request.
func NetworkTimeout() time.Duration {
	secs := Koanf.Int("network.timeout")
	if secs <= 0 {
		secs = 15
	}
	return time.Duration(secs) * time.Second
}
