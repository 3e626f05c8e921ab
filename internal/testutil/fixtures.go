package testutil

import (
	"embed"
	"os"
	"path/filepath"
	"testing"

	"github.com/firefly-engineering/fersk/internal/config"
)

//go:embed fixtures/*.toml
var fixturesFS embed.FS

// LoadFixture loads a fixture file by name.
func LoadFixture(name string) ([]byte, error) {
	return fixturesFS.ReadFile("fixtures/" + name)
}

// FixturePath writes the named fixture into a temp dir and returns its path.
func FixturePath(t *testing.T, name string) string {
	t.Helper()

	data, err := LoadFixture(name)
	if err != nil {
		t.Fatalf("Failed to load fixture %s: %v", name, err)
	}

	path := filepath.Join(t.TempDir(), config.ConfigFileName)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to write fixture %s: %v", name, err)
	}
	return path
}

// ValidConfigPath returns the path of the valid config fixture.
func ValidConfigPath(t *testing.T) string {
	return FixturePath(t, "valid_config.toml")
}

// InvalidConfigPath returns the path of the invalid config fixture.
func InvalidConfigPath(t *testing.T) string {
	return FixturePath(t, "invalid_config.toml")
}
