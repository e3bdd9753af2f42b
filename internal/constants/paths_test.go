package constants

import (
	"strings"
	"testing"
)

func TestDefaultConfigPath(t *testing.T) {
	if DefaultConfigPath != "./config.toml" {
		t.Errorf("DefaultConfigPath = %s, want './config.toml'", DefaultConfigPath)
	}

	if !strings.HasPrefix(DefaultConfigPath, "./") {
		t.Errorf("DefaultConfigPath should be a relative path starting with './', got: %s", DefaultConfigPath)
	}

	if !strings.HasSuffix(DefaultConfigPath, ".toml") {
		t.Errorf("DefaultConfigPath should have .toml extension, got: %s", DefaultConfigPath)
	}
}

func TestDefaultStatePath(t *testing.T) {
	if DefaultStatePath == "" {
		t.Error("DefaultStatePath should not be empty")
	}

	if !strings.HasSuffix(DefaultStatePath, ".json") {
		t.Errorf("DefaultStatePath should have .json extension, got: %s", DefaultStatePath)
	}
}
