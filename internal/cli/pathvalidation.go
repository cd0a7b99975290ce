package cli

import (
	"fmt"
	"path/filepath"
	"strings"
)

// validateRulesPath checks a user supplied ruleset path before it is read
func validateRulesPath(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("rules path cannot be empty")
	}

	cleaned := filepath.Clean(path)
	if strings.ContainsAny(cleaned, "\x00\n\r") {
		return fmt.Errorf("invalid characters in rules path: %q", path)
	}
	if ext := filepath.Ext(cleaned); ext != ".cue" {
		return fmt.Errorf("rules file must be a .cue file: %s", path)
	}
	return nil
}

// validateAndCleanRulesPath validates a ruleset path and returns the cleaned version
func validateAndCleanRulesPath(path string) (string, error) {
	if err := validateRulesPath(path); err != nil {
		return "", err
	}
	return filepath.Clean(path), nil
}
