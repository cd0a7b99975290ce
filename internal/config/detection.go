package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNoProjectFile is returned when none of the candidate files exist
var ErrNoProjectFile = errors.New("no project file found")

// ProjectFile represents a detected project-level file
type ProjectFile struct {
	Path   string
	Format string
}

// DetectionOptions controls project file detection
type DetectionOptions struct {
	Dir        string   // Directory to search, default "."
	Candidates []string // File names in priority order
}

// SettingsOptions looks for the CLI settings file read by viper
func SettingsOptions(dir string) *DetectionOptions {
	return &DetectionOptions{
		Dir:        dir,
		Candidates: []string{"honhon.yaml", "honhon.yml", "honhon.json"},
	}
}

// RulesOptions looks for a project registration ruleset
func RulesOptions(dir string) *DetectionOptions {
	return &DetectionOptions{
		Dir:        dir,
		Candidates: []string{"honhon.cue", filepath.Join(".honhon", "rules.cue")},
	}
}

// FindProjectFile returns the first candidate that exists
func FindProjectFile(opts *DetectionOptions) (*ProjectFile, error) {
	if opts == nil {
		opts = SettingsOptions(".")
	}
	dir := opts.Dir
	if dir == "" {
		dir = "."
	}

	paths := make([]string, 0, len(opts.Candidates))
	for _, name := range opts.Candidates {
		path := filepath.Join(dir, name)
		paths = append(paths, path)

		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		return &ProjectFile{Path: path, Format: detectFormat(path)}, nil
	}

	return nil, fmt.Errorf("%w. Looked for: %v", ErrNoProjectFile, paths)
}

// FindRulesFile returns the project ruleset in dir, if there is one
func FindRulesFile(dir string) (string, bool) {
	f, err := FindProjectFile(RulesOptions(dir))
	if err != nil {
		return "", false
	}
	return f.Path, true
}

func detectFormat(path string) string {
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		return "yaml"
	case ".json":
		return "json"
	case ".cue":
		return "cue"
	default:
		return "unknown"
	}
}
