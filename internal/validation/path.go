// Package validation checks user supplied URLs and file paths before the
// importer or the store touches them.
package validation

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsafePath wraps every rejection from PathValidator.
var ErrUnsafePath = errors.New("unsafe path")

// PathValidator restricts the database, index, config and log paths.
type PathValidator struct {
	// BaseDirs limits paths to these trees. Empty allows any location.
	BaseDirs  []string
	MaxLength int
}

// NewPathValidator allows only fora's own directories and the temp dir.
func NewPathValidator() *PathValidator {
	home, _ := os.UserHomeDir()
	return &PathValidator{
		BaseDirs: []string{
			filepath.Join(home, ".fora"),
			filepath.Join(home, ".config", "fora"),
			os.TempDir(),
		},
		MaxLength: 4096,
	}
}

// NewPermissivePathValidator accepts any location.
func NewPermissivePathValidator() *PathValidator {
	return &PathValidator{MaxLength: 4096}
}

func unsafe(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUnsafePath, fmt.Sprintf(format, args...))
}

// Clean expands a leading ~/, makes path absolute and checks it.
func (v *PathValidator) Clean(path string) (string, error) {
	if path == "" {
		return "", unsafe("empty")
	}
	if v.MaxLength > 0 && len(path) > v.MaxLength {
		return "", unsafe("longer than %d characters", v.MaxLength)
	}
	for _, r := range path {
		if r < 0x20 {
			return "", unsafe("control character in %q", path)
		}
	}
	for _, part := range strings.FieldsFunc(filepath.ToSlash(path), func(r rune) bool { return r == '/' }) {
		if part == ".." {
			return "", unsafe("traversal in %q", path)
		}
	}

	switch {
	case strings.HasPrefix(path, "~/"):
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	case strings.HasPrefix(path, "~"):
		return "", unsafe("unsupported tilde form %q", path)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", path, err)
	}
	if !v.within(abs) {
		return "", unsafe("%s is outside %v", abs, v.BaseDirs)
	}
	return abs, nil
}

func (v *PathValidator) within(abs string) bool {
	if len(v.BaseDirs) == 0 {
		return true
	}
	for _, base := range v.BaseDirs {
		baseAbs, err := filepath.Abs(base)
		if err != nil {
			continue
		}
		rel, err := filepath.Rel(baseAbs, abs)
		if err != nil {
			continue
		}
		if rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))) {
			return true
		}
	}
	return false
}

// File checks a file path. An existing directory at path is rejected.
func (v *PathValidator) File(path string) (string, error) {
	clean, err := v.Clean(path)
	if err != nil {
		return "", err
	}
	if info, statErr := os.Stat(clean); statErr == nil && info.IsDir() {
		return "", unsafe("%s is a directory", clean)
	}
	return clean, nil
}

// Dir checks a directory path, creating it when create is set.
func (v *PathValidator) Dir(path string, create bool) (string, error) {
	clean, err := v.Clean(path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(clean)
	switch {
	case err == nil && !info.IsDir():
		return "", unsafe("%s is not a directory", clean)
	case os.IsNotExist(err) && create:
		if mkErr := os.MkdirAll(clean, 0o755); mkErr != nil {
			return "", fmt.Errorf("creating %s: %w", clean, mkErr)
		}
	case err != nil && !os.IsNotExist(err):
		return "", fmt.Errorf("checking %s: %w", clean, err)
	}
	return clean, nil
}

// PathHandler resolves fora's on-disk locations, falling back to the
// defaults under ~/.fora and ~/.config/fora.
type PathHandler struct {
	validator *PathValidator
}

func NewSecurePathHandler() *PathHandler {
	return &PathHandler{validator: NewPathValidator()}
}

func NewPermissivePathHandler() *PathHandler {
	return &PathHandler{validator: NewPermissivePathValidator()}
}

func defaultPath(userPath string, elem ...string) (string, error) {
	if userPath != "" {
		return userPath, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(append([]string{home}, elem...)...), nil
}

// DBPath validates the bbolt file and creates its directory.
func (ph *PathHandler) DBPath(userPath string) (string, error) {
	path, err := defaultPath(userPath, ".fora", "fora.db")
	if err != nil {
		return "", err
	}
	clean, err := ph.validator.File(path)
	if err != nil {
		return "", err
	}
	if _, err := ph.validator.Dir(filepath.Dir(clean), true); err != nil {
		return "", err
	}
	return clean, nil
}

func (ph *PathHandler) ConfigPath(userPath string) (string, error) {
	path, err := defaultPath(userPath, ".config", "fora", "config.toml")
	if err != nil {
		return "", err
	}
	return ph.validator.File(path)
}

// IndexPath validates the bleve index directory without creating it; bleve
// refuses to create an index in an existing directory.
func (ph *PathHandler) IndexPath(userPath string) (string, error) {
	path, err := defaultPath(userPath, ".fora", "index.bleve")
	if err != nil {
		return "", err
	}
	return ph.validator.Dir(path, false)
}
