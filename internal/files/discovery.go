package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	apperrors "tbsu/internal/errors"
)

// TableExtensions are the file types frame readers understand
var TableExtensions = []string{".csv", ".xlsx", ".xlsm"}

// IsTableFile reports whether name has a readable table extension
func IsTableFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range TableExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// FindTableFiles lists the table files directly inside dir, sorted by name.
// Office lock files (~$book.xlsx) are skipped.
func FindTableFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var out []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, "~$") || !IsTableFile(name) {
			continue
		}
		out = append(out, filepath.Join(dir, name))
	}
	sort.Strings(out)
	return out, nil
}

// Expand turns inputs into file paths, keeping argument order. Directories
// contribute their table files, glob patterns their sorted matches and
// anything else is passed through as a path. An input that resolves to
// nothing is an error.
func Expand(inputs ...string) ([]string, error) {
	var out []string
	for _, input := range inputs {
		info, err := os.Stat(input)
		switch {
		case err == nil && info.IsDir():
			found, err := FindTableFiles(input)
			if err != nil {
				return nil, err
			}
			if len(found) == 0 {
				return nil, apperrors.NewNotFoundError(fmt.Sprintf("table files in %s", input))
			}
			out = append(out, found...)
		case err == nil:
			out = append(out, input)
		case strings.ContainsAny(input, "*?["):
			matches, err := filepath.Glob(input)
			if err != nil {
				return nil, apperrors.NewValidationError(fmt.Sprintf("bad pattern %q", input), err)
			}
			if len(matches) == 0 {
				return nil, apperrors.NewNotFoundError(fmt.Sprintf("files matching %s", input))
			}
			out = append(out, matches...)
		default:
			return nil, apperrors.NewNotFoundError(input)
		}
	}
	return out, nil
}
