// Package outpath computes where a translated document is written.
package outpath

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/valpere/booktran/internal/lang"
)

// Options control Resolve.
type Options struct {
	// Explicit is used verbatim when set, without a collision check.
	Explicit string
	// Dir replaces the source directory as the location of the default path.
	Dir string
}

// Resolve returns the output path for translating source into target.
//
// The default is "{stem}_{language}{ext}" next to the source (or in opts.Dir).
// When that file exists, "{stem}_{language}_2{ext}", "_3", ... are probed until
// a free name is found. The check is not atomic against other writers.
func Resolve(source string, target lang.Language, opts Options) (string, error) {
	if opts.Explicit != "" {
		return opts.Explicit, nil
	}

	ext := filepath.Ext(source)
	stem := strings.TrimSuffix(filepath.Base(source), ext)
	dir := opts.Dir
	if dir == "" {
		dir = filepath.Dir(source)
	}

	return unique(filepath.Join(dir, fmt.Sprintf("%s_%s%s", stem, target, ext)))
}

func unique(path string) (string, error) {
	free, err := available(path)
	if err != nil || free {
		return path, err
	}

	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s_%d%s", base, n, ext)
		free, err := available(candidate)
		if err != nil {
			return "", err
		}
		if free {
			return candidate, nil
		}
	}
}

func available(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return false, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return true, nil
	}
	return false, fmt.Errorf("failed to check output path %s: %w", path, err)
}
