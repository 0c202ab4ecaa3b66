// Package driver applies the formatter and the validator to files on disk.
package driver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"slices"

	"github.com/tliron/commonlog"
	"golang.org/x/sync/errgroup"

	"github.com/jsvensson/kamfmt/internal/config"
	"github.com/jsvensson/kamfmt/internal/format"
	"github.com/jsvensson/kamfmt/internal/validate"
)

var log = commonlog.GetLogger("kamfmt.driver")

// ErrNoFiles is returned when the given paths expand to no config files.
var ErrNoFiles = errors.New("no configuration files found")

// Options controls FormatPaths.
type Options struct {
	Formatter format.Formatter // nil selects the rule engine
	Check     bool             // report changes without writing
	Stdout    bool             // return formatted bytes without writing
	Validate  bool             // refuse to rewrite structurally invalid files
	Jobs      int              // parallel workers; <= 0 means GOMAXPROCS
}

// Result is the outcome for a single file.
type Result struct {
	Path      string
	Changed   bool
	Formatted []byte
	Err       error
}

// CollectFiles expands paths into a sorted list of files. Files named
// explicitly are always kept; directories are walked and filtered by the
// include and exclude globs, which match base names.
func CollectFiles(ctx context.Context, paths []string, files config.Files) ([]string, error) {
	seen := make(map[string]bool)
	var out []string

	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			out = append(out, path)
		}
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", root, err)
		}
		if !info.IsDir() {
			add(root)
			continue
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if d.IsDir() {
				if path != root && len(d.Name()) > 1 && d.Name()[0] == '.' {
					return filepath.SkipDir
				}
				return nil
			}
			if matchesAny(files.Exclude, d.Name()) || !matchesAny(files.Include, d.Name()) {
				return nil
			}
			add(path)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", root, err)
		}
	}

	slices.Sort(out)
	return out, nil
}

func matchesAny(patterns []string, name string) bool {
	for _, p := range patterns {
		if ok, _ := filepath.Match(p, name); ok {
			return true
		}
	}
	return false
}

// FormatPaths formats every file in parallel. Per-file failures are reported
// in the results; the returned error is reserved for cancellation.
func FormatPaths(ctx context.Context, files []string, opts Options) ([]Result, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}
	f := opts.Formatter
	if f == nil {
		f = format.Rules{}
	}

	results := make([]Result, len(files))
	err := forEach(ctx, files, opts.Jobs, func(i int, path string) {
		results[i] = formatFile(path, f, opts)
	})
	return results, err
}

func formatFile(path string, f format.Formatter, opts Options) Result {
	result := Result{Path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Err = err
		return result
	}

	if opts.Validate {
		if err := validate.Validate(string(data)); err != nil {
			result.Err = err
			return result
		}
	}

	formatted := []byte(f.Format(string(data)).Formatted)
	changed := !bytes.Equal(formatted, data)
	log.Debugf("%s: changed=%t", path, changed)

	if opts.Stdout {
		result.Formatted = formatted
		result.Changed = changed
		return result
	}
	if opts.Check || !changed {
		result.Changed = changed
		return result
	}

	mode := os.FileMode(0o644)
	if info, statErr := os.Stat(path); statErr == nil {
		mode = info.Mode()
	}
	if err := os.WriteFile(path, formatted, mode.Perm()); err != nil {
		result.Err = err
		return result
	}
	result.Changed = true
	return result
}

// ValidatePaths validates every file in parallel. Result.Err holds the
// *validate.Error or the I/O error for a file.
func ValidatePaths(ctx context.Context, files []string, jobs int) ([]Result, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}

	results := make([]Result, len(files))
	err := forEach(ctx, files, jobs, func(i int, path string) {
		results[i] = Result{Path: path}
		data, err := os.ReadFile(path)
		if err != nil {
			results[i].Err = err
			return
		}
		results[i].Err = validate.Validate(string(data))
		log.Debugf("%s: valid=%t", path, results[i].Err == nil)
	})
	return results, err
}

// forEach runs fn for every file with at most jobs goroutines. Each call
// writes only to its own index, so results need no locking.
func forEach(ctx context.Context, files []string, jobs int, fn func(i int, path string)) error {
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))

	for i, path := range files {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			fn(i, path)
			return nil
		})
	}
	return g.Wait()
}
