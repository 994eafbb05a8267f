// Command storezip packs files into a store-only ZIP archive.
//
// Usage:
//
//	storezip -o bundle.zip [-C dir] [-strict] [-j N] [-max-size BYTES] [-v] path...
//
// Each path is relative to -C and becomes the entry name. Directories are
// walked recursively in lexical order. The output is deterministic: the
// same inputs always produce the same archive bytes.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/meigma/storezip"
	"github.com/meigma/storezip/internal/sizing"
)

const defaultMaxSize = 64 << 20 // 64 MB per file

var errFileTooLarge = errors.New("file exceeds -max-size")

type config struct {
	output  string
	dir     string
	strict  bool
	jobs    int
	maxSize uint64
	verbose bool
	paths   []string
}

func main() {
	cfg, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, "storezip:", err)
		os.Exit(2)
	}

	level := slog.LevelInfo
	if cfg.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, logger, os.Stdout); err != nil {
		logger.Error("pack failed", "error", err)
		stop()
		os.Exit(1) //nolint:gocritic // stop is called explicitly above
	}
}

func parseFlags(args []string, output io.Writer) (config, error) {
	var cfg config
	var maxSize int64

	fset := flag.NewFlagSet("storezip", flag.ContinueOnError)
	fset.SetOutput(output)
	fset.StringVar(&cfg.output, "o", "", "output archive path (required)")
	fset.StringVar(&cfg.dir, "C", ".", "directory the input paths are relative to")
	fset.BoolVar(&cfg.strict, "strict", false, "fail on paths that normalize to nothing or collide")
	fset.IntVar(&cfg.jobs, "j", runtime.GOMAXPROCS(0), "number of files read concurrently")
	fset.Int64Var(&maxSize, "max-size", defaultMaxSize, "maximum size of a single input file in bytes")
	fset.BoolVar(&cfg.verbose, "v", false, "enable debug logging")
	if err := fset.Parse(args); err != nil {
		return config{}, err
	}

	cfg.paths = fset.Args()
	switch {
	case cfg.output == "":
		return config{}, errors.New("-o is required")
	case len(cfg.paths) == 0:
		return config{}, errors.New("no input paths")
	case cfg.jobs < 1:
		return config{}, fmt.Errorf("-j must be at least 1, got %d", cfg.jobs)
	case maxSize < 0:
		return config{}, fmt.Errorf("-max-size must not be negative, got %d", maxSize)
	}
	cfg.maxSize = uint64(maxSize)
	return cfg, nil
}

func run(ctx context.Context, cfg config, logger *slog.Logger, stdout io.Writer) error {
	root, err := os.OpenRoot(cfg.dir)
	if err != nil {
		return err
	}
	defer root.Close()

	names, err := collectFiles(root, cfg.paths)
	if err != nil {
		return err
	}
	logger.Debug("collected input files", "count", len(names))

	entries, err := loadEntries(ctx, root, names, cfg.jobs, cfg.maxSize)
	if err != nil {
		return err
	}

	opts := []storezip.Option{storezip.WithLogger(logger)}
	if cfg.strict {
		opts = append(opts, storezip.WithStrictPaths())
	}
	archive, err := storezip.Build(entries, opts...)
	if err != nil {
		return err
	}

	if err := os.WriteFile(cfg.output, archive, 0o644); err != nil { //nolint:gosec // archives are meant to be shared
		return err
	}
	fmt.Fprintf(stdout, "%s: %d bytes, %s\n", cfg.output, len(archive), storezip.Digest(archive))
	return nil
}

// collectFiles expands paths into slash-separated regular file names
// relative to root. Arguments keep their order; directory contents are
// listed in lexical order by fs.WalkDir.
func collectFiles(root *os.Root, paths []string) ([]string, error) {
	fsys := root.FS()
	var names []string
	for _, p := range paths {
		p = filepath.ToSlash(filepath.Clean(p))
		err := fs.WalkDir(fsys, p, func(name string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if d.Type().IsRegular() {
				names = append(names, name)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return names, nil
}

// loadEntries reads the named files with at most jobs concurrent reads.
// Results are stored by index so entry order matches names.
func loadEntries(ctx context.Context, root *os.Root, names []string, jobs int, maxSize uint64) ([]storezip.Entry, error) {
	entries := make([]storezip.Entry, len(names))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, name := range names {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			content, err := readFile(root, name, maxSize)
			if err != nil {
				return fmt.Errorf("read %s: %w", name, err)
			}
			entries[i] = storezip.Entry{Path: name, Content: content}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return entries, nil
}

func readFile(root *os.Root, name string, maxSize uint64) ([]byte, error) {
	f, err := root.Open(filepath.FromSlash(name))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return sizing.ReadAllWithLimit(f, maxSize, errFileTooLarge)
}
