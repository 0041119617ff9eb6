package cmd

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

const (
	// WatchDebounceDelay is the debounce delay for file watch events
	WatchDebounceDelay = 300 * time.Millisecond
)

func newWatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch [paths...] -- command [args...]",
		Short: "Re-run a command whenever Go sources change",
		Long: `Run a command, then run it again each time a .go file below the
watched paths changes. Paths default to the current directory.

Examples:
  myspec watch -- go run ./spec
  myspec watch ./internal ./spec -- go run ./spec --format documentation`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dash := cmd.ArgsLenAtDash()
			if dash < 0 || dash == len(args) {
				return usageError("watch needs a command after --")
			}
			paths := args[:dash]
			if len(paths) == 0 {
				paths = []string{"."}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			w := &watcher{
				paths:    paths,
				debounce: WatchDebounceDelay,
				out:      cmd.OutOrStdout(),
				errOut:   cmd.ErrOrStderr(),
				run:      commandRunner(args[dash:], cmd.OutOrStdout(), cmd.ErrOrStderr()),
			}
			return w.watch(ctx)
		},
	}
}

func commandRunner(argv []string, stdout, stderr io.Writer) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		c := exec.CommandContext(ctx, argv[0], argv[1:]...)
		c.Stdin = os.Stdin
		c.Stdout = stdout
		c.Stderr = stderr
		return c.Run()
	}
}

type watcher struct {
	paths    []string
	debounce time.Duration
	out      io.Writer
	errOut   io.Writer
	run      func(ctx context.Context) error
}

// watch runs the command once and again after each debounced burst of Go
// source changes, until ctx is done.
func (w *watcher) watch(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fw.Close()

	for _, p := range w.paths {
		if err := addTree(fw, p); err != nil {
			return fmt.Errorf("failed to watch %s: %w", p, err)
		}
	}

	w.rerun(ctx)

	debounce := time.NewTimer(w.debounce)
	debounce.Stop()
	var changed string

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = addTree(fw, event.Name)
					continue
				}
			}
			if !isGoSource(event.Name) || (event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write)) {
				continue
			}
			changed = event.Name
			debounce.Reset(w.debounce)

		case <-debounce.C:
			fmt.Fprintf(w.out, "\nFile changed: %s\nRe-running...\n\n", changed)
			w.rerun(ctx)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(w.errOut, "warning: watcher error: %v\n", err)
		}
	}
}

func (w *watcher) rerun(ctx context.Context) {
	if err := w.run(ctx); err != nil && ctx.Err() == nil {
		fmt.Fprintf(w.errOut, "command finished: %v\n", err)
	}
	fmt.Fprintf(w.out, "\nWatching for changes... (press Ctrl+C to stop)\n")
}

// addTree watches root and every directory below it, skipping hidden and
// vendor directories.
func addTree(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		name := d.Name()
		if path != root && (strings.HasPrefix(name, ".") || name == "vendor" || name == "testdata") {
			return filepath.SkipDir
		}
		return fw.Add(path)
	})
}

func isGoSource(path string) bool {
	return filepath.Ext(path) == ".go"
}
