package console

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"idconsole/internal/i18n"
	"idconsole/internal/jobs"
)

const clearScreen = "\x1b[H\x1b[2J"

// WatchOptions configures Watch.
type WatchOptions struct {
	Translator i18n.Translator
	Colorize   bool
	// UntilDone returns once every job in the store is terminal.
	UntilDone bool
	// Redraw clears the terminal before each frame.
	Redraw bool
}

// Watch renders the store's sorted jobs on every change until ctx ends or,
// with UntilDone, until no job is live.
func Watch(ctx context.Context, store *jobs.Store, w io.Writer, opts WatchOptions) error {
	changes, unsubscribe := store.Subscribe()
	defer unsubscribe()

	lastVersion := ^uint64(0)
	for {
		if version := store.Version(); version != lastVersion {
			lastVersion = version
			rows := JobRows(store.Sorted(), opts.Translator)
			frame := RenderJobTable(rows, opts.Translator, opts.Colorize)
			if opts.Redraw {
				frame = clearScreen + frame
			}
			if _, err := fmt.Fprintln(w, frame); err != nil {
				return err
			}
			if opts.UntilDone && !AnyLive(rows) {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-changes:
		}
	}
}

func formatSeconds(seconds float64) string {
	return strconv.FormatFloat(seconds, 'f', 1, 64) + "s"
}
