package business

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	slogctx "github.com/veqryn/slog-context"

	"github.com/openkcm/catalog-client/internal/config"
	"github.com/openkcm/catalog-client/pkg/catalog"
)

const browseHelp = `Type to search. Commands:
  :n  next page        :p  previous page
  :s  <key> sort by title, price, brand, sku or rating (again to flip)
  :r  reload           :q  quit`

// BrowseProducts is an interactive product list driven by the lines of in.
// A plain line is the search text. It is applied once typing pauses for the
// search debounce, or right before the next command.
func BrowseProducts(ctx context.Context, cfg *config.Config, in io.Reader, out io.Writer) error {
	return withApp(ctx, cfg, func(ctx context.Context, app *App) error {
		if _, err := app.Session.RequireUser(); err != nil {
			return err
		}

		listing, err := app.Listing(ctx)
		if err != nil {
			return err
		}

		b := &browser{app: app, listing: listing, out: out}
		_, _ = fmt.Fprintln(out, browseHelp)
		b.show(ctx)

		search := catalog.NewDebouncer(cfg.Catalog.SearchDebounce, func(text string) {
			listing.SetSearch(text)
			b.show(ctx)
		})
		defer search.Stop()

		lines := make(chan string)
		scanErr := make(chan error, 1)
		go func() {
			defer close(lines)
			scanner := bufio.NewScanner(in)
			for scanner.Scan() {
				select {
				case lines <- scanner.Text():
				case <-ctx.Done():
					scanErr <- nil
					return
				}
			}
			scanErr <- scanner.Err()
		}()

		for {
			var line string
			var ok bool
			select {
			case <-ctx.Done():
				return nil
			case line, ok = <-lines:
			}
			if !ok {
				search.Flush()
				return <-scanErr
			}

			cmd, arg, isCmd := parseBrowseLine(line)
			if !isCmd {
				search.Push(line)
				continue
			}

			search.Flush()
			if quit := b.run(ctx, cmd, arg); quit {
				return nil
			}
		}
	})
}

func parseBrowseLine(line string) (cmd, arg string, ok bool) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(line), ":")
	if !ok {
		return "", "", false
	}
	cmd, arg, _ = strings.Cut(rest, " ")

	return cmd, strings.TrimSpace(arg), true
}

type browser struct {
	app     *App
	listing *catalog.Listing

	// mu keeps the pages printed by the debouncer and by commands apart.
	mu  sync.Mutex
	out io.Writer
}

// run handles one command and reports whether to quit.
func (b *browser) run(ctx context.Context, cmd, arg string) bool {
	switch cmd {
	case "q":
		return true
	case "n", "p":
		page := b.listing.View().Page + 1
		if cmd == "p" {
			page -= 2
		}
		if !b.listing.SetPage(page) {
			b.print("No such page")
			return false
		}
	case "s":
		key := catalog.SortKey(arg)
		if !key.Valid() {
			b.print(fmt.Sprintf("Unknown sort key %q", arg))
			return false
		}
		s := b.listing.ToggleSort(key)
		if err := catalog.SaveSort(ctx, b.app.Store, s); err != nil {
			slogctx.Warn(ctx, "Could not save the sort preference", "error", err)
		}
	case "r":
		b.app.Catalog.Invalidate()
	default:
		b.print(browseHelp)
		return false
	}

	b.show(ctx)

	return false
}

// show loads the current page and prints it. A load superseded by a newer
// one prints nothing.
func (b *browser) show(ctx context.Context) {
	err := b.listing.Load(ctx)
	if errors.Is(err, catalog.ErrSuperseded) {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if err != nil {
		_, _ = fmt.Fprintf(b.out, "Loading products failed: %v\n", err)
		return
	}
	_ = printView(b.out, b.listing.View())
}

func (b *browser) print(msg string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	_, _ = fmt.Fprintln(b.out, msg)
}
