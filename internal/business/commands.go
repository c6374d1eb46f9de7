package business

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	slogctx "github.com/veqryn/slog-context"

	"github.com/openkcm/catalog-client/internal/config"
	"github.com/openkcm/catalog-client/pkg/catalog"
	"github.com/openkcm/catalog-client/pkg/session"
)

func withApp(ctx context.Context, cfg *config.Config, fn func(context.Context, *App) error) error {
	app, err := NewApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close(context.WithoutCancel(ctx))

	if err := app.Start(ctx); err != nil {
		return err
	}

	return fn(session.NewContext(ctx, app.Session), app)
}

type LoginInput struct {
	Username   string
	Password   string
	RememberMe bool
}

// Login signs in. Only a remembered session outlives the command.
func Login(ctx context.Context, cfg *config.Config, out io.Writer, in LoginInput) error {
	creds := session.Credentials{
		Username:   strings.TrimSpace(in.Username),
		Password:   in.Password,
		RememberMe: in.RememberMe,
	}
	if err := creds.Validate(); err != nil {
		return err
	}

	return withApp(ctx, cfg, func(ctx context.Context, app *App) error {
		user, err := app.Session.Login(ctx, creds)
		if err != nil {
			return err
		}

		_, _ = fmt.Fprintf(out, "Signed in as %s (%s)\n", user.FullName(), user.Username)
		if !creds.RememberMe {
			_, _ = fmt.Fprintln(out, "The session is not remembered, use --remember to stay signed in.")
		}

		return nil
	})
}

func Logout(ctx context.Context, cfg *config.Config, out io.Writer) error {
	return withApp(ctx, cfg, func(ctx context.Context, app *App) error {
		app.Session.Logout(ctx)
		_, _ = fmt.Fprintln(out, "Signed out")

		return nil
	})
}

func WhoAmI(ctx context.Context, cfg *config.Config, out io.Writer) error {
	return withApp(ctx, cfg, func(_ context.Context, app *App) error {
		user, err := app.Session.RequireUser()
		if err != nil {
			return err
		}

		_, _ = fmt.Fprintf(out, "%s (%s)\n", user.FullName(), user.Username)
		if user.Email != "" {
			_, _ = fmt.Fprintf(out, "Email: %s\n", user.Email)
		}
		_, _ = fmt.Fprintf(out, "Id:    %d\n", user.ID)

		return nil
	})
}

type ListInput struct {
	Search    string
	Page      int
	Sort      string
	Direction string
	// Refresh bypasses the page cache.
	Refresh bool
}

// ListProducts prints one page of products. A sort given on the command
// line becomes the saved sort.
func ListProducts(ctx context.Context, cfg *config.Config, out io.Writer, in ListInput) error {
	return withApp(ctx, cfg, func(ctx context.Context, app *App) error {
		if _, err := app.Session.RequireUser(); err != nil {
			return err
		}

		listing, err := app.Listing(ctx)
		if err != nil {
			return err
		}

		if in.Sort != "" || in.Direction != "" {
			s := catalog.ParseSort(in.Sort, in.Direction)
			listing.SetSort(s)
			if err := catalog.SaveSort(ctx, app.Store, s); err != nil {
				slogctx.Warn(ctx, "Could not save the sort preference", "error", err)
			}
		}
		listing.SetSearch(in.Search)
		if in.Page > 1 {
			listing.SetPage(in.Page)
		}
		if in.Refresh {
			app.Catalog.Invalidate()
		}

		if err := listing.Load(ctx); err != nil {
			return fmt.Errorf("loading products: %w", err)
		}

		return printView(out, listing.View())
	})
}

// AddProduct validates the form and keeps the product on this client.
func AddProduct(ctx context.Context, cfg *config.Config, out io.Writer, form catalog.NewProduct) error {
	product, err := catalog.ParseNewProduct(form, time.Now())
	if err != nil {
		return err
	}

	return withApp(ctx, cfg, func(ctx context.Context, app *App) error {
		if _, err := app.Session.RequireUser(); err != nil {
			return err
		}

		if err := app.Local.Add(ctx, product); err != nil {
			return err
		}

		_, _ = fmt.Fprintf(out, "Added %q (%s)\n", product.Title, product.SKU)

		return nil
	})
}

func printView(out io.Writer, v catalog.View) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintln(tw, "ID\tTITLE\tPRICE\tBRAND\tSKU\tRATING")
	for _, p := range v.Rows {
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%.2f\t%s\t%s\t%.2f\n", p.ID, p.Title, p.Price, p.Brand, p.SKU, p.Rating)
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("writing products: %w", err)
	}

	if len(v.Rows) == 0 {
		_, _ = fmt.Fprintln(out, "No products found")
	}
	_, _ = fmt.Fprintf(out, "Showing %d-%d of %d, page %d of %d, sorted by %s %s\n",
		v.First, v.Last, v.Total, v.Page, v.TotalPages, v.Sort.Key, v.Sort.Direction)

	return nil
}
