package products

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/openkcm/catalog-client/internal/business"
	"github.com/openkcm/catalog-client/internal/cmdutils"
	"github.com/openkcm/catalog-client/internal/config"
	"github.com/openkcm/catalog-client/pkg/catalog"
)

func Cmd(buildInfo string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "products",
		Short: "Browse the product catalog",
	}

	cmd.AddCommand(listCmd(buildInfo), browseCmd(buildInfo), addCmd(buildInfo))

	return cmd
}

func listCmd(buildInfo string) *cobra.Command {
	var (
		in  business.ListInput
		cmd *cobra.Command
	)

	cmd = cmdutils.CobraCommand(
		"list",
		"List one page of products",
		"List one page of products. Products added on this client are shown first. A given sort is remembered.",
		buildInfo,
		cmdutils.RunAsJob,
		func(ctx context.Context, cfg *config.Config) error {
			return business.ListProducts(ctx, cfg, cmd.OutOrStdout(), in)
		},
	)

	cmd.Flags().StringVarP(&in.Search, "search", "q", "", "search text")
	cmd.Flags().IntVar(&in.Page, "page", 1, "page number, starting at 1")
	cmd.Flags().StringVar(&in.Sort, "sort", "", "sort by title, price, brand, sku or rating")
	cmd.Flags().StringVar(&in.Direction, "dir", "", "sort direction, asc or desc")
	cmd.Flags().BoolVar(&in.Refresh, "refresh", false, "skip the page cache")

	return cmd
}

func browseCmd(buildInfo string) *cobra.Command {
	var cmd *cobra.Command

	cmd = cmdutils.CobraCommand(
		"browse",
		"Browse products interactively",
		"Browse products interactively. Each line typed is the search text, lines starting with \":\" are commands. Type :h for help.",
		buildInfo,
		cmdutils.RunAsJob,
		func(ctx context.Context, cfg *config.Config) error {
			return business.BrowseProducts(ctx, cfg, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	)

	return cmd
}

func addCmd(buildInfo string) *cobra.Command {
	var (
		form catalog.NewProduct
		cmd  *cobra.Command
	)

	cmd = cmdutils.CobraCommand(
		"add",
		"Add a product on this client",
		"Add a product to the local list. It is never sent to the API.",
		buildInfo,
		cmdutils.RunAsJob,
		func(ctx context.Context, cfg *config.Config) error {
			return business.AddProduct(ctx, cfg, cmd.OutOrStdout(), form)
		},
	)

	cmd.Flags().StringVar(&form.Title, "title", "", "product title")
	cmd.Flags().StringVar(&form.Price, "price", "", `price, "," or "." as decimal separator`)
	cmd.Flags().StringVar(&form.Brand, "brand", "", "brand")
	cmd.Flags().StringVar(&form.SKU, "sku", "", "stock keeping unit")

	return cmd
}
