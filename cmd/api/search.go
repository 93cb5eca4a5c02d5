package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"product-search/config"
	"product-search/internal/domain"
	"product-search/internal/infrastructure/catalog"
	"product-search/internal/usecase"
	"product-search/pkg/logger"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	searchPage  int
	searchLimit int
	searchJSON  bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the catalog by product title and print one page of results",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}
		logger.SetOutput(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), NoColor: true})

		query := ""
		if len(args) == 1 {
			query = args[0]
		}

		searchUC := usecase.NewSearchUsecase(
			catalog.NewClient(cfg.CatalogBaseURL, cfg.CatalogTimeout),
			cfg.CatalogTimeout, cfg.SearchPageSize, cfg.SearchMaxPageSize, cfg.SearchSuggestions,
		)
		resp, pagination, err := searchUC.Search(cmd.Context(), query, searchPage, searchLimit)
		if err != nil {
			if errors.Is(err, domain.ErrFetchFailed) {
				return errors.New(domain.FetchErrorMessage)
			}
			return err
		}

		out := cmd.OutOrStdout()
		if searchJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(domain.Response{Success: true, Data: resp.Products, Meta: &pagination})
		}
		return printProducts(out, query, resp, pagination)
	},
}

func init() {
	searchCmd.Flags().IntVarP(&searchPage, "page", "p", 1, "Page number (1-based)")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "l", 0, "Products per page (default SEARCH_PAGE_SIZE)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "Print the API response envelope instead of a table")
	rootCmd.AddCommand(searchCmd)
}

func printProducts(out io.Writer, query string, resp domain.ProductResponse, p domain.Pagination) error {
	if len(resp.Products) == 0 {
		_, err := fmt.Fprintf(out, "No product found for `%s`\n", query)
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tPRICE")
	for _, product := range resp.Products {
		fmt.Fprintf(tw, "%d\t%s\t$%.2f\n", product.ID, product.Title, product.Price)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(out, "\nPage %d of %d (%d products)\n", p.Page, p.TotalPages, p.TotalItems)
	return err
}
