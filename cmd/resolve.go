package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"costbook/models"

	"github.com/spf13/cobra"
)

var (
	flagName    string
	flagLink    string
	flagTimeout time.Duration
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve one product link or name to a price",
	Long: `Resolve runs the price pipeline once and prints the result.
A link is read directly; a name goes through search.

Examples:
  costbook resolve --link https://www.daraz.com.np/products/...
  costbook resolve --name "Logitech M331 mouse"`,
	Args: cobra.NoArgs,
	RunE: runResolve,
}

func init() {
	rootCmd.AddCommand(resolveCmd)

	resolveCmd.Flags().StringVar(&flagName, "name", "", "Product name to search for")
	resolveCmd.Flags().StringVar(&flagLink, "link", "", "Product page link (wins over --name)")
	resolveCmd.Flags().DurationVar(&flagTimeout, "timeout", 2*time.Minute, "Overall time limit")
}

func runResolve(cmd *cobra.Command, args []string) error {
	if _, err := models.NewQuery(flagName, flagLink); err != nil {
		return fmt.Errorf("%w: pass --name or --link", err)
	}

	a := newApp(cfg)
	a.start()
	defer a.close()

	ctx, cancel := context.WithTimeout(context.Background(), flagTimeout)
	defer cancel()

	res, err := a.session.Lookup(ctx, flagName, flagLink)
	if err != nil {
		return fmt.Errorf("resolving: %w", err)
	}
	switch res.Status {
	case models.ResolutionFound:
		fmt.Fprintf(os.Stdout, "✓ %s\n  Price:  %s\n  Source: %s\n", res.Name, res.Price.Format(cfg.CurrencyPrefix), res.Source)
		return nil
	case models.ResolutionNotFound:
		return fmt.Errorf("no price found")
	default:
		return fmt.Errorf("resolution failed: %s", res.Reason)
	}
}
