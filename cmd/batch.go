package cmd

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"costbook/exporter"
	"costbook/models"

	"github.com/spf13/cobra"
)

var (
	flagProject      string
	flagOut          string
	flagBatchTimeout time.Duration
	flagNoLinks      bool
)

var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Price a list of items and export the project",
	Long: `Batch reads one item per line as "quantity,<link or name>", resolves
every line through the queue and writes the project to --out. The export
format follows the file extension (.xlsx, .csv or .pdf).

Blank lines and lines starting with # are skipped.

Example file:
  2,https://www.daraz.com.np/products/...
  1,Logitech M331 mouse`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringVarP(&flagProject, "project", "p", "Project", "Project name")
	batchCmd.Flags().StringVarP(&flagOut, "out", "o", "project.xlsx", "Output file")
	batchCmd.Flags().DurationVar(&flagBatchTimeout, "timeout", 10*time.Minute, "Time limit for the whole batch")
	batchCmd.Flags().BoolVar(&flagNoLinks, "no-links", false, "Leave the Link column out of the export")
}

// batchLine is one parsed input line
type batchLine struct {
	Line     int
	Quantity int
	Query    models.Query
}

// parseBatch reads "quantity,<link or name>" lines. Names may contain commas;
// only the first comma separates the quantity.
func parseBatch(r io.Reader) ([]batchLine, error) {
	var lines []batchLine
	scanner := bufio.NewScanner(r)
	n := 0
	for scanner.Scan() {
		n++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		qtyText, rest, ok := strings.Cut(text, ",")
		if !ok {
			return nil, fmt.Errorf("line %d: expected quantity,<link or name>", n)
		}
		qty, err := strconv.Atoi(strings.TrimSpace(qtyText))
		if err != nil || qty <= 0 {
			return nil, fmt.Errorf("line %d: %w", n, models.ErrInvalidQuantity)
		}

		rest = strings.TrimSpace(rest)
		var query models.Query
		if looksLikeLink(rest) {
			query, err = models.NewQuery("", rest)
		} else {
			query, err = models.NewQuery(rest, "")
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
		lines = append(lines, batchLine{Line: n, Quantity: qty, Query: query})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

func looksLikeLink(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

func runBatch(cmd *cobra.Command, args []string) error {
	format, err := exporter.ParseFormat(strings.TrimPrefix(filepath.Ext(flagOut), "."))
	if err != nil {
		return err
	}

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	lines, err := parseBatch(f)
	f.Close()
	if err != nil {
		return err
	}
	if len(lines) == 0 {
		return fmt.Errorf("%s: no items", args[0])
	}

	a := newApp(cfg)
	a.start()
	defer a.close()

	if err := a.session.NewProject(flagProject); err != nil {
		return err
	}
	for _, line := range lines {
		var name, link string
		if line.Query.Kind == models.QueryDirectLink {
			link = line.Query.Value
		} else {
			name = line.Query.Value
		}
		if _, err := a.session.Submit(name, link, line.Quantity); err != nil {
			return fmt.Errorf("line %d: %w", line.Line, err)
		}
	}
	log.Printf("🚀 Resolving %d items", len(lines))

	ctx, cancel := context.WithTimeout(context.Background(), flagBatchTimeout)
	defer cancel()
	if err := a.session.WaitIdle(ctx); err != nil {
		return fmt.Errorf("waiting for results: %w", err)
	}

	snap, err := a.session.Snapshot()
	if err != nil {
		return err
	}
	for _, row := range snap.Rows {
		if row.Status == models.TaskStatusFailed {
			log.Printf("❌ %s%s: %s", row.Name, row.Link, row.Error)
		}
	}

	table := exporter.NewTable(snap.Project, snap.Items, exporter.Options{
		Links:    !flagNoLinks,
		TotalRow: true,
		Currency: a.session.Currency(),
	})
	var buf bytes.Buffer
	if err := exporter.Write(&buf, format, table); err != nil {
		return err
	}
	if err := os.WriteFile(flagOut, buf.Bytes(), 0o644); err != nil {
		return err
	}

	log.Printf("✅ Wrote %d of %d items to %s (total %s)", len(snap.Items), len(lines), flagOut, snap.TotalText)
	return nil
}
