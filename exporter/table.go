package exporter

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"costbook/models"
)

// Format is an export file type
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
	FormatPDF  Format = "pdf"
)

// ParseFormat accepts xlsx, csv or pdf; empty means xlsx
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatXLSX, nil
	case FormatXLSX, FormatCSV, FormatPDF:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

// ContentType returns the MIME type for the format
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatPDF:
		return "application/pdf"
	default:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
}

// FileName builds a download name from the project name
func (f Format) FileName(project string) string {
	name := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`/\:*?"<>|`, r) {
			return '_'
		}
		return r
	}, strings.TrimSpace(project))
	if name == "" {
		name = "project"
	}
	return name + "." + string(f)
}

// Options control optional columns and rows
type Options struct {
	Links    bool
	TotalRow bool
	Currency string
}

// Table is the rendered project, ready for any writer
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// NewTable lays out items as Product Name, Quantity, Price, Cost[, Link]
// with an optional trailing Total row
func NewTable(project string, items []models.LineItem, opts Options) Table {
	headers := []string{"Product Name", "Quantity", "Price", "Cost"}
	if opts.Links {
		headers = append(headers, "Link")
	}

	t := Table{Title: project, Headers: headers}
	total := models.Money{}
	for _, item := range items {
		row := []string{
			item.ProductName,
			strconv.Itoa(item.Quantity),
			item.UnitPrice.Format(opts.Currency),
			item.LineCost.Format(opts.Currency),
		}
		if opts.Links {
			row = append(row, item.Link)
		}
		t.Rows = append(t.Rows, row)
		total = total.Add(item.LineCost)
	}

	if opts.TotalRow {
		row := []string{"Total", "", "", total.Format(opts.Currency)}
		if opts.Links {
			row = append(row, "")
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// Write renders the table in the given format
func Write(w io.Writer, format Format, t Table) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, t)
	case FormatPDF:
		return WritePDF(w, t)
	case FormatXLSX:
		return WriteXLSX(w, t)
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}
