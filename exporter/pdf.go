package exporter

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
)

// column widths in mm on an A4 page with 10mm margins
var pdfWidths = map[string]float64{
	"Product Name": 70,
	"Quantity":     18,
	"Price":        32,
	"Cost":         32,
	"Link":         38,
}

// WritePDF renders the table as a one-table A4 document
func WritePDF(w io.Writer, t Table) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	widths := make([]float64, len(t.Headers))
	used := 0.0
	for i, h := range t.Headers {
		widths[i] = pdfWidths[h]
		used += widths[i]
	}
	// The name column takes whatever the link column would have used
	if len(t.Headers) > 0 && used < 190 {
		widths[0] += 190 - used
	}

	pdf.SetFont("Helvetica", "B", 16)
	pdf.MultiCell(0, 8, tr(t.Title), "", "L", false)
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(235, 235, 235)
	for i, h := range t.Headers {
		pdf.CellFormat(widths[i], 7, tr(h), "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, row := range t.Rows {
		if len(row) > 0 && row[0] == "Total" {
			pdf.SetFont("Helvetica", "B", 9)
		}
		for i := range t.Headers {
			text := ""
			if i < len(row) {
				text = fitText(pdf, tr(row[i]), widths[i]-2)
			}
			pdf.CellFormat(widths[i], 6, text, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("writing pdf: %w", err)
	}
	return nil
}

// fitText trims text with "..." until it fits width
func fitText(pdf *gofpdf.Fpdf, text string, width float64) string {
	if pdf.GetStringWidth(text) <= width {
		return text
	}
	runes := []rune(text)
	for len(runes) > 0 && pdf.GetStringWidth(string(runes)+"...") > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}
