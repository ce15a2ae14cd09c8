package reports

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/jung-kurt/gofpdf"

	"github.com/fdg312/fridge-journal/internal/nutrition"
)

var csvHeader = []string{"date", "meal", "product", "barcode", "amount", "unit", "proteins", "fats", "carbs", "kcal"}

// Generator renders journal rows as CSV or PDF.
type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Generate renders rows (sorted by date) in the given format.
func (g *Generator) Generate(req ExportRequest, rows []Row) ([]byte, error) {
	switch req.Format {
	case FormatCSV:
		return g.generateCSV(rows)
	case FormatPDF:
		return g.generatePDF(req, groupByDay(rows))
	default:
		return nil, fmt.Errorf("unsupported format: %s", req.Format)
	}
}

func (g *Generator) generateCSV(rows []Row) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}

	for _, r := range rows {
		record := []string{
			r.Date,
			r.Meal,
			r.Product,
			r.Barcode,
			formatNumber(r.Amount),
			r.Unit.String(),
			formatNumber(r.Nutrients.Proteins),
			formatNumber(r.Nutrients.Fats),
			formatNumber(r.Nutrients.Carbs),
			formatNumber(r.Nutrients.Kcal()),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// generatePDF draws one table per day. Core fonts only cover cp1252, other
// characters are replaced by the translator.
func (g *Generator) generatePDF(req ExportRequest, days []Day) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "Food journal")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 8, fmt.Sprintf("Period: %s - %s", req.From, req.To))
	pdf.Ln(12)

	if len(days) == 0 {
		pdf.Cell(0, 8, "No entries in this period.")
	}

	widths := []float64{28, 60, 24, 18, 18, 18, 20}
	headers := []string{"Meal", "Product", "Amount", "Prot.", "Fat", "Carbs", "Kcal"}

	for _, day := range days {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.Cell(0, 8, day.Date)
		pdf.Ln(8)

		pdf.SetFont("Helvetica", "B", 8)
		for i, h := range headers {
			pdf.CellFormat(widths[i], 6, h, "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)

		pdf.SetFont("Helvetica", "", 8)
		for _, r := range day.Rows {
			amount := nutrition.Normalize(r.Amount, r.Unit)
			cells := []string{
				tr(r.Meal),
				tr(r.Product),
				formatNumber(amount.Value) + " " + amount.Unit.String(),
				formatFixed(r.Nutrients.Proteins),
				formatFixed(r.Nutrients.Fats),
				formatFixed(r.Nutrients.Carbs),
				formatFixed(r.Nutrients.Kcal()),
			}
			for i, c := range cells {
				align := "R"
				if i < 2 {
					align = "L"
				}
				pdf.CellFormat(widths[i], 6, c, "1", 0, align, false, 0, "")
			}
			pdf.Ln(-1)
		}

		pdf.SetFont("Helvetica", "B", 8)
		pdf.CellFormat(widths[0]+widths[1]+widths[2], 6, "Total", "1", 0, "L", false, 0, "")
		for i, v := range []float64{day.Totals.Proteins, day.Totals.Fats, day.Totals.Carbs, day.Totals.Kcal()} {
			pdf.CellFormat(widths[3+i], 6, formatFixed(v), "1", 0, "R", false, 0, "")
		}
		pdf.Ln(10)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatFixed(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}
