package reports

import (
	"github.com/fdg312/fridge-journal/internal/nutrition"
)

const (
	FormatPDF = "pdf"
	FormatCSV = "csv"

	dateLayout = "2006-01-02"
)

// ExportRequest selects the journal range to export. Both dates are inclusive.
type ExportRequest struct {
	From   string
	To     string
	Format string
}

// Row is one journal entry as it appears in an export. Amount is in the
// product's own unit.
type Row struct {
	Date      string
	Meal      string
	Product   string
	Barcode   string
	Amount    float64
	Unit      nutrition.Unit
	Nutrients nutrition.Nutrients
}

// Day groups the rows of one date with their totals.
type Day struct {
	Date   string
	Rows   []Row
	Totals nutrition.Nutrients
}

// Export is a generated file.
type Export struct {
	Data        []byte
	ContentType string
	Filename    string
}

// groupByDay expects rows sorted by date.
func groupByDay(rows []Row) []Day {
	var days []Day
	for _, r := range rows {
		if len(days) == 0 || days[len(days)-1].Date != r.Date {
			days = append(days, Day{Date: r.Date})
		}
		d := &days[len(days)-1]
		d.Rows = append(d.Rows, r)
		d.Totals = d.Totals.Add(r.Nutrients)
	}
	return days
}

func contentType(format string) string {
	if format == FormatPDF {
		return "application/pdf"
	}
	return "text/csv; charset=utf-8"
}
