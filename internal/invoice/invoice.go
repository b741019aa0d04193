// Package invoice renders the billing document generated once per match.
// The layout is plain text and fully determined by the billing facts, so
// rendering the same facts twice yields byte-identical documents.
package invoice

import (
	"fmt"
	"strings"
)

// DiagnosticTestFee is the fixed fee line added when a diagnostic test
// was booked with the request. Amount in SGD.
const DiagnosticTestFee = 50.0

const Currency = "SGD"

// ContentType of rendered documents.
const ContentType = "text/plain; charset=utf-8"

// Facts are the billing inputs of one invoice.
type Facts struct {
	InvoiceNumber string
	ParentName    string
	StudentName   string
	TutorName     string
	HourlyRate    float64
	TestBooked    bool
}

// LineItem is one priced row of the invoice.
type LineItem struct {
	Description string
	Amount      float64
}

// Lines returns the invoice rows in their fixed order.
func Lines(f Facts) []LineItem {
	items := []LineItem{
		{Description: "Tuition (hourly rate)", Amount: f.HourlyRate},
	}
	if f.TestBooked {
		items = append(items, LineItem{Description: "Diagnostic test", Amount: DiagnosticTestFee})
	}
	return items
}

// Total sums the included line items. No tax, no discounts.
func Total(f Facts) float64 {
	total := 0.0
	for _, item := range Lines(f) {
		total += item.Amount
	}
	return total
}

const lineWidth = 60

// Render produces the invoice document.
func Render(f Facts) []byte {
	var b strings.Builder

	rule := strings.Repeat("=", lineWidth)
	thin := strings.Repeat("-", lineWidth)

	fmt.Fprintln(&b, rule)
	fmt.Fprintln(&b, center("TUITION INVOICE"))
	fmt.Fprintln(&b, center("Invoice No. "+f.InvoiceNumber))
	fmt.Fprintln(&b, rule)
	fmt.Fprintf(&b, "Billed to : %s\n", f.ParentName)
	fmt.Fprintf(&b, "Student   : %s\n", f.StudentName)
	fmt.Fprintf(&b, "Tutor     : %s\n", f.TutorName)
	fmt.Fprintln(&b, thin)

	for _, item := range Lines(f) {
		fmt.Fprintf(&b, "%-*s%s\n", lineWidth-12, item.Description, money(item.Amount))
	}

	fmt.Fprintln(&b, thin)
	fmt.Fprintf(&b, "%-*s%s\n", lineWidth-12, "TOTAL", money(Total(f)))
	fmt.Fprintln(&b, rule)

	return []byte(b.String())
}

func money(amount float64) string {
	return fmt.Sprintf("%s %9.2f", Currency, amount)
}

func center(text string) string {
	pad := (lineWidth - len(text)) / 2
	if pad < 0 {
		pad = 0
	}
	return strings.Repeat(" ", pad) + text
}
