package invoice

import (
	"fmt"
	"io"

	"storefront/internal/domain"

	"github.com/go-pdf/fpdf"
)

const (
	rule       = "---------------------------"
	titleSize  = 26
	lineSize   = 16
	footerSize = 20
	fontFamily = "Helvetica"
)

// Document is the text content of an invoice, independent of layout.
type Document struct {
	Title  string
	Lines  []string
	Footer string
}

// Compose lays out the order as invoice text. The footer sums unit prices
// without multiplying by quantity, so it can differ from the amount charged.
func Compose(order *domain.Order) Document {
	lines := make([]string, 0, len(order.Products))
	for _, p := range order.Products {
		lines = append(lines, fmt.Sprintf("%s - %d X $%s", p.Product.Title, p.Quantity, p.Product.Price))
	}

	return Document{
		Title:  "INVOICE",
		Lines:  lines,
		Footer: "TOTALPRICE - " + order.InvoiceTotal().String(),
	}
}

// translated returns a copy of d with every printed string passed through tr.
func (d Document) translated(tr func(string) string) Document {
	lines := make([]string, len(d.Lines))
	for i, line := range d.Lines {
		lines[i] = tr(line)
	}
	return Document{Title: tr(d.Title), Lines: lines, Footer: tr(d.Footer)}
}

// Generator renders invoices as PDF.
type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Render writes the PDF for order to w. Nothing is written if layout fails.
func (g *Generator) Render(order *domain.Order, w io.Writer) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCreationDate(order.CreatedAt)
	pdf.SetTitle("Invoice "+order.ID.String(), true)
	doc := Compose(order).translated(pdf.UnicodeTranslatorFromDescriptor(""))

	pdf.AddPage()

	pdf.SetFont(fontFamily, "U", titleSize)
	pdf.CellFormat(0, 12, doc.Title, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 12, rule, "", 1, "L", false, 0, "")

	pdf.SetFont(fontFamily, "", lineSize)
	for _, line := range doc.Lines {
		pdf.CellFormat(0, 8, line, "", 1, "L", false, 0, "")
	}
	pdf.CellFormat(0, 8, rule, "", 1, "L", false, 0, "")

	pdf.SetFont(fontFamily, "", footerSize)
	pdf.CellFormat(0, 10, doc.Footer, "", 1, "L", false, 0, "")

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("failed to lay out invoice: %w", err)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to write invoice: %w", err)
	}
	return nil
}
