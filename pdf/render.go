// Package pdf renders invoices as printable A4 documents.
package pdf

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"

	"billing-backend/models"
)

const dateLayout = "2006-01-02"

// column x positions and widths (mm) of the items table
var (
	colX     = [5]float64{15, 95, 120, 145, 165}
	colW     = [5]float64{80, 25, 25, 20, 30}
	colTitle = [5]string{"Description", "Qty", "Price", "Tax", "Amount"}
)

// Filename is the download name of an invoice document.
func Filename(inv *models.Invoice) string {
	return "invoice-" + inv.InvoiceNumber + ".pdf"
}

// Render lays out inv (with Customer and Items loaded) and returns the PDF bytes.
func Render(inv *models.Invoice) ([]byte, error) {
	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetMargins(15, 15, 15)
	doc.SetAutoPageBreak(true, 20)
	tr := doc.UnicodeTranslatorFromDescriptor("")
	doc.AddPage()

	// Header
	doc.SetFont("Helvetica", "B", 20)
	doc.CellFormat(0, 12, "INVOICE", "", 1, "C", false, 0, "")
	doc.Ln(4)

	// Invoice details
	doc.SetFont("Helvetica", "", 10)
	line(doc, "Invoice Number: "+inv.InvoiceNumber)
	line(doc, "Issue Date: "+inv.IssueDate.Format(dateLayout))
	line(doc, "Due Date: "+inv.DueDate.Format(dateLayout))
	line(doc, "Status: "+strings.ToUpper(string(inv.Status)))
	if inv.PaidDate != nil {
		line(doc, "Paid Date: "+inv.PaidDate.Format(dateLayout))
	}
	doc.Ln(6)

	// Customer
	if cu := inv.Customer; cu != nil {
		doc.SetFont("Helvetica", "B", 10)
		line(doc, "Bill To:")
		doc.SetFont("Helvetica", "", 10)
		for _, s := range []string{cu.Name, cu.Company, cu.Email, cu.Phone, cu.Address, joinNonEmpty(" ", cu.Zip, cu.City), cu.Country} {
			if s != "" {
				line(doc, tr(s))
			}
		}
		doc.Ln(6)
	}

	// Items table
	doc.SetFont("Helvetica", "B", 10)
	y := doc.GetY()
	for i, title := range colTitle {
		doc.SetXY(colX[i], y)
		doc.CellFormat(colW[i], 7, title, "", 0, align(i), false, 0, "")
	}
	doc.Ln(8)
	rule(doc)

	doc.SetFont("Helvetica", "", 10)
	for _, it := range inv.Items {
		y = doc.GetY()
		cells := [5]string{
			"",
			it.Quantity.String(),
			money(it.UnitPrice),
			it.TaxRate.String() + "%",
			money(it.Amount),
		}
		for i := 1; i < len(cells); i++ {
			doc.SetXY(colX[i], y)
			doc.CellFormat(colW[i], 6, cells[i], "", 0, align(i), false, 0, "")
		}
		// Description last so it can wrap below the row.
		doc.SetXY(colX[0], y)
		doc.MultiCell(colW[0], 6, tr(it.Description), "", "L", false)
		doc.Ln(2)
	}
	doc.Ln(4)
	rule(doc)

	// Totals
	total(doc, "Subtotal:", money(inv.Subtotal))
	total(doc, "Tax:", money(inv.TaxAmount))
	if inv.Discount.IsPositive() {
		total(doc, "Discount:", "-"+money(inv.Discount))
	}
	doc.SetFont("Helvetica", "B", 12)
	total(doc, "Total:", money(inv.Total))

	// Notes
	if inv.Notes != "" {
		doc.Ln(8)
		doc.SetFont("Helvetica", "B", 10)
		line(doc, "Notes:")
		doc.SetFont("Helvetica", "", 10)
		doc.MultiCell(0, 5, tr(inv.Notes), "", "L", false)
	}
	if inv.Terms != "" {
		doc.Ln(4)
		doc.SetFont("Helvetica", "B", 10)
		line(doc, "Terms:")
		doc.SetFont("Helvetica", "", 10)
		doc.MultiCell(0, 5, tr(inv.Terms), "", "L", false)
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("render invoice %s: %w", inv.InvoiceNumber, err)
	}
	return buf.Bytes(), nil
}

func line(doc *gofpdf.Fpdf, s string) {
	doc.CellFormat(0, 5, s, "", 1, "L", false, 0, "")
}

func rule(doc *gofpdf.Fpdf) {
	y := doc.GetY()
	doc.Line(15, y, 195, y)
	doc.Ln(2)
}

func total(doc *gofpdf.Fpdf, label, value string) {
	y := doc.GetY()
	doc.SetXY(colX[3], y)
	doc.CellFormat(colW[3], 7, label, "", 0, "L", false, 0, "")
	doc.SetXY(colX[4], y)
	doc.CellFormat(colW[4], 7, value, "", 1, "R", false, 0, "")
}

func align(col int) string {
	if col == 0 {
		return "L"
	}
	return "R"
}

func money(d decimal.Decimal) string {
	return "$" + d.StringFixedBank(2)
}

func joinNonEmpty(sep string, parts ...string) string {
	out := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}
