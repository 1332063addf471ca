package ledger

import "fmt"

// InvoiceSequenceName names the persisted counter behind invoice numbers.
const InvoiceSequenceName = "invoice"

// FormatInvoiceNumber renders sequence value n as INV-NNNNN.
func FormatInvoiceNumber(n int64) string {
	return fmt.Sprintf("INV-%05d", n)
}
