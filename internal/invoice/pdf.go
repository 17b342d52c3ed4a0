// Package invoice renders a delivered order into a PDF document. It is a
// pure projection: same order in, same bytes out, nothing mutated.
package invoice

import (
	"bytes"
	"fmt"

	"bitbites-backend/internal/models"

	"github.com/go-pdf/fpdf"
)

const (
	pageLeft   = 15.0
	pageRight  = 195.0
	rowHeight  = 8.0
	pageBottom = 275.0
)

// Render lays out the invoice for the given order. The caller is expected to
// hand in an order with User and Lines.Product loaded.
func Render(order *models.Order) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	// document metadata follows the order, not the wall clock, so the same
	// order always renders to the same bytes
	pdf.SetCreationDate(order.CreatedAt)
	pdf.SetModificationDate(order.CreatedAt)
	pdf.SetTitle(fmt.Sprintf("Invoice #000-%d", order.ID), false)
	pdf.AddPage()

	// store header
	pdf.SetFont("Helvetica", "B", 20)
	pdf.Text(pageLeft, 20, "BITBITES STORE")

	pdf.SetFont("Helvetica", "", 10)
	pdf.Text(pageLeft, 27, "Tax ID: 1790001234001")
	pdf.Text(pageLeft, 32, "Av. Principal, Quito - Ecuador")
	pdf.Text(pageLeft, 37, "Phone: 099-BIT-SNACK")

	// invoice number and date
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Text(140, 20, fmt.Sprintf("INVOICE: #000-%d", order.ID))
	pdf.SetFont("Helvetica", "", 10)
	pdf.Text(140, 26, "Date: "+order.CreatedAt.Format("02/01/2006 15:04"))

	// customer box
	pdf.Rect(pageLeft, 45, pageRight-pageLeft, 18, "D")
	pdf.SetFont("Helvetica", "B", 11)
	pdf.Text(pageLeft+4, 52, "CUSTOMER:")
	pdf.SetFont("Helvetica", "", 11)
	pdf.Text(pageLeft+35, 52, order.User.FullName())
	pdf.Text(pageLeft+4, 59, "Email: "+order.User.Email)

	y := tableHeader(pdf, 72)

	pdf.SetFont("Helvetica", "", 11)
	for i := range order.Lines {
		line := &order.Lines[i]
		if y > pageBottom {
			pdf.AddPage()
			y = tableHeader(pdf, 20)
			pdf.SetFont("Helvetica", "", 11)
		}
		pdf.Text(pageLeft+2, y, fmt.Sprintf("%d", line.Quantity))
		pdf.Text(pageLeft+20, y, line.Product.Name)
		pdf.Text(140, y, "$"+line.UnitPrice.StringFixed(2))
		pdf.Text(170, y, "$"+line.Subtotal().StringFixed(2))
		y += rowHeight
	}

	pdf.Line(pageLeft, y, pageRight, y)
	pdf.SetFont("Helvetica", "B", 14)
	pdf.Text(140, y+10, "TOTAL:")
	pdf.Text(170, y+10, "$"+order.Total.StringFixed(2))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render invoice: %w", err)
	}
	return buf.Bytes(), nil
}

func tableHeader(pdf *fpdf.Fpdf, y float64) float64 {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Text(pageLeft+2, y, "Qty")
	pdf.Text(pageLeft+20, y, "Product")
	pdf.Text(140, y, "Unit Price")
	pdf.Text(170, y, "Subtotal")
	pdf.Line(pageLeft, y+2, pageRight, y+2)
	return y + rowHeight + 2
}
