package tickets

import (
	"bytes"
	"fmt"

	"hackconnect/models"

	"github.com/phpdave11/gofpdf"
)

// RenderPDF lays out a printable A4 ticket with the QR code on the right.
func RenderPDF(t models.Ticket, qrPNG []byte) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()

	pdf.SetFillColor(245, 245, 255)
	pdf.SetFont("Arial", "B", 20)
	pdf.CellFormat(0, 15, tr(t.EventTitle), "", 1, "C", true, 0, "")
	pdf.Ln(5)

	pdf.SetFont("Arial", "", 12)
	pdf.MultiCell(110, 9, tr(fmt.Sprintf(
		"Ticket ID: %s\nEvent ID: %s\nWallet: %s\nTier: %s\nPrice: %.2f\nPurchased: %s\nStatus: %s",
		t.ID,
		t.EventID,
		t.WalletAddress,
		t.TierName,
		t.PriceBought,
		t.PurchaseTimestamp.Format("02 Jan 2006 15:04 MST"),
		t.Status,
	)), "", "L", false)

	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", opts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("qr", 135, 40, 55, 55, false, opts, 0, "")

	pdf.SetY(-30)
	pdf.SetFont("Arial", "I", 10)
	pdf.CellFormat(0, 10, "Show this code at the entrance. Each ticket can be checked in once.", "T", 0, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("tickets.RenderPDF: %w", err)
	}
	return buf.Bytes(), nil
}
