package documents

import (
	"bytes"
	"fmt"
	"time"

	"github.com/chachabrian/tourbook-backend/internal/models"
	"github.com/phpdave11/gofpdf"
)

func newPDF(title string) *gofpdf.Fpdf {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title, false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, title)
	pdf.Ln(12)
	return pdf
}

func line(pdf *gofpdf.Fpdf, s string) {
	pdf.Cell(0, 7, s)
	pdf.Ln(7)
}

func heading(pdf *gofpdf.Fpdf, s string) {
	pdf.Ln(3)
	pdf.SetFont("Helvetica", "B", 12)
	line(pdf, s)
	pdf.SetFont("Helvetica", "", 12)
}

func output(pdf *gofpdf.Fpdf) ([]byte, error) {
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func eventLines(pdf *gofpdf.Fpdf, b models.Booking) {
	line(pdf, "Venue    : "+safe(b.VenueName, "-"))
	line(pdf, "Location : "+venuePlace(b))
	line(pdf, "Date     : "+eventDate(b))
	line(pdf, "Time     : "+eventTime(b))
}

func buildContractPDF(b models.Booking, artist string, now time.Time) ([]byte, string, error) {
	pdf := newPDF("PERFORMANCE AGREEMENT")

	pdf.SetFont("Helvetica", "", 12)
	line(pdf, "Agreement No : "+documentNumber("CTR", b, now))
	line(pdf, "Issued       : "+now.Format("2006-01-02"))

	heading(pdf, "Parties")
	line(pdf, "Artist : "+artist)
	line(pdf, "Venue  : "+safe(b.VenueName, "-"))

	heading(pdf, "Engagement")
	eventLines(pdf, b)

	heading(pdf, "Compensation")
	line(pdf, "Guarantee : "+formatMoney(b.OfferAmount))

	if b.Notes != nil && *b.Notes != "" {
		heading(pdf, "Additional terms")
		pdf.MultiCell(0, 6, *b.Notes, "", "", false)
	}

	pdf.Ln(16)
	line(pdf, "Artist signature: ______________________")
	pdf.Ln(6)
	line(pdf, "Venue signature:  ______________________")

	data, err := output(pdf)
	if err != nil {
		return nil, "", err
	}
	return data, fmt.Sprintf("contract_%s.pdf", safeFilenamePart(b.VenueName)), nil
}

func buildInvoicePDF(b models.Booking, artist string, now time.Time) ([]byte, string, error) {
	pdf := newPDF("INVOICE")

	pdf.SetFont("Helvetica", "", 12)
	line(pdf, "Invoice No : "+documentNumber("INV", b, now))
	line(pdf, "Date       : "+now.Format("2006-01-02"))
	line(pdf, "From       : "+artist)

	heading(pdf, "Billed to:")
	line(pdf, safe(b.VenueName, "-"))
	line(pdf, venuePlace(b))
	if b.VenueEmail != "" {
		line(pdf, b.VenueEmail)
	}

	heading(pdf, "Details:")
	pdf.MultiCell(0, 6, fmt.Sprintf("1) Live performance by %s on %s at %s", artist, eventDate(b), eventTime(b)), "", "", false)
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Total: "+formatMoney(b.OfferAmount))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, "Payment is due before the event date.", "", "", false)

	data, err := output(pdf)
	if err != nil {
		return nil, "", err
	}
	return data, fmt.Sprintf("invoice_%s.pdf", safeFilenamePart(b.VenueName)), nil
}

func buildAssetSheetPDF(b models.Booking, artist string) ([]byte, string, error) {
	pdf := newPDF("EVENT SHEET")

	pdf.SetFont("Helvetica", "B", 14)
	line(pdf, artist)
	pdf.SetFont("Helvetica", "", 12)
	eventLines(pdf, b)

	heading(pdf, "Announcement")
	pdf.MultiCell(0, 6, fmt.Sprintf("%s live at %s, %s. %s.", artist, safe(b.VenueName, "-"), venuePlace(b), eventDate(b)), "", "", false)

	data, err := output(pdf)
	if err != nil {
		return nil, "", err
	}
	return data, fmt.Sprintf("event_sheet_%s.pdf", safeFilenamePart(b.VenueName)), nil
}
