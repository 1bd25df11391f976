// README: Printable quote sheet (PDF) for a stored estimate.
package estimate

import (
	"bytes"
	"context"
	"fmt"
	"strconv"

	"github.com/phpdave11/gofpdf"

	"charter/internal/types"
)

const sheetFontFamily = "sheet"

// UseSheetFont makes quote sheets render with a UTF-8 TrueType font so
// Hangul addresses print correctly. Without it the core Helvetica font is used.
func (s *Service) UseSheetFont(path string) {
	s.sheetFont = path
}

// Sheet renders the owner's estimate as a PDF and returns it with a filename.
func (s *Service) Sheet(ctx context.Context, id, owner types.ID) ([]byte, string, error) {
	e, err := s.Get(ctx, id, owner)
	if err != nil {
		return nil, "", err
	}
	body, err := buildSheetPDF(e, s.sheetFont)
	if err != nil {
		return nil, "", fmt.Errorf("estimate.Service.Sheet: %w", err)
	}
	return body, fmt.Sprintf("ESTIMATE_%s.pdf", e.ID), nil
}

func buildSheetPDF(e *Estimate, fontPath string) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Charter estimate", true)
	family := "Helvetica"
	if fontPath != "" {
		pdf.AddUTF8Font(sheetFontFamily, "", fontPath)
		pdf.AddUTF8Font(sheetFontFamily, "B", fontPath)
		family = sheetFontFamily
	}
	pdf.AddPage()

	pdf.SetFont(family, "B", 18)
	pdf.Cell(0, 10, "CHARTER ESTIMATE")
	pdf.Ln(12)

	pdf.SetFont(family, "", 11)
	line := func(label, value string) {
		pdf.CellFormat(45, 7, label, "", 0, "", false, 0, "")
		pdf.MultiCell(0, 7, value, "", "", false)
	}
	line("Estimate", string(e.ID))
	line("Created", e.CreatedAt.Format(DateTimeLayout))
	line("Status", string(e.Status))
	pdf.Ln(4)

	pdf.SetFont(family, "B", 12)
	pdf.Cell(0, 7, "Trip")
	pdf.Ln(8)
	pdf.SetFont(family, "", 11)
	line("Kind", string(e.TripKind))
	line("From", e.Departure.Name)
	if e.Stopover != nil {
		line("Via", e.Stopover.Name)
	}
	line("To", e.Destination.Name)
	line("Departure", e.DepartureAt.Format(DateTimeLayout))
	if e.ReturnAt != nil {
		line("Return", e.ReturnAt.Format(DateTimeLayout))
	}
	passengers := "undetermined"
	if e.PassengerCount != nil {
		passengers = strconv.Itoa(*e.PassengerCount)
	}
	line("Passengers", passengers)
	line("Vehicle", fmt.Sprintf("%s, %d seats x %d", e.Vehicle.Class, e.Vehicle.Seats, e.Vehicle.Count))
	line("Purpose", string(e.Purpose))
	if e.DriverAccompanied {
		line("Driver", "accompanies the group")
	}
	if e.Requests != "" {
		line("Requests", e.Requests)
	}
	pdf.Ln(4)

	pdf.SetFont(family, "B", 12)
	pdf.Cell(0, 7, "Price")
	pdf.Ln(8)
	pdf.SetFont(family, "", 11)
	line("Quoted", e.Quote.Price.String())
	if e.PriceChanged {
		line("Adjusted", e.Price.String())
	}
	if e.Payment != nil {
		line("Payment", fmt.Sprintf("%s (%s)", e.Payment.Method, e.Payment.PayerName))
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
