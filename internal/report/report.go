// Package report renders a measurement record into a PDF document.
package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/patrickmn/go-cache"

	"smartbreath-backend/internal/apperr"
	"smartbreath-backend/internal/model"
)

// Service renders record reports. Records are immutable once created, so
// rendered documents are cached by record id.
type Service struct {
	cache *cache.Cache
}

// NewService creates a report service whose cached documents expire after ttl.
func NewService(ttl time.Duration) *Service {
	return &Service{
		cache: cache.New(ttl, 2*ttl),
	}
}

// Render produces the PDF for a record and its parent machine. Rendering
// failures are unexpected errors, distinct from data errors.
func (s *Service) Render(record *model.Record) ([]byte, error) {
	if record.Machine == nil {
		return nil, apperr.Unexpected("record is missing its machine aggregate", nil)
	}

	if doc, found := s.cache.Get(record.ID); found {
		return doc.([]byte), nil
	}

	doc, err := render(record)
	if err != nil {
		return nil, apperr.Unexpected("rendering report failed", err)
	}

	s.cache.Set(record.ID, doc, cache.DefaultExpiration)
	return doc, nil
}

func render(record *model.Record) ([]byte, error) {
	machine := record.Machine

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 12, "Breathing Measurement Report", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, "Device", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 7, fmt.Sprintf("Name: %s", machine.DeviceName), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 7, fmt.Sprintf("Model: %s", machine.Model), "", 1, "L", false, 0, "")
	if machine.Owner != nil {
		pdf.CellFormat(0, 7, fmt.Sprintf("Owner: %s %s (%s)",
			machine.Owner.FirstName, machine.Owner.LastName, machine.Owner.Username), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, "Measurement", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 7, fmt.Sprintf("Measured at: %s", record.MeasuredAt.Format(time.RFC1123)), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	rows := []struct {
		label string
		value string
	}{
		{"SpO2", fmt.Sprintf("%d %%", record.SpO2)},
		{"FEV1", fmt.Sprintf("%.2f L", record.FEV1)},
		{"FVC", fmt.Sprintf("%.2f L", record.FVC)},
		{"PEF", fmt.Sprintf("%.2f L/min", record.PEF)},
		{"FEV1/FVC", fmt.Sprintf("%.4f", record.Fev1Fvc)},
	}

	for _, row := range rows {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(50, 8, row.label, "1", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.CellFormat(60, 8, row.value, "1", 1, "L", false, 0, "")
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.CellFormat(0, 6, fmt.Sprintf("Record %s, generated %s", record.ID, time.Now().Format(time.RFC1123)), "", 1, "L", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
