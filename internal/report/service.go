// Package report renders a completed pre-screening record as a PDF for
// hospital staff.
package report

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/signintech/gopdf"

	"medical-prescreening/internal/prescreening"
)

type Service struct {
	fontPaths []string
}

func NewService() *Service {
	return &Service{
		// Common DejaVuSans locations across distros.
		fontPaths: []string{
			"/usr/share/fonts/ttf-dejavu/DejaVuSans.ttf",
			"/usr/share/fonts/dejavu/DejaVuSans.ttf",
			"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
		},
	}
}

// Render produces the PDF bytes for a pre-screening record.
func (s *Service) Render(rec prescreening.Record) ([]byte, error) {
	pdf := gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})
	pdf.AddPage()

	var fontErr error
	fontLoaded := false
	for _, path := range s.fontPaths {
		if err := pdf.AddTTFFont("DejaVu", path); err == nil {
			fontLoaded = true
			break
		} else {
			fontErr = err
		}
	}
	if !fontLoaded {
		return nil, fmt.Errorf("failed to load PDF font, is ttf-dejavu installed: %w", fontErr)
	}

	if err := pdf.SetFont("DejaVu", "", 20); err != nil {
		return nil, err
	}
	pdf.Cell(nil, "Pre-Screening Report")
	pdf.Br(30)

	if err := pdf.SetFont("DejaVu", "", 12); err != nil {
		return nil, err
	}
	pdf.Cell(nil, fmt.Sprintf("Date: %s", rec.Timestamp.Format("02.01.2006 15:04")))
	pdf.Br(15)
	pdf.Cell(nil, fmt.Sprintf("Patient: %s", rec.PatientName))
	pdf.Br(15)
	pdf.Cell(nil, fmt.Sprintf("Visit type: %s", rec.VisitType))
	pdf.Br(15)
	pdf.Cell(nil, fmt.Sprintf("Chief complaint: %s", rec.ChiefComplaint))
	pdf.Br(25)

	if err := s.section(&pdf, "Symptoms mentioned:"); err != nil {
		return nil, err
	}
	if len(rec.SymptomsMentioned) == 0 {
		pdf.Cell(nil, "- None recorded.")
		pdf.Br(15)
	}
	for _, symptom := range rec.SymptomsMentioned {
		pdf.Cell(nil, "- "+symptom)
		pdf.Br(12)
	}
	pdf.Br(10)

	if err := s.paragraph(&pdf, "Investigative history:", rec.InvestigativeHistory); err != nil {
		return nil, err
	}
	if err := s.paragraph(&pdf, "Possible diagnosis:", rec.PossibleDiagnosis); err != nil {
		return nil, err
	}
	if err := s.paragraph(&pdf, "Routing:",
		fmt.Sprintf("%s - %s", rec.SuggestedDepartment, rec.SuggestedDoctor)); err != nil {
		return nil, err
	}

	if len(rec.PreConsultationDiagnostics) > 0 {
		if err := s.section(&pdf, "Pre-consultation diagnostics:"); err != nil {
			return nil, err
		}
		categories := make([]string, 0, len(rec.PreConsultationDiagnostics))
		for cat := range rec.PreConsultationDiagnostics {
			categories = append(categories, cat)
		}
		sort.Strings(categories)
		for _, cat := range categories {
			line := fmt.Sprintf("- %s: ", cat)
			for i, test := range rec.PreConsultationDiagnostics[cat] {
				if i > 0 {
					line += ", "
				}
				line += test
			}
			lines, _ := pdf.SplitText(line, 500)
			for _, l := range lines {
				pdf.Cell(nil, l)
				pdf.Br(12)
			}
		}
		pdf.Br(10)
	}

	pdf.SetY(800)
	if err := pdf.SetFont("DejaVu", "", 9); err != nil {
		return nil, err
	}
	pdf.Cell(nil, fmt.Sprintf("Generated by %s", rec.AIModelUsed))

	var buf bytes.Buffer
	if _, err := pdf.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *Service) section(pdf *gopdf.GoPdf, title string) error {
	if err := pdf.SetFont("DejaVu", "", 14); err != nil {
		return err
	}
	pdf.Cell(nil, title)
	pdf.Br(15)
	return pdf.SetFont("DejaVu", "", 11)
}

func (s *Service) paragraph(pdf *gopdf.GoPdf, title, body string) error {
	if err := s.section(pdf, title); err != nil {
		return err
	}
	if body == "" {
		body = "-"
	}
	lines, _ := pdf.SplitText(body, 500)
	for _, l := range lines {
		pdf.Cell(nil, l)
		pdf.Br(12)
	}
	pdf.Br(10)
	return nil
}
