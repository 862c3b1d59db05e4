package reports

import (
	"fmt"
	"io"

	"github.com/MacJediWizard/availcheck/internal/models"
	"github.com/gomutex/godocx"
	"github.com/gomutex/godocx/docx"
)

const (
	docxHealthyColor   = "00FF00"
	docxUnhealthyColor = "FF0000"
	docxPercentSize    = 14
	docxTableStyle     = "TableGrid"
)

// DOCXRenderer writes a Word document with one section per operating system
// and domain.
type DOCXRenderer struct {
	threshold float64
}

// NewDOCXRenderer creates a document renderer colouring percentages against threshold.
func NewDOCXRenderer(threshold float64) *DOCXRenderer {
	if threshold < 0 || threshold > 100 {
		threshold = DefaultHealthyThreshold
	}
	return &DOCXRenderer{threshold: threshold}
}

// Extension returns the file extension produced by the renderer.
func (r *DOCXRenderer) Extension() string {
	return ".docx"
}

// Render writes the document to w.
func (r *DOCXRenderer) Render(w io.Writer, report *models.AvailabilityReport) error {
	doc, err := godocx.NewDocument()
	if err != nil {
		return fmt.Errorf("create document: %w", err)
	}

	if _, err := doc.AddHeading("AGENT AVAILABILITY REPORT", 0); err != nil {
		return fmt.Errorf("add title: %w", err)
	}
	doc.AddParagraph("Generated: " + report.GeneratedAt.Format(models.ReportTimeFormat))
	doc.AddParagraph(fmt.Sprintf("Reference time: %s, window: %s",
		report.ReferenceTime.Format(models.ReportTimeFormat), report.Window))

	for _, group := range report.Groups {
		if err := r.section(doc, group); err != nil {
			return err
		}
	}

	for _, os := range report.OperatingSystems {
		if !os.BaselineEmpty {
			continue
		}
		if _, err := doc.AddHeading(string(os.OS), 2); err != nil {
			return fmt.Errorf("add %s heading: %w", os.OS, err)
		}
		doc.AddParagraph("No baseline loaded.")
	}

	if len(report.MalformedTimestamps) > 0 {
		if _, err := doc.AddHeading("Malformed Timestamps", 2); err != nil {
			return fmt.Errorf("add malformed heading: %w", err)
		}
		rows := make([][]string, 0, len(report.MalformedTimestamps))
		for _, m := range report.MalformedTimestamps {
			inBaseline := "No"
			if m.InBaseline {
				inBaseline = "Yes"
			}
			rows = append(rows, []string{string(m.Key.OS), m.Key.Domain, m.Key.AgentName, m.RawTimestamp, inBaseline})
		}
		addTable(doc, []string{"OS", "Domain", "Agent Name", "Raw Value", "In Baseline"}, rows)
	}

	if err := doc.Write(w); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	return nil
}

func (r *DOCXRenderer) section(doc *docx.RootDoc, group models.GroupReport) error {
	s := group.Summary

	if _, err := doc.AddHeading(fmt.Sprintf("%s - %s", s.OS, s.Domain), 2); err != nil {
		return fmt.Errorf("add %s/%s heading: %w", s.OS, s.Domain, err)
	}
	if _, err := doc.AddHeading("Unavailable Hosts:", 3); err != nil {
		return fmt.Errorf("add %s/%s heading: %w", s.OS, s.Domain, err)
	}

	unavailable := group.UnavailableResults()
	if len(unavailable) == 0 {
		doc.AddParagraph("No unavailable hosts.")
	} else {
		rows := make([][]string, 0, len(unavailable))
		for _, res := range unavailable {
			rows = append(rows, []string{res.Key.AgentName, res.LastSeenString(), res.Detail()})
		}
		addTable(doc, []string{"Agent Name", "Last Available Date", "Reason"}, rows)
	}

	color := docxUnhealthyColor
	if s.AvailabilityPercent >= r.threshold {
		color = docxHealthyColor
	}
	p := doc.AddParagraph("")
	p.AddText("Availability: ").Bold(true)
	p.AddText(fmt.Sprintf("%.1f%%", s.AvailabilityPercent)).Color(color).Size(docxPercentSize)

	return nil
}

func addTable(doc *docx.RootDoc, header []string, rows [][]string) {
	table := doc.AddTable()
	table.Style(docxTableStyle)

	headerRow := table.AddRow()
	for _, h := range header {
		headerRow.AddCell().AddParagraph("").AddText(h).Bold(true)
	}
	for _, row := range rows {
		tableRow := table.AddRow()
		for _, cell := range row {
			tableRow.AddCell().AddParagraph(cell)
		}
	}
}
