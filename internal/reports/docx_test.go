package reports

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"strings"
	"testing"

	"github.com/MacJediWizard/availcheck/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// docxRun is one text run of word/document.xml with the formatting the
// renderer sets.
type docxRun struct {
	text  string
	bold  bool
	color string
	size  string
}

type docxContent struct {
	runs   []docxRun
	tables int
}

func (c docxContent) text() string {
	var b strings.Builder
	for _, r := range c.runs {
		b.WriteString(r.text)
		b.WriteString("\n")
	}
	return b.String()
}

func (c docxContent) find(text string) (docxRun, bool) {
	for _, r := range c.runs {
		if r.text == text {
			return r, true
		}
	}
	return docxRun{}, false
}

func attrVal(el xml.StartElement) string {
	for _, a := range el.Attr {
		if a.Name.Local == "val" {
			return a.Value
		}
	}
	return ""
}

// readDOCX unzips a rendered document, checks the package parts and walks
// word/document.xml, failing on malformed XML.
func readDOCX(t *testing.T, data []byte) docxContent {
	t.Helper()

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	names := make(map[string]*zip.File)
	for _, f := range zr.File {
		names[f.Name] = f
	}
	for _, part := range []string{"[Content_Types].xml", "_rels/.rels", "word/styles.xml"} {
		assert.Contains(t, names, part)
	}

	doc, ok := names["word/document.xml"]
	require.True(t, ok)
	rc, err := doc.Open()
	require.NoError(t, err)
	defer rc.Close()

	body, err := io.ReadAll(rc)
	require.NoError(t, err)

	var content docxContent
	var current *docxRun
	inText := false

	dec := xml.NewDecoder(bytes.NewReader(body))
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		require.NoError(t, err, "document.xml must be well formed")

		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "tbl":
				content.tables++
			case "r":
				current = &docxRun{}
			case "b":
				if current != nil {
					v := attrVal(el)
					current.bold = v == "" || v == "true" || v == "1" || v == "on"
				}
			case "color":
				if current != nil {
					current.color = attrVal(el)
				}
			case "sz":
				if current != nil {
					current.size = attrVal(el)
				}
			case "t":
				inText = true
			}
		case xml.CharData:
			if inText && current != nil {
				current.text += string(el)
			}
		case xml.EndElement:
			switch el.Name.Local {
			case "t":
				inText = false
			case "r":
				if current != nil && current.text != "" {
					content.runs = append(content.runs, *current)
				}
				current = nil
			}
		}
	}
	return content
}

func TestDOCXRenderer_Render(t *testing.T) {
	report := sampleReport(t)

	var buf bytes.Buffer
	require.NoError(t, NewDOCXRenderer(DefaultHealthyThreshold).Render(&buf, report))
	content := readDOCX(t, buf.Bytes())
	text := content.text()

	assert.Contains(t, text, "AGENT AVAILABILITY REPORT")
	assert.Contains(t, text, "Windows - corp")
	assert.Contains(t, text, "Windows - lab")
	assert.Contains(t, text, "Linux - corp")
	assert.Contains(t, text, "WS02\n")
	assert.Contains(t, text, "Not in availability feed")
	assert.Contains(t, text, "Malformed timestamp")
	assert.NotContains(t, text, "WS01\n", "available hosts are not listed")
	assert.Less(t, strings.Index(text, "Windows - corp"), strings.Index(text, "Linux - corp"))

	// Three unavailable-host tables plus the malformed timestamp table.
	assert.Equal(t, 4, content.tables)

	label, ok := content.find("Availability: ")
	require.True(t, ok)
	assert.True(t, label.bold)

	percent, ok := content.find("50.0%")
	require.True(t, ok)
	assert.Equal(t, docxUnhealthyColor, percent.color)
	assert.Equal(t, "28", percent.size)

	header, ok := content.find("Last Available Date")
	require.True(t, ok)
	assert.True(t, header.bold)
}

func TestDOCXRenderer_HealthyGroup(t *testing.T) {
	report := &models.AvailabilityReport{
		Groups: []models.GroupReport{{
			Summary: models.GroupSummary{OS: models.OSLinux, Domain: "R&D <lab>", TotalHosts: 4, AvailableHosts: 3, AvailabilityPercent: 75},
			Results: []models.EvaluationResult{{
				Key:    models.NewAgentKey(models.OSLinux, "R&D <lab>", "db01"),
				Status: models.StatusUnavailable,
				Reason: models.ReasonNotInAvailabilityFeed,
			}},
		}},
	}

	var buf bytes.Buffer
	require.NoError(t, NewDOCXRenderer(DefaultHealthyThreshold).Render(&buf, report))
	content := readDOCX(t, buf.Bytes())

	assert.Contains(t, content.text(), "Linux - R&D <lab>")
	percent, ok := content.find("75.0%")
	require.True(t, ok)
	assert.Equal(t, docxHealthyColor, percent.color)
}

func TestDOCXRenderer_NoUnavailableHosts(t *testing.T) {
	report := &models.AvailabilityReport{
		Groups: []models.GroupReport{{
			Summary: models.GroupSummary{OS: models.OSWindows, Domain: "corp", TotalHosts: 1, AvailableHosts: 1, AvailabilityPercent: 100},
			Results: []models.EvaluationResult{{
				Key:    models.NewAgentKey(models.OSWindows, "corp", "WS01"),
				Status: models.StatusAvailable,
				Reason: models.ReasonAvailable,
			}},
		}},
		OperatingSystems: []models.OSSummary{{OS: models.OSLinux, BaselineEmpty: true}},
	}

	var buf bytes.Buffer
	require.NoError(t, NewDOCXRenderer(DefaultHealthyThreshold).Render(&buf, report))
	content := readDOCX(t, buf.Bytes())

	assert.Contains(t, content.text(), "No unavailable hosts.")
	assert.Contains(t, content.text(), "No baseline loaded.")
	assert.Equal(t, 0, content.tables)
}
