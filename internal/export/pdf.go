package export

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-pdf/fpdf"

	"rtlscribe/internal/logging"
	"rtlscribe/internal/metrics"
)

const (
	fontFamily   = "Arabic"
	fallbackFont = "Helvetica"

	titleArabic   = "نتيجة التحويل"
	titleFallback = "Transcription Result"

	bodySize   = 14.0
	titleSize  = 18.0
	footerSize = 9.0
	lineHeight = 8.0
)

// Document is the text to export. CreatedAt defaults to the render time.
type Document struct {
	Title     string
	Text      string
	CreatedAt time.Time
}

// Shaper turns connected-script text into presentation forms, in logical order.
type Shaper interface {
	Shape(text string) string
}

// Orderer converts one wrapped line to visual order.
type Orderer interface {
	Reorder(line string, base Direction) string
}

// ExportError reports a failed export. The source text is never modified.
type ExportError struct {
	Format string
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("%s export failed: %v", e.Format, e.Err)
}

func (e *ExportError) Unwrap() error { return e.Err }

// PDFExporter renders right-to-left documents to A4 PDF
type PDFExporter struct {
	fontPath string
	shaper   Shaper
	orderer  Orderer
	compress bool
	metrics  *metrics.Metrics
	logger   *log.Logger
}

// PDFOption configures a PDFExporter
type PDFOption func(*PDFExporter)

// WithShaper replaces the default Arabic shaper.
func WithShaper(s Shaper) PDFOption {
	return func(e *PDFExporter) { e.shaper = s }
}

// WithOrderer replaces the default bidi orderer.
func WithOrderer(o Orderer) PDFOption {
	return func(e *PDFExporter) { e.orderer = o }
}

// WithCompression toggles stream compression. Tests turn it off to read
// the content stream.
func WithCompression(on bool) PDFOption {
	return func(e *PDFExporter) { e.compress = on }
}

// WithMetrics counts font fallbacks.
func WithMetrics(m *metrics.Metrics) PDFOption {
	return func(e *PDFExporter) { e.metrics = m }
}

// NewPDFExporter creates an exporter that embeds the TrueType font at
// fontPath. An empty or unusable path falls back to Helvetica.
func NewPDFExporter(fontPath string, opts ...PDFOption) *PDFExporter {
	e := &PDFExporter{
		fontPath: fontPath,
		shaper:   ShaperFunc(Shape),
		orderer:  OrdererFunc(Reorder),
		compress: true,
		logger:   logging.For("export"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// page holds the per-render state
type page struct {
	pdf       *fpdf.Fpdf
	family    string
	translate func(string) string
	width     float64
}

// Render writes doc as a PDF to w. Each paragraph is shaped once, wrapped in
// logical order, and each wrapped line is reordered once before placement.
func (e *PDFExporter) Render(w io.Writer, doc Document) error {
	created := doc.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(e.compress)
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 20)
	pdf.SetCreator("rtlscribe", false)
	pdf.SetCreationDate(created)
	pdf.AliasNbPages("{nb}")

	p := &page{pdf: pdf, translate: func(s string) string { return s }}
	if e.loadFont(pdf) {
		p.family = fontFamily
	} else {
		p.family = fallbackFont
		p.translate = pdf.UnicodeTranslatorFromDescriptor("")
	}

	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont(p.family, "", footerSize)
		pdf.SetTextColor(128, 128, 128)
		pdf.CellFormat(0, 6, fmt.Sprintf("%d / {nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()
	pageW, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	p.width = pageW - left - right

	title := strings.TrimSpace(doc.Title)
	if title == "" {
		title = titleFallback
		if p.family == fontFamily {
			title = titleArabic
		}
	}
	pdf.SetFont(p.family, "", titleSize)
	pdf.SetFillColor(30, 60, 110)
	pdf.SetTextColor(255, 255, 255)
	for _, line := range e.layout(p, title) {
		pdf.CellFormat(p.width, 12, line.text, "", 1, "C", true, 0, "")
	}
	pdf.Ln(6)

	pdf.SetFont(p.family, "", bodySize)
	pdf.SetTextColor(0, 0, 0)
	for _, line := range e.layout(p, doc.Text) {
		if line.text == "" {
			pdf.Ln(lineHeight / 2)
			continue
		}
		pdf.CellFormat(p.width, lineHeight, line.text, "", 1, line.align, false, 0, "")
	}

	pdf.Ln(4)
	y := pdf.GetY()
	pdf.SetDrawColor(160, 160, 160)
	pdf.Line(left, y, pageW-right, y)
	pdf.Ln(3)

	pdf.SetFont(p.family, "", footerSize)
	pdf.SetTextColor(100, 100, 100)
	pdf.CellFormat(p.width, 6, p.translate("Created: "+created.Format("2006-01-02 15:04:05")), "", 1, "L", false, 0, "")

	if err := pdf.Output(w); err != nil {
		return &ExportError{Format: "pdf", Err: err}
	}
	return nil
}

// loadFont registers the configured TrueType font. It reports false, after
// logging, when the default font must be used instead.
func (e *PDFExporter) loadFont(pdf *fpdf.Fpdf) (ok bool) {
	fallback := func(reason string, err error) bool {
		e.logger.Warn("using default font", "reason", reason, "path", e.fontPath, "err", err)
		e.metrics.ObserveFontFallback()
		return false
	}

	if e.fontPath == "" {
		return fallback("no font configured", nil)
	}
	data, err := os.ReadFile(e.fontPath)
	if err != nil {
		return fallback("font not readable", err)
	}

	defer func() {
		if r := recover(); r != nil {
			pdf.ClearError()
			ok = fallback("font parse panic", fmt.Errorf("%v", r))
		}
	}()

	pdf.AddUTF8FontFromBytes(fontFamily, "", data)
	// an unparsable font is only detected when it is selected
	pdf.SetFont(fontFamily, "", bodySize)
	if pdf.Err() {
		err := pdf.Error()
		pdf.ClearError()
		return fallback("font failed to load", err)
	}
	return true
}

type placedLine struct {
	text  string
	align string
}

// layout shapes, wraps and orders text for the current font. Empty
// paragraphs yield an empty line.
func (e *PDFExporter) layout(p *page, text string) []placedLine {
	measure := func(s string) float64 { return p.pdf.GetStringWidth(p.translate(s)) }
	avail := p.width - 2*p.pdf.GetCellMargin()

	var out []placedLine
	text = strings.ReplaceAll(text, "\r\n", "\n")
	for _, para := range strings.Split(text, "\n") {
		if strings.TrimSpace(para) == "" {
			out = append(out, placedLine{})
			continue
		}

		base := BaseDirection(para)
		align := "R"
		if base == LeftToRight {
			align = "L"
		}

		shaped := e.shaper.Shape(para)
		for _, line := range wrap(shaped, avail, measure) {
			out = append(out, placedLine{
				text:  p.translate(e.orderer.Reorder(line, base)),
				align: align,
			})
		}
	}
	return out
}

// wrap splits text into lines no wider than width, breaking at spaces and
// inside words only when a single word is too long.
func wrap(text string, width float64, measure func(string) float64) []string {
	var lines []string
	var cur string

	for _, word := range strings.Fields(text) {
		if measure(word) > width {
			if cur != "" {
				lines = append(lines, cur)
				cur = ""
			}
			chunks := breakWord(word, width, measure)
			lines = append(lines, chunks[:len(chunks)-1]...)
			cur = chunks[len(chunks)-1]
			continue
		}

		candidate := word
		if cur != "" {
			candidate = cur + " " + word
		}
		if cur != "" && measure(candidate) > width {
			lines = append(lines, cur)
			cur = word
			continue
		}
		cur = candidate
	}
	if cur != "" {
		lines = append(lines, cur)
	}
	return lines
}

func breakWord(word string, width float64, measure func(string) float64) []string {
	var chunks []string
	var cur []rune
	for _, r := range word {
		if len(cur) > 0 && measure(string(append(cur, r))) > width {
			chunks = append(chunks, string(cur))
			cur = cur[:0:0]
		}
		cur = append(cur, r)
	}
	return append(chunks, string(cur))
}
