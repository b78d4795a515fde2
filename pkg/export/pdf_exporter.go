package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

const (
	pdfMargin       = 10.0
	pdfBottomMargin = 15.0
	pdfHeaderHeight = 8.0
	pdfRowHeight    = 7.0
)

// PDFExporter lays a schedule out as a landscape A4 table. The header row is
// repeated on every page.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render produces the PDF bytes for the schedule.
func (e *PDFExporter) Render(doc Schedule) ([]byte, error) {
	pdf, err := e.build(doc)
	if err != nil {
		return nil, err
	}
	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *PDFExporter) build(doc Schedule) (*gofpdf.Fpdf, error) {
	if err := doc.validate(); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfBottomMargin, pdfMargin)
	pdf.SetAutoPageBreak(false, 0)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pageWidth, pageHeight := pdf.GetPageSize()
	widths := columnWidths(doc.Columns, pageWidth-2*pdfMargin)

	pdf.SetFooterFunc(func() {
		pdf.SetY(-pdfBottomMargin + 3)
		pdf.SetFont("Arial", "I", 8)
		pdf.CellFormat(0, 6, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	header := func() {
		pdf.SetFont("Arial", "B", 9)
		pdf.SetFillColor(225, 230, 240)
		for i, col := range doc.Columns {
			pdf.CellFormat(widths[i], pdfHeaderHeight, tr(col.Title), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 8)
		pdf.SetFillColor(245, 245, 245)
	}

	pdf.AddPage()
	if doc.Title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 9, tr(doc.Title), "", 1, "L", false, 0, "")
	}
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("%s, %d sessions", doc.Period(), len(doc.Rows))), "", 1, "L", false, 0, "")
	pdf.Ln(3)
	header()

	for i, row := range doc.Rows {
		if pdf.GetY()+pdfRowHeight > pageHeight-pdfBottomMargin {
			pdf.AddPage()
			header()
		}
		shaded := i%2 == 1
		for j, cell := range row {
			pdf.CellFormat(widths[j], pdfRowHeight, fitCell(pdf, tr(cell), widths[j]-2), "1", 0, "L", shaded, 0, "")
		}
		pdf.Ln(-1)
	}

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return pdf, nil
}

// fitCell truncates text with an ellipsis so it fits within max millimetres
// in the current font. text is already in the PDF code page.
func fitCell(pdf *gofpdf.Fpdf, text string, max float64) string {
	if pdf.GetStringWidth(text) <= max {
		return text
	}
	for len(text) > 0 && pdf.GetStringWidth(text+"...") > max {
		text = text[:len(text)-1]
	}
	return text + "..."
}
