package ingestion_engine

import (
	"bytes"
	"fmt"
)

// buildPDF writes a one-page PDF whose page content stream is content. The
// page carries a WinAnsi Helvetica font as /F1.
func buildPDF(content string) []byte {
	objs := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 5 0 R >> >> /Contents 4 0 R >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, o := range objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, o)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objs)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)
	return buf.Bytes()
}

// blankPDF is a well-formed PDF with an empty page.
func blankPDF() []byte { return buildPDF("") }

// textPDF is a PDF with a single line of text on its page.
func textPDF(line string) []byte {
	return buildPDF(fmt.Sprintf("BT /F1 12 Tf 72 712 Td (%s) Tj ET", line))
}

// brokenPagePDF parses, but its page content makes text extraction fail.
func brokenPagePDF() []byte { return buildPDF("BT /F1 Tf ET") }
