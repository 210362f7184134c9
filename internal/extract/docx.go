package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"
)

const docxDefaultBodyPath = "word/document.xml"

const docxBodyContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"

// wtTag matches <w:t> text nodes, with or without attributes such as
// xml:space="preserve".
var wtTag = regexp.MustCompile(`<w:t[^>]*>([^<]*)</w:t>`)

// docxOverride matches the [Content_Types].xml Override that names the main
// document part, regardless of attribute order.
var docxOverride = regexp.MustCompile(
	`<Override[^>]+PartName="([^"]+)"[^>]+ContentType="` + regexp.QuoteMeta(docxBodyContentType) + `"` +
		`|<Override[^>]+ContentType="` + regexp.QuoteMeta(docxBodyContentType) + `"[^>]+PartName="([^"]+)"`)

// extractDOCX pulls all <w:t> text nodes out of the main document part of a
// .docx package and joins them with spaces, so the text survives regardless
// of paragraph and run attributes.
func extractDOCX(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("open DOCX: not a zip: %w", err)
	}

	body, err := readZipEntry(zr, docxBodyPath(zr))
	if err != nil {
		return "", fmt.Errorf("open DOCX: %w", err)
	}

	parts := wtTag.FindAllSubmatch(body, -1)
	var buf strings.Builder
	for _, p := range parts {
		text := strings.TrimSpace(string(p[1]))
		if text == "" {
			continue
		}
		if buf.Len() > 0 {
			buf.WriteByte(' ')
		}
		buf.WriteString(text)
	}
	return buf.String(), nil
}

// docxBodyPath resolves the main document part from [Content_Types].xml,
// falling back to the conventional word/document.xml.
func docxBodyPath(zr *zip.Reader) string {
	types, err := readZipEntry(zr, "[Content_Types].xml")
	if err != nil {
		return docxDefaultBodyPath
	}
	m := docxOverride.FindSubmatch(types)
	if m == nil {
		return docxDefaultBodyPath
	}
	part := string(m[1])
	if part == "" {
		part = string(m[2])
	}
	return strings.TrimPrefix(part, "/")
}

func readZipEntry(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("%s not found", name)
}
