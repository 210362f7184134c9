// Package extract converts uploaded document bytes into plain text and
// splits the text into word-window chunks for indexing.
package extract

import (
	"errors"
	"fmt"
	"mime"
	"strings"
	"unicode/utf8"
)

// Supported upload content types.
const (
	TypePDF   = "application/pdf"
	TypeDOCX  = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	TypeXLSX  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	TypePlain = "text/plain"
	TypeCSV   = "text/csv"
)

// ErrUnsupportedContentType marks uploads whose content type has no extractor.
var ErrUnsupportedContentType = errors.New("unsupported content type")

// Supported reports whether contentType has an extractor. Media type
// parameters such as charset are ignored.
func Supported(contentType string) bool {
	_, err := extractorFor(contentType)
	return err == nil
}

// Extract converts content into plain text according to contentType.
func Extract(contentType string, content []byte) (string, error) {
	fn, err := extractorFor(contentType)
	if err != nil {
		return "", err
	}
	return fn(content)
}

// TypeForExtension maps a filename extension (with leading dot) to the
// content type used by Extract. Returns "" for unknown extensions.
func TypeForExtension(ext string) string {
	switch strings.ToLower(ext) {
	case ".pdf":
		return TypePDF
	case ".docx":
		return TypeDOCX
	case ".xlsx":
		return TypeXLSX
	case ".txt", ".md":
		return TypePlain
	case ".csv":
		return TypeCSV
	}
	return ""
}

func extractorFor(contentType string) (func([]byte) (string, error), error) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.TrimSpace(strings.ToLower(contentType))
	}
	switch mediaType {
	case TypePDF:
		return extractPDF, nil
	case TypeDOCX:
		return extractDOCX, nil
	case TypeXLSX:
		return extractExcel, nil
	case TypePlain:
		return extractPlain, nil
	case TypeCSV:
		return extractCSV, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedContentType, contentType)
}

// extractPlain passes content through, replacing invalid UTF-8 sequences
// with the replacement character.
func extractPlain(content []byte) (string, error) {
	if !utf8.Valid(content) {
		return strings.ToValidUTF8(string(content), "�"), nil
	}
	return string(content), nil
}
