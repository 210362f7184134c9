package extract

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// extractCSV renders each record as "header: value" pairs so column names
// stay attached to their values after chunking.
func extractCSV(content []byte) (string, error) {
	r := csv.NewReader(bytes.NewReader(content))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read CSV header: %w", err)
	}

	var buf strings.Builder
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read CSV record: %w", err)
		}
		buf.WriteString(pairFields(header, record))
		buf.WriteByte('\n')
	}
	return strings.TrimSpace(buf.String()), nil
}

// pairFields joins a record with its header as "header: value" pairs.
// Fields beyond the header, or under empty header cells, appear bare.
func pairFields(header, record []string) string {
	pairs := make([]string, 0, len(record))
	for i, field := range record {
		if i < len(header) && header[i] != "" {
			pairs = append(pairs, header[i]+": "+field)
		} else {
			pairs = append(pairs, field)
		}
	}
	return strings.Join(pairs, ", ")
}
