package supplier

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"supplier-service/internal/domain"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// CombinedCSV gera a lista unificada em CSV separado por ";" e codificado em
// Windows-1252, para abrir direto no Excel.
func (r *repository) CombinedCSV(ctx context.Context) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	var buffer bytes.Buffer
	encoder := encoding.ReplaceUnsupported(charmap.Windows1252.NewEncoder())
	writer := csv.NewWriter(transform.NewWriter(&buffer, encoder))
	writer.Comma = ';'

	header := append([]string{domain.ColAba}, domain.SupplierColumns...)
	if err := writer.Write(header); err != nil {
		return nil, err
	}

	for _, row := range r.combined() {
		record := make([]string, 0, len(header))
		record = append(record, sanitizeForCSV(row.Sheet))
		for _, col := range domain.SupplierColumns {
			record = append(record, sanitizeForCSV(csvValue(row.Cell(col))))
		}
		if err := writer.Write(record); err != nil {
			return nil, err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("erro ao gerar CSV: %w", err)
	}
	return buffer.Bytes(), nil
}

// csvValue formata números com vírgula decimal e duas casas.
func csvValue(v any) string {
	switch val := v.(type) {
	case float64:
		return strings.Replace(fmt.Sprintf("%.2f", val), ".", ",", 1)
	case string:
		return val
	}
	return fmt.Sprint(v)
}

// sanitizeForCSV apara espaços e remove quebras de linha e tabs; outros
// caracteres de controle viram espaço.
func sanitizeForCSV(s string) string {
	s = strings.TrimFunc(s, unicode.IsSpace)
	if s == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		i += size

		if r == '\r' || r == '\n' || r == '\t' {
			continue
		}
		if r < 32 {
			b.WriteByte(' ')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
