// internal/core/normalizer/normalizer.go
package normalizer

import (
	"strconv"
	"strings"
	"time"

	"supplier-service/internal/domain"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DateLayout é o formato canônico de data das planilhas (DD/MM/AAAA).
const DateLayout = "02/01/2006"

// layouts aceitos por FormatDateToText, em ordem de tentativa.
var dateLayouts = []string{
	"2/1/2006",
	"2/1/2006 15:04:05",
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

// Faixa de seriais do Excel aceitos como data: de 01/01/1950 a 31/12/9999.
// Números menores, como um ano ("2025") ou um dia ("12"), não são datas.
const (
	minExcelSerial = 18264
	maxExcelSerial = 2958465
)

var brPrinter = message.NewPrinter(language.BrazilianPortuguese)

// ParseCurrency converte textos como "R$ 5.400,00", "10,0" ou "1234.56" em decimal.
// Retorna false para texto não numérico. As regras ficam em domain.ParseAmount.
func ParseCurrency(text string) (decimal.Decimal, bool) {
	return domain.ParseAmount(text)
}

// FormatCurrency formata um valor no padrão brasileiro (R$ 1.234,56).
func FormatCurrency(d decimal.Decimal) string {
	return brPrinter.Sprintf("R$ %.2f", d.InexactFloat64())
}

// FormatDate formata uma data como DD/MM/AAAA; data zero vira texto vazio.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

// ParseDateText faz o parse estrito de DD/MM/AAAA. Texto vazio ou mal formado
// retorna false, nunca erro.
func ParseDateText(text string) (time.Time, bool) {
	s := strings.TrimSpace(text)
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// FormatDateToText canoniza um valor de célula com cara de data para DD/MM/AAAA.
// Aceita DD/MM/AAAA (com ou sem zeros), ISO e serial do Excel a partir de 1950.
// O que não for reconhecido vira texto vazio.
func FormatDateToText(value string) string {
	s := strings.TrimSpace(value)
	if s == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(DateLayout)
		}
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f >= minExcelSerial && f <= maxExcelSerial {
		return ExcelSerialToDate(f).Format(DateLayout)
	}
	return ""
}

// DateCellText é FormatDateToText para células já gravadas: o que não for
// reconhecido como data volta como estava, sem espaços nas pontas, em vez de
// ser apagado.
func DateCellText(value string) string {
	if text := FormatDateToText(value); text != "" {
		return text
	}
	return strings.TrimSpace(value)
}

// ExcelSerialToDate converte o serial de data do Excel (base 1899-12-30).
func ExcelSerialToDate(serial float64) time.Time {
	base := time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)
	frac := serial - float64(int64(serial))
	duration := time.Duration(int64(serial)*24) * time.Hour
	duration += time.Duration(frac * 24 * float64(time.Hour))
	return base.Add(duration)
}

// CoerceText garante que colunas como CNPJ e Contato fiquem como texto, desfazendo
// notação científica e o ".0" que aparecem quando a célula foi gravada como número.
func CoerceText(value string) string {
	s := strings.TrimSpace(value)
	if s == "" {
		return ""
	}
	if !strings.ContainsAny(s, "eE") && !strings.HasSuffix(s, ".0") {
		return s
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return s
	}
	if !d.Equal(d.Truncate(0)) {
		return s
	}
	return d.Truncate(0).String()
}
