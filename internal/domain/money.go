package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// Money é um valor monetário opcional. Células vazias ficam com Valid=false.
type Money struct {
	Value decimal.Decimal
	Valid bool
}

// NewMoney cria um Money válido.
func NewMoney(d decimal.Decimal) Money {
	return Money{Value: d, Valid: true}
}

// MoneyFromFloat cria um Money válido a partir de um float.
func MoneyFromFloat(f float64) Money {
	return NewMoney(decimal.NewFromFloat(f))
}

// ParseMoney interpreta textos no padrão brasileiro ("R$ 1.234,56").
func ParseMoney(text string) Money {
	d, ok := ParseAmount(text)
	return Money{Value: d, Valid: ok}
}

// ParseAmount converte textos como "R$ 5.400,00", "10,0" ou "1234.56" em decimal.
// Quando há "." e "," o ponto é milhar e a vírgula é decimal; só vírgula é decimal;
// só ponto (ou nenhum) passa direto. Retorna false para texto não numérico.
func ParseAmount(text string) (decimal.Decimal, bool) {
	s := strings.ReplaceAll(text, "R$", "")
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	if s == "" {
		return decimal.Zero, false
	}

	hasDot := strings.Contains(s, ".")
	hasComma := strings.Contains(s, ",")
	switch {
	case hasDot && hasComma:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	case hasComma:
		s = strings.ReplaceAll(s, ",", ".")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// Add soma tratando valores vazios como zero; o resultado só é vazio se ambos forem.
func (m Money) Add(o Money) Money {
	if !m.Valid && !o.Valid {
		return Money{}
	}
	return NewMoney(m.Value.Add(o.Value))
}

// Sub subtrai tratando valores vazios como zero.
func (m Money) Sub(o Money) Money {
	if !m.Valid && !o.Valid {
		return Money{}
	}
	return NewMoney(m.Value.Sub(o.Value))
}

// Equal compara valor e presença.
func (m Money) Equal(o Money) bool {
	if m.Valid != o.Valid {
		return false
	}
	return !m.Valid || m.Value.Equal(o.Value)
}

// Cell retorna o valor como célula de planilha (número, ou vazio).
func (m Money) Cell() any {
	if !m.Valid {
		return ""
	}
	return m.Value.InexactFloat64()
}

func (m Money) String() string {
	if !m.Valid {
		return ""
	}
	return m.Value.String()
}

// MarshalJSON emite número ou null.
func (m Money) MarshalJSON() ([]byte, error) {
	if !m.Valid {
		return []byte("null"), nil
	}
	return []byte(m.Value.String()), nil
}

// UnmarshalJSON aceita número, texto no padrão brasileiro ou null.
func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*m = Money{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed := ParseMoney(s)
		if !parsed.Valid && strings.TrimSpace(s) != "" {
			return fmt.Errorf("valor monetário inválido: %q", s)
		}
		*m = parsed
		return nil
	}
	d, err := decimal.NewFromString(string(data))
	if err != nil {
		return fmt.Errorf("valor monetário inválido: %s", data)
	}
	*m = NewMoney(d)
	return nil
}
