package idgen

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"unicode"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// randSuffix sorteia o sufixo numérico de três dígitos.
var randSuffix = func() int { return 100 + rand.IntN(900) }

// letters remove acentos, passa para maiúsculas e mantém só letras. Letras sem
// forma ASCII (ß, Ø) ficam como estão.
func letters(str string) []rune {
	t := transform.Chain(norm.NFD, transform.RemoveFunc(func(r rune) bool {
		return unicode.Is(unicode.Mn, r)
	}))
	result, _, _ := transform.String(t, str)

	var out []rune
	for _, r := range strings.ToUpper(result) {
		if unicode.IsLetter(r) {
			out = append(out, r)
		}
	}
	return out
}

func prefix(str string, n int) string {
	l := letters(str)
	if len(l) > n {
		l = l[:n]
	}
	return string(l)
}

// SupplierID sugere um ID de fornecedor: três primeiras letras do nome mais um
// número entre 100 e 999. Não há garantia de unicidade; o usuário pode alterar.
func SupplierID(name string) string {
	p := prefix(name, 3)
	if p == "" {
		return ""
	}
	return fmt.Sprintf("%s%d", p, randSuffix())
}

// ProductID sugere um ID de produto a partir da descrição e da categoria.
func ProductID(description, category string) string {
	d := prefix(description, 3)
	c := prefix(category, 3)
	if d == "" || c == "" {
		return ""
	}
	return fmt.Sprintf("%s%s%d", d, c, randSuffix())
}
