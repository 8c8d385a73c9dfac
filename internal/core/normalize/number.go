package normalize

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrEmptyNumber é devolvido quando o campo de valor está vazio.
var ErrEmptyNumber = errors.New("valor vazio")

var currencyPrefixes = []string{"US$", "R$", "$"}

// ParseBrazilianNumber converte valores no formato brasileiro ("R$ -1.234,56",
// "(402,80)", "1234.56") preservando o sinal.
//
// Separadores: com "," e "." presentes vale o último como decimal (1.234,56 e
// 1,234.56); só "," é decimal; um único "." já é canônico e vários "." sem
// vírgula são separadores de milhar.
func ParseBrazilianNumber(val string) (float64, error) {
	d, err := ParseDecimal(val)
	if err != nil {
		return 0, err
	}
	return d.InexactFloat64(), nil
}

// ParseAmountAbs devolve |ParseBrazilianNumber(val)|. Usado pelos leitores que
// carregam o sinal em outro campo (tipo de operação, coluna C/V, fatura).
func ParseAmountAbs(val string) (float64, error) {
	d, err := ParseDecimal(val)
	if err != nil {
		return 0, err
	}
	return d.Abs().InexactFloat64(), nil
}

// ParseDecimal is the decimal-valued core of ParseBrazilianNumber.
func ParseDecimal(val string) (decimal.Decimal, error) {
	s := strings.TrimSpace(val)
	s = strings.ReplaceAll(s, "\u00a0", "")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return decimal.Zero, ErrEmptyNumber
	}

	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = strings.TrimPrefix(strings.TrimSuffix(s, ")"), "(")
	}

	// sinal antes ou depois do símbolo da moeda: "-R$ 10", "R$ -10", "R$10-"
	s, neg = takeSign(s, neg)
	upper := strings.ToUpper(s)
	for _, p := range currencyPrefixes {
		if strings.HasPrefix(upper, p) {
			s = s[len(p):]
			break
		}
	}
	s, neg = takeSign(s, neg)
	if strings.HasSuffix(s, "-") {
		neg = true
		s = strings.TrimSuffix(s, "-")
	}

	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")
	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.ReplaceAll(s, ",", ".")
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		s = strings.ReplaceAll(s[:lastComma], ",", "") + "." + s[lastComma+1:]
	case strings.Count(s, ".") > 1:
		s = strings.ReplaceAll(s, ".", "")
	}

	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	clean := b.String()
	if clean == "" || clean == "." {
		return decimal.Zero, fmt.Errorf("valor inválido %q", val)
	}

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, fmt.Errorf("valor inválido %q: %w", val, err)
	}
	if neg {
		d = d.Neg()
	}
	return d, nil
}

func takeSign(s string, neg bool) (string, bool) {
	for strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		if s[0] == '-' {
			neg = true
		}
		s = s[1:]
	}
	return s, neg
}

// FormatBRL formata com duas casas e vírgula decimal, sem separador de milhar.
func FormatBRL(val float64) string {
	return strings.Replace(decimal.NewFromFloat(val).StringFixed(2), ".", ",", 1)
}
