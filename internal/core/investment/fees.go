package investment

import (
	"regexp"
	"strings"

	"import-service/internal/core/normalize"
	"import-service/internal/domain"

	"github.com/shopspring/decimal"
)

var (
	noteAmountRegex = regexp.MustCompile(`\d{1,3}(?:\.\d{3})*,\d{2,}`)
	irrfBaseRegex   = regexp.MustCompile(`base\s*r\$\s*\d{1,3}(?:\.\d{3})*,\d{2,}`)
)

type feeLabel struct {
	label *regexp.Regexp
	set   func(f *domain.NoteFees, v float64)
}

// Rótulos do quadro de resumo financeiro, sobre texto minúsculo e sem acentos.
var feeLabels = []feeLabel{
	{regexp.MustCompile(`taxa de liquidacao|liquidacao`), func(f *domain.NoteFees, v float64) { f.Settlement = v }},
	{regexp.MustCompile(`taxa de registro`), func(f *domain.NoteFees, v float64) { f.Registration = v }},
	{regexp.MustCompile(`emolumentos`), func(f *domain.NoteFees, v float64) { f.Emoluments = v }},
	{regexp.MustCompile(`taxa operacional|corretagem`), func(f *domain.NoteFees, v float64) { f.Brokerage = v }},
	{regexp.MustCompile(`\biss\b`), func(f *domain.NoteFees, v float64) { f.ISS = v }},
	{regexp.MustCompile(`i\.?\s?r\.?\s?r\.?\s?f\.?`), func(f *domain.NoteFees, v float64) { f.IRRF = v }},
}

// ExtractFees lê as taxas da nota. Para cada rótulo vale o primeiro valor
// que aparece depois dele na mesma linha; ocorrências sem valor (títulos,
// cabeçalhos) são puladas. No IRRF a "base R$" é descartada.
func ExtractFees(lines []string) domain.NoteFees {
	var fees domain.NoteFees
	plain := make([]string, len(lines))
	for i, l := range lines {
		plain[i] = strings.ToLower(normalize.StripAccents(l))
	}

	for _, fl := range feeLabels {
		if v, ok := labeledAmount(plain, fl.label); ok {
			fl.set(&fees, v)
		}
	}

	total := decimal.Zero
	for _, v := range []float64{fees.Settlement, fees.Registration, fees.Emoluments, fees.Brokerage, fees.ISS, fees.IRRF} {
		total = total.Add(decimal.NewFromFloat(v))
	}
	fees.Total = total.Round(2).InexactFloat64()
	return fees
}

func labeledAmount(lines []string, label *regexp.Regexp) (float64, bool) {
	for _, l := range lines {
		for _, loc := range label.FindAllStringIndex(l, -1) {
			rest := irrfBaseRegex.ReplaceAllString(l[loc[1]:], "")
			raw := noteAmountRegex.FindString(rest)
			if raw == "" {
				continue
			}
			v, err := normalize.ParseAmountAbs(raw)
			if err != nil {
				continue
			}
			return v, true
		}
	}
	return 0, false
}

// DistributeFees rateia as taxas pelo peso de cada operação no volume:
// parcela_i = total_i × taxas / Σtotal, com duas casas. O resíduo do
// arredondamento vai para a última operação, então a soma fecha exata.
func DistributeFees(totals []float64, fees float64) []float64 {
	shares := make([]float64, len(totals))
	sum := decimal.Zero
	for _, t := range totals {
		sum = sum.Add(decimal.NewFromFloat(t))
	}
	if sum.IsZero() || fees == 0 {
		return shares
	}

	f := decimal.NewFromFloat(fees)
	allocated := decimal.Zero
	for i, t := range totals {
		share := decimal.NewFromFloat(t).Mul(f).Div(sum).Round(2)
		if i == len(totals)-1 {
			share = f.Sub(allocated)
		}
		allocated = allocated.Add(share)
		shares[i] = share.InexactFloat64()
	}
	return shares
}
