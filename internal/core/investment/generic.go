package investment

import (
	"math"
	"regexp"
	"strings"
	"time"

	"import-service/internal/core/normalize"
	"import-service/internal/domain"

	"go.uber.org/zap"
)

const msgGenericReader = "Layout não reconhecido: operações lidas por aproximação, confira antes de gravar"

var (
	genericBRTickerRegex = regexp.MustCompile(`\b[A-Z]{4}\d{1,2}F?\b`)
	genericUSTickerRegex = regexp.MustCompile(`\b[A-Z]{1,5}\b`)
	genericNumberRegex   = regexp.MustCompile(`-?\d[\d.,]*`)
	genericDateRegex     = regexp.MustCompile(`\b\d{2}/\d{2}/\d{4}\b|\b\d{4}-\d{2}-\d{2}\b`)
	genericSellRegex     = regexp.MustCompile(`(?i)\bvenda\b|\bsell\b|\sV\s`)
)

// Palavras em maiúsculas que parecem ticker mas não são.
var tickerBlacklist = map[string]bool{
	"USD": true, "BRL": true, "EUR": true, "GBP": true, "CAD": true, "AUD": true, "JPY": true,
	"BUY": true, "SELL": true, "DATE": true, "TIME": true, "TOTAL": true, "QTD": true, "QTDE": true,
	"NOTA": true, "CORR": true, "TAXA": true, "VALOR": true, "PRECO": true, "TIPO": true,
	"STOCK": true, "BOND": true, "ETF": true, "REIT": true, "PRICE": true, "AMOUNT": true,
	"THE": true, "AND": true, "FOR": true, "NOT": true, "ARE": true, "BUT": true, "WAS": true,
	"CNPJ": true, "CPF": true, "CEP": true, "TEL": true, "PAGE": true,
}

// ParseGenericText é a leitura de último recurso para PDFs sem layout
// conhecido. Cada linha com um ticker seguido de ao menos dois números vira
// operação: o primeiro número é a quantidade, o segundo o preço e o último,
// havendo três ou mais, o total. Linhas sem esse formato são ignoradas.
func ParseGenericText(pages []string, opts Options) *domain.BrokerageNote {
	log := opts.logger()
	lines := pageLines(pages)
	text := strings.Join(lines, "\n")

	note := newNote()
	note.DetectedSource = string(SourceGeneric)
	note.Warnings = append(note.Warnings, msgGenericReader)

	lower := strings.ToLower(text)
	currency := domain.CurrencyBRL
	if (strings.Contains(lower, "usd") || strings.Contains(lower, "$")) && !strings.Contains(lower, "r$") {
		currency = domain.CurrencyUSD
	}
	note.Currency = currency
	note.NoteDate = genericDate(text)

	var ops []domain.InvestmentOperation
	var opLines []int
	for i, l := range lines {
		op, ok := genericLine(l)
		if !ok {
			continue
		}
		op.Currency = currency
		ops = append(ops, op)
		opLines = append(opLines, i+1)
	}
	finishPDFNote(note, ops, opLines)

	log.Debug("pdf lido pela leitura genérica",
		zap.Int("operations", note.SuccessCount),
		zap.Int("errors", note.ErrorCount))
	return note
}

func genericDate(text string) time.Time {
	for _, raw := range genericDateRegex.FindAllString(text, -1) {
		if d, ok := normalize.ParseDate(raw); ok {
			return d
		}
	}
	return time.Time{}
}

func genericTicker(line string) (string, []int) {
	if loc := genericBRTickerRegex.FindStringIndex(line); loc != nil {
		return strings.TrimSuffix(line[loc[0]:loc[1]], "F"), loc
	}
	for _, loc := range genericUSTickerRegex.FindAllStringIndex(line, -1) {
		if t := line[loc[0]:loc[1]]; !tickerBlacklist[t] {
			return t, loc
		}
	}
	return "", nil
}

func genericLine(line string) (domain.InvestmentOperation, bool) {
	var op domain.InvestmentOperation

	ticker, loc := genericTicker(line)
	if ticker == "" {
		return op, false
	}
	tail := genericDateRegex.ReplaceAllString(line[loc[1]:], " ")

	var nums []float64
	for _, raw := range genericNumberRegex.FindAllString(tail, -1) {
		raw = strings.TrimRight(raw, ".,")
		if v, err := normalize.ParseAmountAbs(raw); err == nil {
			nums = append(nums, v)
		}
	}
	if len(nums) < 2 {
		return op, false
	}

	qty := nums[0]
	if qty >= 10000 || qty == 0 {
		qty = 1
	}
	price := nums[1]
	total := qty * price
	if len(nums) > 2 {
		if last := nums[len(nums)-1]; last > 0 && math.Abs(last-total)/last <= 0.1 {
			total = last
		}
	}

	typ := domain.OpBuy
	if genericSellRegex.MatchString(" " + line + " ") {
		typ = domain.OpSell
	}
	asset := domain.AssetStockUS
	if genericBRTickerRegex.MatchString(ticker) {
		asset = InferAssetType(ticker)
	}

	op = domain.InvestmentOperation{
		Type:      typ,
		Ticker:    ticker,
		AssetType: asset,
		Quantity:  qty,
		Price:     price,
		Total:     math.Round(total*100) / 100,
	}
	return op, true
}
