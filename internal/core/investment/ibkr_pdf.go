package investment

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"import-service/internal/core/normalize"
	"import-service/internal/domain"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ibkrISODateRegex    = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2}),?$`)
	ibkrCommissionRegex = regexp.MustCompile(`total\s+commission[:\s]*([\d.,]+)`)
)

// Seções do Activity Statement que encerram o quadro de trades.
var ibkrSectionEnds = map[string]bool{
	"open positions": true, "deposits withdrawals": true, "dividends": true,
	"withholding tax": true, "interest": true, "fees": true,
	"financial instrument information": true, "codes": true, "corporate actions": true,
}

// Subtítulos de moeda dentro de Trades; só USD e BRL são aceitas.
var ibkrCurrencies = map[string]bool{
	"usd": true, "brl": true, "eur": true, "gbp": true, "cad": true,
	"chf": true, "jpy": true, "aud": true, "hkd": true,
}

// Subtítulos de categoria dentro de Trades.
var ibkrCategories = map[string]bool{
	"stocks": true, "etfs": true, "equity and index options": true, "options": true,
	"futures": true, "forex": true, "bonds": true, "treasury bills": true, "crypto": true,
}

// ParseIBKRText lê a seção Trades do Activity Statement em PDF. Linha:
//
//	Symbol Date/Time Quantity T.Price C.Price Proceeds Comm/Fee Basis RealizedP/L MTMP/L Code
//	AAPL 2024-01-15, 10:30:00 10 185.50 185.60 -1,855.00 -1.00 1,856.00 0.00 0.00 O
//
// Quantidade negativa é venda. Sem as colunas de valor, o total é quantidade × preço.
// O CSV da mesma conta (ParseIBKR) é mais confiável.
func ParseIBKRText(pages []string, opts Options) *domain.BrokerageNote {
	log := opts.logger()
	lines := pageLines(pages)

	note := newForeignNote(SourceIBKR, "Interactive Brokers")

	var ops []domain.InvestmentOperation
	var opLines []int
	inTrades := false
	category := "stocks"
	currency := domain.CurrencyUSD
	currencyOK := true
	fees := decimal.Zero
	for i, l := range lines {
		key := normalize.Normalize(l)
		switch {
		case strings.HasPrefix(key, "trades") && !strings.Contains(key, "summary"):
			inTrades = true
			continue
		case !inTrades:
			continue
		case ibkrSectionEnds[key]:
			inTrades = false
			continue
		case ibkrCategories[key]:
			category = key
			continue
		case ibkrCurrencies[key]:
			currency = currencyCell(key, "")
			currencyOK = currency != ""
			continue
		}

		op, fee, ok, err := ibkrPDFLine(l, category)
		if !ok {
			continue
		}
		if err == nil && !currencyOK {
			err = errors.New("moeda não suportada")
		}
		if err != nil {
			note.AddRowError(i+1, "%v", err)
			continue
		}
		op.Currency = currency
		fees = fees.Add(fee)
		ops = append(ops, op)
		opLines = append(opLines, i+1)
	}

	plain := strings.ToLower(strings.Join(lines, "\n"))
	if m := ibkrCommissionRegex.FindStringSubmatch(plain); m != nil {
		if d, err := usNumber(m[1]); err == nil {
			fees = d.Abs()
		}
	}
	for _, op := range ops {
		if note.NoteDate.IsZero() || op.Date.Before(note.NoteDate) {
			note.NoteDate = op.Date
		}
	}
	note.Fees.Brokerage = fees.InexactFloat64()
	note.Fees.Total = note.Fees.Brokerage
	if len(ops) == 0 && note.ErrorCount == 0 {
		note.Warnings = append(note.Warnings, "Nenhum trade encontrado no PDF. Prefira a exportação CSV da IBKR")
	}
	finishPDFNote(note, ops, opLines)

	log.Debug("Activity Statement IBKR processado",
		zap.Int("operations", note.SuccessCount),
		zap.Int("errors", note.ErrorCount))
	return note
}

// ibkrPDFLine aceita linhas que começam por um símbolo seguido da data ISO.
func ibkrPDFLine(line, category string) (domain.InvestmentOperation, decimal.Decimal, bool, error) {
	var op domain.InvestmentOperation
	fee := decimal.Zero

	fields := strings.Fields(line)
	if len(fields) < 3 || !interSymbolRegex.MatchString(fields[0]) || tickerBlacklist[fields[0]] {
		return op, fee, false, nil
	}
	m := ibkrISODateRegex.FindStringSubmatch(fields[1])
	if m == nil {
		return op, fee, false, nil
	}
	symbol := fields[0]

	date, ok := normalize.ParseDate(m[1])
	if !ok {
		return op, fee, true, fmt.Errorf("data inválida %q", m[1])
	}
	asset, err := ibkrAssetType(category, symbol)
	if err != nil {
		return op, fee, true, err
	}

	var nums []decimal.Decimal
	for _, f := range fields[2:] {
		if strings.Contains(f, ":") || !usNumberRegex.MatchString(f) {
			continue
		}
		if d, err := usNumber(f); err == nil {
			nums = append(nums, d)
		}
	}
	if len(nums) < 2 {
		return op, fee, true, errors.New("quantidade e preço não encontrados")
	}
	qty, price := nums[0], nums[1].Abs()
	if qty.IsZero() {
		return op, fee, true, errors.New("quantidade ausente")
	}
	typ := domain.OpBuy
	if qty.IsNegative() {
		typ = domain.OpSell
	}
	qty = qty.Abs()

	total := qty.Mul(price).Round(2)
	switch {
	case len(nums) >= 5:
		total, fee = nums[3].Abs(), nums[4].Abs()
	case len(nums) >= 3:
		total = nums[2].Abs()
	}

	op = domain.InvestmentOperation{
		Date:        date,
		Type:        typ,
		Ticker:      symbol,
		AssetType:   asset,
		Quantity:    qty.InexactFloat64(),
		Price:       price.InexactFloat64(),
		Total:       total.InexactFloat64(),
		Institution: "Interactive Brokers",
		Fees:        fee.InexactFloat64(),
	}
	return op, fee, true, nil
}
