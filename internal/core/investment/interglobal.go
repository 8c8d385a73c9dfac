package investment

import (
	"errors"
	"regexp"
	"strings"

	"import-service/internal/domain"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	interConfirmationRegex = regexp.MustCompile(`confirmation date\s*:\s*(\d{1,2}/\d{1,2}/\d{4})`)
	interSymbolRegex       = regexp.MustCompile(`^[A-Z]{1,5}(?:\.[A-Z])?$`)
)

// ParseInterGlobalText lê a Transaction Confirmation da Inter Co Securities.
// Linha de negócio:
//
//	Symbol Security A/CType Action ExecutionTime Quantity Price TradeDate SettleDate Capacity
//	TLT ISHARES TR 20 YR TR BD ETF M Buy 1:11:34 PM 1 90.3799 10/31/2025 11/3/2025 Agency
//
// As taxas vêm por negócio em outro quadro e não são lidas.
func ParseInterGlobalText(pages []string, opts Options) *domain.BrokerageNote {
	log := opts.logger()
	lines := pageLines(pages)
	plain := strings.ToLower(strings.Join(lines, "\n"))

	note := newForeignNote(SourceInterGlobal, "Inter Global")
	if !hasMarker(plain, interGlobalMarkers) {
		note.Warnings = append(note.Warnings, "Documento não identificado como da Inter Global")
	}
	if m := interConfirmationRegex.FindStringSubmatch(plain); m != nil {
		if d, ok := usDate(m[1]); ok {
			note.NoteDate = d
		}
	}
	if note.NoteDate.IsZero() {
		note.Warnings = append(note.Warnings, "Data da confirmação não encontrada")
	}

	var ops []domain.InvestmentOperation
	var opLines []int
	for i, l := range lines {
		op, ok, err := interGlobalLine(l)
		if !ok {
			continue
		}
		if err != nil {
			note.AddRowError(i+1, "%v", err)
			continue
		}
		ops = append(ops, op)
		opLines = append(opLines, i+1)
	}
	finishPDFNote(note, ops, opLines)

	log.Debug("confirmação Inter Global processada",
		zap.Int("operations", note.SuccessCount),
		zap.Int("errors", note.ErrorCount))
	return note
}

func interGlobalLine(line string) (domain.InvestmentOperation, bool, error) {
	var op domain.InvestmentOperation

	fields := strings.Fields(line)
	if len(fields) < 2 || !interSymbolRegex.MatchString(fields[0]) || tickerBlacklist[fields[0]] {
		return op, false, nil
	}
	action := -1
	for i, f := range fields[1:] {
		if strings.EqualFold(f, "buy") || strings.EqualFold(f, "sell") {
			action = i + 1
			break
		}
	}
	if action < 0 {
		return op, false, nil
	}

	typ := domain.OpBuy
	if strings.EqualFold(fields[action], "sell") {
		typ = domain.OpSell
	}
	symbol := fields[0]
	security := strings.Join(fields[1:action], " ")

	// depois da ação: horário, quantidade, preço e as datas
	var numbers []decimal.Decimal
	var dates []string
	for _, f := range fields[action+1:] {
		switch {
		case usDateRegex.MatchString(f):
			dates = append(dates, f)
		case strings.Contains(f, ":"):
		case usNumberRegex.MatchString(f):
			d, err := usNumber(f)
			if err == nil {
				numbers = append(numbers, d.Abs())
			}
		}
	}
	if len(numbers) < 2 {
		return op, true, errors.New("quantidade e preço não encontrados")
	}
	qty, price := numbers[0], numbers[1]

	op = domain.InvestmentOperation{
		Type:        typ,
		Ticker:      symbol,
		Name:        security,
		AssetType:   usAssetType(symbol, security),
		Quantity:    qty.InexactFloat64(),
		Price:       price.InexactFloat64(),
		Total:       qty.Mul(price).Round(2).InexactFloat64(),
		Currency:    domain.CurrencyUSD,
		Institution: "Inter Global",
	}
	if len(dates) > 0 {
		if d, ok := usDate(dates[0]); ok {
			op.Date = d
		}
	}
	return op, true, nil
}
