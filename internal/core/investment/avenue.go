package investment

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"import-service/internal/domain"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	avenueDateRegexes = []*regexp.Regexp{
		regexp.MustCompile(`current trade date[:\s]*(\d{1,2}/\d{1,2}/\d{2,4})`),
		regexp.MustCompile(`processdate[:\s]*(\d{1,2}/\d{1,2}/\d{4})`),
	}
	usSymbolRegex = regexp.MustCompile(`^[A-Z]{1,5}$`)
)

type avenueFees struct {
	commission decimal.Decimal
	other      decimal.Decimal
}

// ParseAvenueText lê confirmações da Avenue (liquidadas pela Apex Clearing).
// Cada negócio ocupa uma linha:
//
//	Acct B/S TradeDate SettleDate QTY SYM PRICE Principal COMM TranFee Add'lFees Tag Net
//	1 B 12/16/22 12/20/22 0.99965 AMZN 87.2299000 87.20 0.00 0.00 0.00 R4313 87.20
func ParseAvenueText(pages []string, opts Options) *domain.BrokerageNote {
	log := opts.logger()
	lines := pageLines(pages)
	plain := strings.ToLower(strings.Join(lines, "\n"))

	note := newForeignNote(SourceAvenue, "Avenue")
	if !hasMarker(plain, avenueMarkers) {
		note.Warnings = append(note.Warnings, "Documento não identificado como da Avenue")
	}
	for _, re := range avenueDateRegexes {
		if m := re.FindStringSubmatch(plain); m != nil {
			if d, ok := usDate(m[1]); ok {
				note.NoteDate = d
				break
			}
		}
	}
	if note.NoteDate.IsZero() {
		note.Warnings = append(note.Warnings, "Data de negociação não encontrada")
	}

	var ops []domain.InvestmentOperation
	var opLines []int
	commission, other := decimal.Zero, decimal.Zero
	for i, l := range lines {
		op, fees, ok, err := avenueLine(l)
		if !ok {
			continue
		}
		if err != nil {
			note.AddRowError(i+1, "%v", err)
			continue
		}
		commission = commission.Add(fees.commission)
		other = other.Add(fees.other)
		ops = append(ops, op)
		opLines = append(opLines, i+1)
	}

	note.Fees.Brokerage = commission.InexactFloat64()
	note.Fees.Settlement = other.InexactFloat64()
	note.Fees.Total = commission.Add(other).InexactFloat64()
	finishPDFNote(note, ops, opLines)

	log.Debug("confirmação Avenue processada",
		zap.Int("operations", note.SuccessCount),
		zap.Int("errors", note.ErrorCount))
	return note
}

// avenueLine reconhece a linha pelo B/S seguido da data do pregão.
func avenueLine(line string) (domain.InvestmentOperation, avenueFees, bool, error) {
	var op domain.InvestmentOperation
	var fees avenueFees

	fields := strings.Fields(line)
	action := -1
	for i, f := range fields {
		if f == "B" || f == "S" {
			action = i
			break
		}
	}
	if action < 0 || action+1 >= len(fields) || !usDateRegex.MatchString(fields[action+1]) {
		return op, fees, false, nil
	}

	typ := domain.OpBuy
	if fields[action] == "S" {
		typ = domain.OpSell
	}
	date, ok := usDate(fields[action+1])
	if !ok {
		return op, fees, true, fmt.Errorf("data inválida %q", fields[action+1])
	}

	rest := fields[action+2:]
	for len(rest) > 0 && usDateRegex.MatchString(rest[0]) {
		rest = rest[1:]
	}
	if len(rest) < 3 {
		return op, fees, true, errors.New("negócio incompleto")
	}
	if !usNumberRegex.MatchString(rest[0]) {
		return op, fees, true, fmt.Errorf("quantidade inválida %q", rest[0])
	}
	qty, err := usNumber(rest[0])
	if err != nil || !qty.IsPositive() {
		return op, fees, true, fmt.Errorf("quantidade inválida %q", rest[0])
	}
	symbol := rest[1]
	if !usSymbolRegex.MatchString(symbol) {
		return op, fees, true, fmt.Errorf("ativo não reconhecido %q", symbol)
	}
	if !usNumberRegex.MatchString(rest[2]) {
		return op, fees, true, fmt.Errorf("preço inválido %q", rest[2])
	}
	price, err := usNumber(rest[2])
	if err != nil {
		return op, fees, true, fmt.Errorf("preço inválido %q", rest[2])
	}

	// Principal; na falta, quantidade × preço
	total := qty.Mul(price).Round(2)
	amounts := leadingNumbers(rest[3:], 4)
	if len(amounts) > 0 {
		total = amounts[0]
	}
	if len(amounts) > 1 {
		fees.commission = amounts[1]
	}
	for _, f := range amounts[min(len(amounts), 2):] {
		fees.other = fees.other.Add(f)
	}

	op = domain.InvestmentOperation{
		Date:        date,
		Type:        typ,
		Ticker:      symbol,
		AssetType:   usAssetType(symbol, ""),
		Quantity:    qty.InexactFloat64(),
		Price:       price.InexactFloat64(),
		Total:       total.Abs().InexactFloat64(),
		Currency:    domain.CurrencyUSD,
		Institution: "Avenue",
		Fees:        fees.commission.Add(fees.other).InexactFloat64(),
	}
	return op, fees, true, nil
}

// leadingNumbers lê até n números americanos do início de fields, parando no
// primeiro token que não é número.
func leadingNumbers(fields []string, n int) []decimal.Decimal {
	var out []decimal.Decimal
	for _, f := range fields {
		if len(out) == n || !usNumberRegex.MatchString(f) {
			break
		}
		d, err := usNumber(f)
		if err != nil {
			break
		}
		out = append(out, d.Abs())
	}
	return out
}
