package investment

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"import-service/internal/core/normalize"
	"import-service/internal/domain"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	noteMarketRegex  = regexp.MustCompile(`(?i)(?:^|[\s-])([CV])\s*(VISTA|FRACION[AÁ]RIO|TERMO)\b`)
	noteTrailerRegex = regexp.MustCompile(`\s([DC])\s*$`)
	noteTickerRegex  = regexp.MustCompile(`\b([A-Z]{4}\d{1,2})F?\b`)
	noteQtyRegex     = regexp.MustCompile(`\b\d{1,3}(?:\.\d{3})+\b|\b\d+\b`)
	noteTradeRegex   = regexp.MustCompile(`(?i)\b(BOVESPA|VISTA|FRACION[AÁ]RIO|TERMO)\b`)

	noteNumberRegexes = []*regexp.Regexp{
		regexp.MustCompile(`nr\.?\s*(?:da\s+)?nota[:\s]*(\d+)`),
		regexp.MustCompile(`numero\s+da\s+nota[:\s]*(\d+)`),
	}
	noteDateRegex = regexp.MustCompile(`data\s+(?:do\s+)?pregao[:\s]*(\d{2}/\d{2}/\d{4})`)
	anyDateRegex  = regexp.MustCompile(`\d{2}/\d{2}/\d{4}`)
	firstIntRegex = regexp.MustCompile(`\b\d+\b`)
)

const (
	// diferença aceita entre quantidade × preço e o valor da operação
	noteTolerance  = 1.0
	noteInstitute  = "Nota de corretagem"
	msgNoOperation = "Nenhuma operação encontrada. O layout da nota pode não ser suportado"
)

func newNote() *domain.BrokerageNote {
	return &domain.BrokerageNote{
		InvestmentParseResult: *domain.NewInvestmentParseResult(),
		Warnings:              []string{},
	}
}

// ParseNoteText lê uma nota de corretagem SINACOR a partir do texto já
// extraído (uma string por página).
func ParseNoteText(pages []string, opts Options) *domain.BrokerageNote {
	log := opts.logger()
	note := newNote()
	note.DetectedSource = string(SourceNote)
	note.Currency = domain.CurrencyBRL

	var lines []string
	for _, p := range pages {
		lines = append(lines, strings.Split(p, "\n")...)
	}
	lines = despaceText(lines)
	text := strings.Join(lines, "\n")

	note.Broker = IdentifyBroker(text)
	if note.Broker == "" {
		note.Warnings = append(note.Warnings, "Corretora não identificada")
	}
	note.NoteNumber = noteNumber(lines)
	if d, ok := noteDate(lines); ok {
		note.NoteDate = d
	} else {
		note.Warnings = append(note.Warnings, "Data do pregão não encontrada")
	}

	var ops []domain.InvestmentOperation
	var opLines []int
	for i, l := range lines {
		op, ok, err := parseNoteLine(l)
		if !ok {
			continue
		}
		if err != nil {
			note.AddRowError(i+1, "%v", err)
			continue
		}
		if want := op.Quantity * op.Price; math.Abs(want-op.Total) > noteTolerance {
			note.Warnings = append(note.Warnings, fmt.Sprintf(
				"Linha %d: valor %s difere de quantidade × preço (%s)",
				i+1, normalize.FormatBRL(op.Total), normalize.FormatBRL(want)))
		}
		op.Date = note.NoteDate
		op.Institution = note.Broker
		if op.Institution == "" {
			op.Institution = noteInstitute
		}
		ops = append(ops, op)
		opLines = append(opLines, i+1)
	}

	note.Fees = ExtractFees(lines)
	settleNote(note, ops, opLines)

	if len(ops) == 0 && note.ErrorCount == 0 {
		note.Warnings = append(note.Warnings, msgNoOperation)
	}
	log.Debug("nota de corretagem processada",
		zap.String("broker", note.Broker),
		zap.String("number", note.NoteNumber),
		zap.Int("operations", note.SuccessCount),
		zap.Float64("fees", note.Fees.Total))
	return note
}

// settleNote valida as operações e divide as taxas da nota só entre as
// aceitas, para que a soma das partes feche com Fees.Total.
func settleNote(note *domain.BrokerageNote, ops []domain.InvestmentOperation, lines []int) {
	accepted := make([]domain.InvestmentOperation, 0, len(ops))
	for i, op := range ops {
		if err := domain.ValidateOperation(op); err != nil {
			note.AddRowError(lines[i], "%v", err)
			continue
		}
		accepted = append(accepted, op)
	}

	totals := make([]float64, len(accepted))
	for i, op := range accepted {
		totals[i] = op.Total
	}
	shares := DistributeFees(totals, note.Fees.Total)
	net := decimal.Zero
	for i, op := range accepted {
		op.Fees = shares[i]
		net = net.Add(decimal.NewFromFloat(op.Total))
		note.Add(op)
	}
	note.NetValue = net.Add(decimal.NewFromFloat(note.Fees.Total)).Round(2).InexactFloat64()
}

// parseNoteLine devolve ok=false para linhas que não são negócios. Uma linha
// de negócio sem ticker reconhecível ou sem valores vira erro.
func parseNoteLine(line string) (domain.InvestmentOperation, bool, error) {
	var op domain.InvestmentOperation

	typ, side := noteSide(line)
	if !side {
		return op, false, nil
	}
	explicit := noteMarketRegex.MatchString(line)
	if !explicit && !noteTradeRegex.MatchString(line) {
		return op, false, nil
	}

	amounts := noteAmountRegex.FindAllStringIndex(line, -1)
	if len(amounts) < 2 {
		return op, false, nil
	}
	priceLoc, totalLoc := amounts[len(amounts)-2], amounts[len(amounts)-1]
	price, err := normalize.ParseAmountAbs(line[priceLoc[0]:priceLoc[1]])
	if err != nil {
		return op, true, fmt.Errorf("preço inválido")
	}
	total, err := normalize.ParseAmountAbs(line[totalLoc[0]:totalLoc[1]])
	if err != nil {
		return op, true, fmt.Errorf("valor inválido")
	}

	head := line[:priceLoc[0]]
	qtys := noteQtyRegex.FindAllString(head, -1)
	if len(qtys) == 0 {
		return op, true, fmt.Errorf("quantidade não encontrada")
	}
	qty, err := normalize.ParseAmountAbs(strings.ReplaceAll(qtys[len(qtys)-1], ".", ""))
	if err != nil || qty == 0 {
		return op, true, fmt.Errorf("quantidade inválida %q", qtys[len(qtys)-1])
	}

	ticker := ""
	if m := noteTickerRegex.FindStringSubmatch(head); m != nil {
		ticker = m[1]
	} else if t, ok := NameToTicker(head); ok {
		ticker = t
	}
	if ticker == "" && !explicit {
		// linhas do resumo financeiro também terminam em D/C
		return op, false, nil
	}
	if ticker == "" {
		return op, true, fmt.Errorf("ativo não reconhecido em %q", normalize.Truncate(normalize.CollapseSpaces(head), 60))
	}

	op = domain.InvestmentOperation{
		Type:      typ,
		Ticker:    ticker,
		AssetType: InferAssetType(ticker),
		Quantity:  qty,
		Price:     price,
		Total:     total,
		Currency:  domain.CurrencyBRL,
	}
	return op, true, nil
}

// noteSide lê "C VISTA"/"V VISTA" ou, na falta, o D/C do fim da linha
// (débito é compra, crédito é venda).
func noteSide(line string) (domain.OperationType, bool) {
	if m := noteMarketRegex.FindStringSubmatch(line); m != nil {
		if strings.EqualFold(m[1], "V") {
			return domain.OpSell, true
		}
		return domain.OpBuy, true
	}
	if m := noteTrailerRegex.FindStringSubmatch(line); m != nil {
		if m[1] == "C" {
			return domain.OpSell, true
		}
		return domain.OpBuy, true
	}
	return "", false
}

func noteNumber(lines []string) string {
	for i, l := range lines {
		plain := strings.ToLower(normalize.StripAccents(l))
		for _, re := range noteNumberRegexes {
			if m := re.FindStringSubmatch(plain); m != nil {
				return m[1]
			}
		}
		// cabeçalho em uma linha, valores na seguinte
		if strings.Contains(plain, "nr. nota") || strings.Contains(plain, "nr.nota") {
			if i+1 < len(lines) {
				if n := firstIntRegex.FindString(lines[i+1]); n != "" {
					return n
				}
			}
		}
	}
	return ""
}

func noteDate(lines []string) (time.Time, bool) {
	for i, l := range lines {
		plain := strings.ToLower(normalize.StripAccents(l))
		if m := noteDateRegex.FindStringSubmatch(plain); m != nil {
			if d, ok := normalize.ParseDate(m[1]); ok {
				return d, true
			}
		}
		if strings.Contains(plain, "data pregao") && i+1 < len(lines) {
			if raw := anyDateRegex.FindString(lines[i+1]); raw != "" {
				if d, ok := normalize.ParseDate(raw); ok {
					return d, true
				}
			}
		}
	}
	for _, l := range lines {
		if raw := anyDateRegex.FindString(l); raw != "" {
			if d, ok := normalize.ParseDate(raw); ok {
				return d, true
			}
		}
	}
	return time.Time{}, false
}
