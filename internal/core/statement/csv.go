package statement

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"regexp"
	"strings"

	"import-service/internal/core/description"
	"import-service/internal/core/normalize"
	"import-service/internal/domain"

	"go.uber.org/zap"
)

// tableRow é uma linha de CSV ou planilha com o número da linha no arquivo.
type tableRow struct {
	line  int
	cells []string
}

var installmentCell = regexp.MustCompile(`^\s*(\d{1,2})\s*/\s*(\d{1,2})\s*$`)

// DetectDelimiter conta ',', ';' e tab nas primeiras linhas não vazias. Olhar
// mais de uma linha evita que um título sem separador decida o delimitador.
func DetectDelimiter(content string) rune {
	counts := map[rune]int{}
	seen := 0
	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		for _, d := range []rune{';', ',', '\t'} {
			counts[d] += strings.Count(line, string(d))
		}
		if seen++; seen >= 10 {
			break
		}
	}
	best, bestCount := ',', 0
	for _, d := range []rune{';', ',', '\t'} {
		if counts[d] > bestCount {
			best, bestCount = d, counts[d]
		}
	}
	return best
}

// ParseCSV lê um CSV de extrato/fatura já decodificado para UTF-8.
func ParseCSV(content string, opts Options) *domain.ParseResult {
	log := opts.logger()
	content = strings.TrimPrefix(content, "\ufeff")
	if strings.TrimSpace(content) == "" {
		return domain.FailedParseResult("Arquivo CSV vazio")
	}

	// primeira leitura só para detectar o layout
	sample := readCSV(content, DetectDelimiter(content))
	tpl, errMsg := selectTemplate(sample, opts)
	if errMsg != "" {
		return domain.FailedParseResult(errMsg)
	}

	text := content
	if tpl.StripQuotes {
		text = strings.ReplaceAll(text, `"`, "")
	}
	delim := tpl.Delimiter
	if delim == 0 {
		delim = DetectDelimiter(text)
	}
	rows := readCSV(text, delim)

	res := domain.NewParseResult()
	res.DetectedBank = string(tpl.Bank)
	res.DetectedType = tpl.SourceType
	applyTemplate(rows, tpl, ConfidenceCSV, string(delim), res)

	log.Debug("CSV processado",
		zap.String("bank", string(tpl.Bank)),
		zap.String("sourceType", string(tpl.SourceType)),
		zap.Int("rows", len(rows)),
		zap.Int("success", res.SuccessCount),
		zap.Int("errors", res.ErrorCount))
	return res
}

// readCSV tolera aspas soltas e número variável de colunas. Registros que o
// leitor recusa viram linhas de uma célula só, que falham na validação da linha.
func readCSV(content string, delim rune) []tableRow {
	reader := csv.NewReader(strings.NewReader(content))
	reader.Comma = delim
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var rows []tableRow
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			rows = append(rows, tableRow{line: perr.Line, cells: []string{perr.Error()}})
			continue
		}
		if err != nil {
			break
		}
		line, _ := reader.FieldPos(0)
		rows = append(rows, tableRow{line: line, cells: record})
	}
	return rows
}

// selectTemplate aplica a prioridade hint do usuário > assinatura do cabeçalho
// > layout genérico por nome de coluna.
func selectTemplate(rows []tableRow, opts Options) (ColumnTemplate, string) {
	grid := make([][]string, len(rows))
	for i, r := range rows {
		grid[i] = r.cells
	}
	sig, sigOK := matchSignature(grid)

	bank := opts.bankHint()
	src := opts.sourceHint()

	if bank != BankUnknown {
		if src == "" {
			switch {
			case sigOK && sig.Bank == bank:
				src = sig.SourceType
			default:
				if ts := templatesFor(bank); len(ts) == 1 {
					src = ts[0].SourceType
				} else {
					src = domain.SourceExtrato
				}
			}
		}
		t, ok := LookupTemplate(bank, src)
		if !ok {
			return ColumnTemplate{}, errNoTemplate(bank, src)
		}
		return t, ""
	}

	if sigOK && (src == "" || src == sig.SourceType) {
		return sig, ""
	}
	if src == "" {
		src = domain.SourceExtrato
	}
	if t, ok := genericTemplate(grid, src); ok {
		return t, ""
	}
	return ColumnTemplate{}, "Não foi possível identificar o banco nem as colunas de data, descrição e valor do arquivo. Informe o banco"
}

var (
	genericDateKeys   = []string{"data", "date", "dt", "data lancamento", "data movimento"}
	genericDescKeys   = []string{"descricao", "historico", "lancamento", "title", "memo", "estabelecimento", "description", "detalhes"}
	genericAmountKeys = []string{"valor", "amount", "value", "quantia", "montante"}
	genericCreditKeys = []string{"credito", "entrada"}
	genericDebitKeys  = []string{"debito", "saida"}
)

// genericTemplate localiza as colunas pelo nome, primeiro exato e depois por substring.
func genericTemplate(grid [][]string, src domain.SourceType) (ColumnTemplate, bool) {
	limit := len(grid)
	if limit > 20 {
		limit = 20
	}
	for i := 0; i < limit; i++ {
		header := grid[i]
		dateIdx := pickColumn(header, genericDateKeys)
		descIdx := pickColumn(header, genericDescKeys)
		amountIdx := pickColumn(header, genericAmountKeys)
		creditIdx := pickColumn(header, genericCreditKeys)
		debitIdx := pickColumn(header, genericDebitKeys)
		if dateIdx < 0 || descIdx < 0 || descIdx == dateIdx {
			continue
		}
		t := base(BankUnknown, src)
		t.DateCol, t.DescCol = dateIdx, descIdx
		switch {
		case amountIdx >= 0 && amountIdx != dateIdx && amountIdx != descIdx:
			t.AmountCol = amountIdx
		case creditIdx >= 0 && debitIdx >= 0:
			t.CreditCol, t.DebitCol = creditIdx, debitIdx
		default:
			continue
		}
		t.HeaderMarker = strings.Join(normalizedCells(header), " ")
		if src == domain.SourceFatura {
			t.SkipPatterns = append(t.SkipPatterns, invoiceRows)
		}
		return t, true
	}
	return ColumnTemplate{}, false
}

// pickColumn procura a coluna pelo nome: primeiro igualdade, depois substring.
func pickColumn(header []string, keys []string) int {
	cols := normalizedCells(header)
	for _, k := range keys {
		for i, c := range cols {
			if c == k {
				return i
			}
		}
	}
	for _, k := range keys {
		for i, c := range cols {
			if len(k) > 2 && strings.Contains(c, k) {
				return i
			}
		}
	}
	return -1
}

func normalizedCells(row []string) []string {
	out := make([]string, len(row))
	for i, c := range row {
		out[i] = normalize.Normalize(c)
	}
	return out
}

// applyTemplate é a fase linha a linha, comum a CSV e planilhas. Linhas antes do
// cabeçalho são preâmbulo e não contam. Sem cabeçalho encontrado (Itaú), o
// preâmbulo vai até a primeira data válida; depois do cabeçalho toda linha
// não vazia vira transação, pulo por padrão ou erro.
func applyTemplate(rows []tableRow, tpl ColumnTemplate, confidence float64, sep string, res *domain.ParseResult) {
	start := 0
	if tpl.HeaderMarker != "" {
		for i, r := range rows {
			if strings.HasPrefix(strings.Join(normalizedCells(r.cells), " "), tpl.HeaderMarker) {
				start = i + 1
				break
			}
		}
	}

	started := start > 0
	for _, r := range rows[start:] {
		if blankRow(r.cells) {
			continue
		}
		if !started {
			if _, ok := normalize.ParseDate(cellAt(r.cells, tpl.DateCol)); !ok {
				continue
			}
			started = true
		}
		tx, skip, err := tpl.transaction(r.cells, confidence, sep)
		if skip {
			continue
		}
		if err != nil {
			res.AddRowError(r.line, "%v", err)
			continue
		}
		res.Add(tx)
	}
}

func (t ColumnTemplate) transaction(cells []string, confidence float64, sep string) (domain.ParsedTransaction, bool, error) {
	var tx domain.ParsedTransaction

	desc := strings.TrimSpace(cellAt(cells, t.DescCol))
	if extra := strings.TrimSpace(cellAt(cells, t.DescExtraCol)); extra != "" && !strings.EqualFold(extra, desc) {
		if desc == "" {
			desc = extra
		} else {
			desc = desc + " - " + extra
		}
	}
	for _, p := range t.SkipPatterns {
		if p.MatchString(desc) {
			return tx, true, nil
		}
	}

	rawDate := cellAt(cells, t.DateCol)
	date, ok := normalize.ParseDate(rawDate)
	if !ok {
		return tx, false, fmt.Errorf("data inválida %q", rawDate)
	}

	amount, txType, skip, err := t.amount(cells, desc)
	if err != nil || skip {
		return tx, skip, err
	}

	if m := installmentCell.FindStringSubmatch(cellAt(cells, t.InstallmentCol)); m != nil {
		desc = fmt.Sprintf("%s - Parcela %s/%s", desc, m[1], m[2])
	}

	ext := description.Extract(desc, t.SourceType)
	tx = domain.ParsedTransaction{
		Date:          date,
		Amount:        amount,
		Description:   ext.FullDescription,
		Name:          ext.Name,
		PaymentMethod: ext.PaymentMethod,
		Type:          txType,
		Raw:           normalize.Truncate(strings.Join(cells, sep), rawMaxLen),
		Confidence:    confidence,
	}
	if err := domain.ValidateTransaction(tx); err != nil {
		return tx, false, err
	}
	return tx, false, nil
}

// amount resolve valor e tipo conforme o layout: colunas crédito/débito,
// indicador D/C, valor com sinal (extrato) ou arquivo só de despesas (fatura).
// Em fatura, valor negativo é estorno (receita) e pagamento da fatura é ignorado.
func (t ColumnTemplate) amount(cells []string, desc string) (float64, domain.TransactionType, bool, error) {
	if t.CreditCol >= 0 || t.DebitCol >= 0 {
		credit := strings.TrimSpace(cellAt(cells, t.CreditCol))
		debit := strings.TrimSpace(cellAt(cells, t.DebitCol))
		if credit != "" {
			v, err := normalize.ParseAmountAbs(credit)
			if err != nil {
				return 0, "", false, fmt.Errorf("valor de crédito inválido %q", credit)
			}
			if v != 0 {
				return v, domain.TypeIncome, false, nil
			}
		}
		if debit != "" {
			v, err := normalize.ParseAmountAbs(debit)
			if err != nil {
				return 0, "", false, fmt.Errorf("valor de débito inválido %q", debit)
			}
			if v != 0 {
				return v, domain.TypeExpense, false, nil
			}
		}
		if credit == "" && debit == "" {
			return 0, "", false, errors.New("valor ausente")
		}
		return 0, "", true, nil
	}

	raw := cellAt(cells, t.AmountCol)
	v, err := normalize.ParseBrazilianNumber(raw)
	if err != nil {
		return 0, "", false, fmt.Errorf("valor inválido %q", raw)
	}
	if v == 0 {
		return 0, "", true, nil
	}
	abs := math.Abs(v)

	if t.IndicatorCol >= 0 {
		switch strings.ToUpper(strings.TrimSpace(cellAt(cells, t.IndicatorCol))) {
		case "D", "DEB", "DEBITO", "DÉBITO":
			return abs, domain.TypeExpense, false, nil
		case "C", "CRED", "CREDITO", "CRÉDITO":
			return abs, domain.TypeIncome, false, nil
		}
	}
	if t.NegativeForExpense {
		if v < 0 {
			return abs, domain.TypeExpense, false, nil
		}
		return abs, domain.TypeIncome, false, nil
	}
	if v < 0 {
		if invoiceRows.MatchString(desc) {
			return 0, "", true, nil
		}
		return abs, domain.TypeIncome, false, nil
	}
	return abs, domain.TypeExpense, false, nil
}

func cellAt(cells []string, idx int) string {
	if idx < 0 || idx >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[idx])
}

func blankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
