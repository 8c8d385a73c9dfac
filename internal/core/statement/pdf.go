package statement

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"import-service/internal/core/description"
	"import-service/internal/core/normalize"
	"import-service/internal/core/pdftext"
	"import-service/internal/domain"

	"go.uber.org/zap"
)

const amountPattern = `-?\s?(?:R\$\s*)?-?(?:\d{1,3}(?:\.\d{3})+|\d+),\d{2}-?`

var (
	faturaLineRegex  = regexp.MustCompile(`^(\d{2}/\d{2})\s+(.+?)\s+(` + amountPattern + `)$`)
	extratoLineRegex = regexp.MustCompile(`^(\d{2}/\d{2}/\d{4})\s+(.+?)\s+(` + amountPattern + `)\s+(` + amountPattern + `)$`)
	dueDateRegex     = regexp.MustCompile(`(?i)vencimento[^0-9]{0,40}(\d{2})/(\d{2})/(\d{4})`)
	fullDateRegex    = regexp.MustCompile(`\b(\d{2})/(\d{2})/(\d{4})\b`)
	pdfFaturaSkip    = regexp.MustCompile(`(?i)^(?:pagamento|pgto|total|saldo|subtotal|limite|encargos|juros\s+do\s+rotativo)`)
	pdfExtratoSkip   = regexp.MustCompile(`(?i)saldo\s+(?:anterior|do\s+dia|final|total|dispon[ií]vel)|^s\s*a\s*l\s*d\s*o`)
	faturaHintRegex  = regexp.MustCompile(`(?i)fatura|vencimento|cart[aã]o\s+de\s+cr[eé]dito`)
)

// Meses além do vencimento a partir dos quais a compra é do ano anterior.
const rolloverMonths = 3

// ParsePDF extrai o texto do PDF e delega para ParsePDFText.
func ParsePDF(data []byte, opts Options) *domain.ParseResult {
	pages, err := pdftext.Extract(data, opts.Password)
	if err != nil {
		opts.logger().Warn("falha ao extrair texto do pdf", zap.Error(err))
		return domain.FailedParseResult(pdftext.Message(err))
	}
	return ParsePDFText(pages, opts)
}

type pdfLine struct {
	n    int
	text string
}

// ParsePDFText lê extrato ou fatura a partir do texto das páginas.
func ParsePDFText(pages []string, opts Options) *domain.ParseResult {
	log := opts.logger()
	full := strings.Join(pages, "\n")

	var lines []pdfLine
	n := 0
	for _, page := range pages {
		for _, l := range strings.Split(page, "\n") {
			n++
			if t := normalize.CollapseSpaces(l); t != "" {
				lines = append(lines, pdfLine{n: n, text: t})
			}
		}
	}

	src := opts.sourceHint()
	if src == "" {
		src = detectPDFSource(lines, full)
	}
	bank := opts.bankHint()
	if bank == BankUnknown && len(pages) > 0 {
		bank = BankFromName(pages[0])
	}

	res := domain.NewParseResult()
	res.DetectedBank = string(bank)
	res.DetectedType = src

	if src == domain.SourceFatura {
		parsePDFFatura(lines, full, opts, res)
	} else {
		parsePDFExtrato(lines, res)
	}

	log.Debug("PDF processado",
		zap.String("bank", string(bank)),
		zap.String("sourceType", string(src)),
		zap.Int("lines", len(lines)),
		zap.Int("success", res.SuccessCount),
		zap.Int("errors", res.ErrorCount))
	return res
}

func detectPDFSource(lines []pdfLine, full string) domain.SourceType {
	fatura, extrato := 0, 0
	for _, l := range lines {
		if extratoLineRegex.MatchString(l.text) {
			extrato++
		} else if faturaLineRegex.MatchString(l.text) {
			fatura++
		}
	}
	if fatura > extrato || (fatura == extrato && fatura > 0 && faturaHintRegex.MatchString(full)) {
		return domain.SourceFatura
	}
	return domain.SourceExtrato
}

// referenceDate devolve ano e mês do vencimento. Sem vencimento usa a primeira
// data completa do documento e, por fim, o relógio.
func referenceDate(full string, now time.Time) (int, int) {
	if m := dueDateRegex.FindStringSubmatch(full); m != nil {
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		return year, month
	}
	if m := fullDateRegex.FindStringSubmatch(full); m != nil {
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		return year, month
	}
	return now.Year(), int(now.Month())
}

// FaturaYear infere o ano de uma compra "DD/MM" pelo mês do vencimento: compra
// mais de três meses depois do vencimento pertence ao ano anterior.
func FaturaYear(txMonth, dueYear, dueMonth int) int {
	if txMonth > dueMonth+rolloverMonths {
		return dueYear - 1
	}
	return dueYear
}

func parsePDFFatura(lines []pdfLine, full string, opts Options, res *domain.ParseResult) {
	year, month := referenceDate(full, opts.now())
	for _, l := range lines {
		m := faturaLineRegex.FindStringSubmatch(l.text)
		if m == nil {
			continue
		}
		desc := strings.TrimSpace(m[2])
		if pdfFaturaSkip.MatchString(desc) {
			continue
		}
		dm := strings.Split(m[1], "/")
		txMonth, _ := strconv.Atoi(dm[1])
		date, ok := normalize.ParseDayMonth(m[1], FaturaYear(txMonth, year, month))
		if !ok {
			res.AddRowError(l.n, "data inválida %q", m[1])
			continue
		}
		v, err := normalize.ParseBrazilianNumber(m[3])
		if err != nil {
			res.AddRowError(l.n, "valor inválido %q", m[3])
			continue
		}
		if v == 0 {
			continue
		}
		txType := domain.TypeExpense
		if v < 0 {
			// estorno/crédito na fatura
			txType = domain.TypeIncome
			v = -v
		}
		addPDFTransaction(res, l, date, v, txType, desc, domain.SourceFatura)
	}
}

func parsePDFExtrato(lines []pdfLine, res *domain.ParseResult) {
	for _, l := range lines {
		m := extratoLineRegex.FindStringSubmatch(l.text)
		if m == nil {
			continue
		}
		desc := strings.TrimSpace(m[2])
		if pdfExtratoSkip.MatchString(desc) {
			continue
		}
		date, ok := normalize.ParseDate(m[1])
		if !ok {
			res.AddRowError(l.n, "data inválida %q", m[1])
			continue
		}
		v, err := normalize.ParseBrazilianNumber(m[3])
		if err != nil {
			res.AddRowError(l.n, "valor inválido %q", m[3])
			continue
		}
		if v == 0 {
			continue
		}
		txType := domain.TypeIncome
		if v < 0 {
			txType = domain.TypeExpense
			v = -v
		}
		addPDFTransaction(res, l, date, v, txType, desc, domain.SourceExtrato)
	}
}

func addPDFTransaction(res *domain.ParseResult, l pdfLine, date time.Time, amount float64, txType domain.TransactionType, desc string, src domain.SourceType) {
	ext := description.Extract(desc, src)
	tx := domain.ParsedTransaction{
		Date:          date,
		Amount:        amount,
		Description:   ext.FullDescription,
		Name:          ext.Name,
		PaymentMethod: ext.PaymentMethod,
		Type:          txType,
		Raw:           normalize.Truncate(l.text, rawMaxLen),
		Confidence:    ConfidencePDF,
	}
	if err := domain.ValidateTransaction(tx); err != nil {
		res.AddRowError(l.n, "%v", err)
		return
	}
	res.Add(tx)
}
