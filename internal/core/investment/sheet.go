package investment

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"import-service/internal/core/normalize"
	"import-service/internal/core/workbook"
	"import-service/internal/domain"

	"github.com/schollz/closestmatch"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Source identifica a origem de um arquivo de investimentos.
type Source string

const (
	SourceB3           Source = "b3"
	SourceMyProfit     Source = "myprofit"
	SourceStatusInvest Source = "statusinvest"
	SourceKinvo        Source = "kinvo"
	SourceIBKR         Source = "ibkr"
	SourceNote         Source = "nota"
	SourceAvenue       Source = "avenue"
	SourceInterGlobal  Source = "inter-global"
	SourceGeneric      Source = "generico"
)

// Options são os parâmetros de uma leitura de investimentos.
type Options struct {
	// Source força o formato; vazio detecta pelo cabeçalho.
	Source   string
	Password string
	Logger   *zap.Logger
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

var sourceAliases = map[string]Source{
	"b3":                  SourceB3,
	"cei":                 SourceB3,
	"area do investidor":  SourceB3,
	"myprofit":            SourceMyProfit,
	"my profit":           SourceMyProfit,
	"statusinvest":        SourceStatusInvest,
	"status invest":       SourceStatusInvest,
	"kinvo":               SourceKinvo,
	"ibkr":                SourceIBKR,
	"interactive brokers": SourceIBKR,
	"nota":                SourceNote,
	"nota de corretagem":  SourceNote,
	"sinacor":             SourceNote,
	"avenue":              SourceAvenue,
	"apex":                SourceAvenue,
	"inter global":        SourceInterGlobal,
	"inter co":            SourceInterGlobal,
	"generico":            SourceGeneric,
	"generic":             SourceGeneric,
}

var sourceMatcher = func() *closestmatch.ClosestMatch {
	keys := make([]string, 0, len(sourceAliases))
	for k := range sourceAliases {
		keys = append(keys, k)
	}
	return closestmatch.New(keys, []int{2, 3})
}()

// ResolveSource converte o hint do usuário. Hint vazio devolve ("", true).
func ResolveSource(hint string) (Source, bool) {
	key := normalize.Normalize(hint)
	if key == "" || key == "auto" {
		return "", true
	}
	if s, ok := sourceAliases[key]; ok {
		return s, true
	}
	if len(key) >= 4 {
		if m := sourceMatcher.Closest(key); m != "" && m[:2] == key[:2] {
			return sourceAliases[m], true
		}
	}
	return "", false
}

// vendor descreve uma exportação em planilha: colunas, critério de
// reconhecimento e montagem da operação a partir de uma linha.
type vendor struct {
	source  Source
	columns []columnSpec
	fees    []string
	accept  func(columnMap) bool
	build   func(r rowValues) (domain.InvestmentOperation, bool, error)
}

// Ordem de detecção: formatos com cabeçalho mais específico primeiro.
var vendors = []vendor{statusInvestVendor, b3Vendor, kinvoVendor, myProfitVendor}

func isWorkbookSource(s Source) bool {
	_, ok := vendorFor(s)
	return ok
}

func vendorFor(s Source) (vendor, bool) {
	for _, v := range vendors {
		if v.source == s {
			return v, true
		}
	}
	return vendor{}, false
}

const msgUnknownWorkbook = "Formato de planilha de investimentos não reconhecido. Formatos aceitos: B3, MyProfit, StatusInvest e Kinvo"

// ParseWorkbook lê a primeira aba reconhecida de uma planilha de investimentos.
func ParseWorkbook(data []byte, opts Options) *domain.InvestmentParseResult {
	log := opts.logger()
	res := domain.NewInvestmentParseResult()

	sheets, err := workbook.Load(data, workbook.Options{Password: opts.Password})
	if err != nil {
		if errors.Is(err, workbook.ErrEmpty) {
			res.Fail("A planilha está vazia")
			return res
		}
		log.Warn("falha ao abrir planilha de investimentos", zap.Error(err))
		res.Fail("Não foi possível ler a planilha: arquivo corrompido ou em formato não suportado")
		return res
	}

	src, ok := ResolveSource(opts.Source)
	if !ok || (src != "" && !isWorkbookSource(src)) {
		res.Fail(fmt.Sprintf("Fonte %q não é suportada para planilhas", opts.Source))
		return res
	}

	for _, sheet := range sheets {
		if v, header, m, found := detectVendor(sheet.Rows, src); found {
			out := parseRows(sheet.Rows, header, m, v, log)
			log.Debug("planilha de investimentos processada",
				zap.String("sheet", sheet.Name),
				zap.String("source", string(v.source)),
				zap.Int("success", out.SuccessCount),
				zap.Int("errors", out.ErrorCount))
			return out
		}
	}
	if src != "" {
		res.Fail(fmt.Sprintf("Cabeçalho esperado para %s não encontrado na planilha", src))
		return res
	}
	res.Fail(msgUnknownWorkbook)
	return res
}

// ParseSheet lê linhas já carregadas (uma aba) com o formato informado ou detectado.
func ParseSheet(rows [][]string, opts Options) *domain.InvestmentParseResult {
	src, ok := ResolveSource(opts.Source)
	if !ok {
		res := domain.NewInvestmentParseResult()
		res.Fail(fmt.Sprintf("Fonte %q não suportada", opts.Source))
		return res
	}
	v, header, m, found := detectVendor(rows, src)
	if !found {
		res := domain.NewInvestmentParseResult()
		res.Fail(msgUnknownWorkbook)
		return res
	}
	return parseRows(rows, header, m, v, opts.logger())
}

func detectVendor(rows [][]string, src Source) (vendor, int, columnMap, bool) {
	candidates := vendors
	if src != "" {
		v, ok := vendorFor(src)
		if !ok {
			return vendor{}, -1, columnMap{}, false
		}
		candidates = []vendor{v}
	}
	for _, v := range candidates {
		if header, m, ok := findHeader(rows, v.columns, v.accept); ok {
			return v, header, m, true
		}
	}
	return vendor{}, -1, columnMap{}, false
}

func parseRows(rows [][]string, header int, m columnMap, v vendor, log *zap.Logger) *domain.InvestmentParseResult {
	res := domain.NewInvestmentParseResult()
	res.DetectedSource = string(v.source)
	fees := feeColumns(rows[header], v.fees)

	for i := header + 1; i < len(rows); i++ {
		r := rowValues{m: m, cells: rows[i], fees: fees}
		if r.blank() {
			continue
		}
		op, skip, err := v.build(r)
		if skip {
			continue
		}
		if err == nil {
			err = domain.ValidateOperation(op)
		}
		if err != nil {
			res.AddRowError(i+1, "%v", err)
			continue
		}
		res.Add(op)
	}
	log.Debug("linhas de investimento lidas",
		zap.String("source", string(v.source)),
		zap.Int("rows", len(rows)-header-1))
	return res
}

// rowValues dá acesso tipado às células de uma linha.
type rowValues struct {
	m     columnMap
	cells []string
	fees  []int
}

func (r rowValues) str(f field) string { return r.m.get(r.cells, f) }

// blank: linha vazia ou rodapé sem data nem movimentação.
func (r rowValues) blank() bool {
	return r.str(fieldDate) == "" && r.str(fieldMovement) == "" && r.str(fieldTicker) == "" && r.str(fieldProduct) == ""
}

func (r rowValues) date() (time.Time, error) {
	raw := r.str(fieldDate)
	d, ok := normalize.ParseDate(raw)
	if !ok {
		return time.Time{}, fmt.Errorf("data inválida %q", raw)
	}
	return d, nil
}

// amount lê um valor em módulo; o sinal vem do tipo de operação.
func (r rowValues) amount(f field) (decimal.Decimal, bool, error) {
	raw := r.str(f)
	if raw == "" {
		return decimal.Zero, false, nil
	}
	d, err := normalize.ParseDecimal(raw)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("número inválido %q", raw)
	}
	return d.Abs(), true, nil
}

func (r rowValues) feeTotal() (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, idx := range r.fees {
		if idx >= len(r.cells) {
			continue
		}
		raw := strings.TrimSpace(r.cells[idx])
		if raw == "" || raw == "-" {
			continue
		}
		d, err := normalize.ParseDecimal(raw)
		if err != nil {
			return decimal.Zero, fmt.Errorf("taxa inválida %q", raw)
		}
		sum = sum.Add(d.Abs())
	}
	return sum, nil
}

// amounts preenche quantidade, preço e total seguindo a convenção:
// provento tem quantidade 1 e preço = total; nas demais o total do arquivo
// prevalece e o que faltar é derivado.
func amounts(typ domain.OperationType, r rowValues) (qty, price, total float64, err error) {
	q, hasQ, err := r.amount(fieldQuantity)
	if err != nil {
		return 0, 0, 0, err
	}
	p, hasP, err := r.amount(fieldPrice)
	if err != nil {
		return 0, 0, 0, err
	}
	t, hasT, err := r.amount(fieldTotal)
	if err != nil {
		return 0, 0, 0, err
	}

	if typ == domain.OpDividend {
		if !hasT && hasP {
			t = p
			if hasQ && !q.IsZero() {
				t = p.Mul(q)
			}
			hasT = true
		}
		if !hasT || t.IsZero() {
			return 0, 0, 0, errors.New("valor do provento ausente")
		}
		t = t.Round(2)
		return 1, t.InexactFloat64(), t.InexactFloat64(), nil
	}

	if !hasQ || q.IsZero() {
		return 0, 0, 0, errors.New("quantidade ausente")
	}
	switch {
	case !hasT && !hasP:
		return 0, 0, 0, errors.New("preço e valor ausentes")
	case !hasT:
		t = q.Mul(p).Round(2)
	case !hasP:
		p = t.Div(q)
	}
	return q.InexactFloat64(), p.InexactFloat64(), t.InexactFloat64(), nil
}

// normalizeTicker coloca em maiúsculas e remove o "F" do mercado fracionário.
func normalizeTicker(s string) string {
	t := strings.ToUpper(strings.TrimSpace(s))
	if len(t) >= 6 && strings.HasSuffix(t, "F") && brTickerRegex.MatchString(t[:len(t)-1]) {
		return t[:len(t)-1]
	}
	return t
}

func currencyCell(raw string, fallback domain.Currency) domain.Currency {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "USD", "US$", "DOLAR", "DÓLAR":
		return domain.CurrencyUSD
	case "BRL", "R$", "REAL":
		return domain.CurrencyBRL
	}
	return fallback
}
