package statement

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"import-service/internal/core/normalize"
	"import-service/internal/domain"
)

// ColumnTemplate descreve as colunas de um layout de banco. Índices ausentes são -1.
type ColumnTemplate struct {
	Bank       Bank
	SourceType domain.SourceType

	// Delimiter 0 significa detectar pela linha de cabeçalho.
	Delimiter rune
	// StripQuotes remove todas as aspas antes de separar as colunas (Inter).
	StripQuotes bool
	// HeaderMarker é o cabeçalho normalizado que encerra o preâmbulo.
	HeaderMarker string
	// Signature identifica o layout sem hint do usuário (cabeçalho normalizado).
	Signature []string

	DateCol        int
	DescCol        int
	DescExtraCol   int
	AmountCol      int
	CreditCol      int
	DebitCol       int
	IndicatorCol   int
	InstallmentCol int

	// NegativeForExpense: valores já têm sinal (extrato). Quando falso o arquivo
	// inteiro é de despesas e o valor vem positivo (fatura).
	NegativeForExpense bool

	SkipPatterns []*regexp.Regexp
}

type templateKey struct {
	bank Bank
	src  domain.SourceType
}

var (
	balanceRows = regexp.MustCompile(`(?i)^\s*(?:saldo\s+(?:anterior|do\s+dia|total|final|inicial|em\s+conta|dispon[ií]vel)|s\s+a\s+l\s+d\s+o|saldo$|total\b)`)
	invoiceRows = regexp.MustCompile(`(?i)pagamento\s+(?:recebido|efetuado|de\s+fatura|fatura)|pgto\.?\s+fatura|^total\b`)
)

func base(bank Bank, src domain.SourceType) ColumnTemplate {
	return ColumnTemplate{
		Bank: bank, SourceType: src,
		DateCol: 0, DescCol: -1, DescExtraCol: -1, AmountCol: -1,
		CreditCol: -1, DebitCol: -1, IndicatorCol: -1, InstallmentCol: -1,
		NegativeForExpense: src != domain.SourceFatura,
		SkipPatterns:       []*regexp.Regexp{balanceRows},
	}
}

var templates = map[templateKey]ColumnTemplate{}

// RegisterTemplate adiciona ou substitui o layout de (banco, tipo).
func RegisterTemplate(t ColumnTemplate) {
	templates[templateKey{t.Bank, t.SourceType}] = t
}

// LookupTemplate devolve o layout configurado para (banco, tipo).
func LookupTemplate(bank Bank, src domain.SourceType) (ColumnTemplate, bool) {
	t, ok := templates[templateKey{bank, src}]
	return t, ok
}

// sortedTemplates devolve os layouts ordenados por banco e tipo.
func sortedTemplates() []ColumnTemplate {
	out := make([]ColumnTemplate, 0, len(templates))
	for _, t := range templates {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Bank != out[j].Bank {
			return out[i].Bank < out[j].Bank
		}
		return out[i].SourceType < out[j].SourceType
	})
	return out
}

func templatesFor(bank Bank) []ColumnTemplate {
	var out []ColumnTemplate
	for _, t := range sortedTemplates() {
		if t.Bank == bank {
			out = append(out, t)
		}
	}
	return out
}

func errNoTemplate(bank Bank, src domain.SourceType) string {
	return fmt.Sprintf("Banco %s não possui modelo configurado para %s", bank, src)
}

func init() {
	t := base(BankNubank, domain.SourceExtrato)
	t.Delimiter = ','
	t.Signature = []string{"data", "valor", "identificador", "descricao"}
	t.HeaderMarker = "data valor identificador descricao"
	t.AmountCol, t.DescCol = 1, 3
	RegisterTemplate(t)

	t = base(BankNubank, domain.SourceFatura)
	t.Delimiter = ','
	t.Signature = []string{"date", "title", "amount"}
	t.HeaderMarker = "date"
	t.DescCol, t.AmountCol = 1, 2
	t.SkipPatterns = append(t.SkipPatterns, invoiceRows)
	RegisterTemplate(t)

	t = base(BankInter, domain.SourceExtrato)
	t.Delimiter = ';'
	t.StripQuotes = true
	t.Signature = []string{"data lancamento", "historico", "descricao", "valor", "saldo"}
	t.HeaderMarker = "data lancamento historico descricao valor saldo"
	t.DescCol, t.DescExtraCol, t.AmountCol = 1, 2, 3
	RegisterTemplate(t)

	t = base(BankInter, domain.SourceFatura)
	t.Delimiter = ','
	t.Signature = []string{"data", "lancamento", "categoria", "tipo", "valor"}
	t.HeaderMarker = "data lancamento categoria tipo valor"
	t.DescCol, t.InstallmentCol, t.AmountCol = 1, 3, 4
	t.SkipPatterns = append(t.SkipPatterns, invoiceRows)
	RegisterTemplate(t)

	// Itaú exporta o extrato sem cabeçalho: data;lançamento;valor
	t = base(BankItau, domain.SourceExtrato)
	t.Delimiter = ';'
	t.DescCol, t.AmountCol = 1, 2
	RegisterTemplate(t)

	t = base(BankItau, domain.SourceFatura)
	t.Delimiter = ','
	t.Signature = []string{"data", "lancamento", "valor"}
	t.HeaderMarker = "data lancamento valor"
	t.DescCol, t.AmountCol = 1, 2
	t.SkipPatterns = append(t.SkipPatterns, invoiceRows)
	RegisterTemplate(t)

	t = base(BankBradesco, domain.SourceExtrato)
	t.Delimiter = ';'
	t.Signature = []string{"data", "historico", "docto", "credito", "debito", "saldo"}
	t.HeaderMarker = "data historico docto"
	t.DescCol, t.CreditCol, t.DebitCol = 1, 3, 4
	RegisterTemplate(t)

	t = base(BankBB, domain.SourceExtrato)
	t.Delimiter = ','
	t.Signature = []string{"data", "lancamento", "detalhes", "n documento", "valor"}
	t.HeaderMarker = "data lancamento detalhes"
	t.DescCol, t.DescExtraCol, t.AmountCol = 1, 2, 4
	RegisterTemplate(t)

	t = base(BankSantander, domain.SourceExtrato)
	t.Delimiter = ';'
	t.Signature = []string{"data", "descricao", "docto", "situacao", "credito", "debito"}
	t.HeaderMarker = "data descricao docto situacao"
	t.DescCol, t.CreditCol, t.DebitCol = 1, 4, 5
	RegisterTemplate(t)

	t = base(BankCaixa, domain.SourceExtrato)
	t.Delimiter = ';'
	t.Signature = []string{"conta", "data mov", "nr doc", "historico", "valor", "deb cred"}
	t.HeaderMarker = "conta data mov"
	t.DateCol, t.DescCol, t.AmountCol, t.IndicatorCol = 1, 3, 4, 5
	RegisterTemplate(t)

	t = base(BankC6, domain.SourceFatura)
	t.Delimiter = ';'
	t.Signature = []string{"data de compra", "nome no cartao", "final do cartao", "categoria", "descricao", "parcela"}
	t.HeaderMarker = "data de compra nome no cartao"
	t.DescCol, t.InstallmentCol, t.AmountCol = 4, 5, 8
	t.SkipPatterns = append(t.SkipPatterns, invoiceRows)
	RegisterTemplate(t)
}

// matchSignature procura o layout cujo cabeçalho aparece nas primeiras linhas.
// Assinaturas mais longas vencem (Santander e Bradesco compartilham colunas);
// no empate vence o primeiro por banco e tipo.
func matchSignature(rows [][]string) (ColumnTemplate, bool) {
	limit := len(rows)
	if limit > 20 {
		limit = 20
	}
	candidates := sortedTemplates()
	var best ColumnTemplate
	bestLen := 0
	for i := 0; i < limit; i++ {
		cells := make([]string, len(rows[i]))
		for j, c := range rows[i] {
			cells[j] = normalize.Normalize(c)
		}
		for _, t := range candidates {
			if len(t.Signature) <= bestLen || !signatureMatches(cells, t.Signature) {
				continue
			}
			best, bestLen = t, len(t.Signature)
		}
		if bestLen > 0 {
			return best, true
		}
	}
	return best, false
}

// signatureMatches exige cada coluna da assinatura, em ordem, como prefixo de
// uma célula do cabeçalho.
func signatureMatches(cells []string, sig []string) bool {
	if len(cells) < len(sig) {
		return false
	}
	pos := 0
	for _, want := range sig {
		found := false
		for pos < len(cells) {
			c := cells[pos]
			pos++
			if c == want || strings.HasPrefix(c, want+" ") {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
