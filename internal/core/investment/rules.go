package investment

import (
	"strings"

	"import-service/internal/core/normalize"
	"import-service/internal/domain"
)

// Indicator é a coluna de entrada/saída (crédito/débito) das exportações.
type Indicator int

const (
	IndicatorNone Indicator = iota
	IndicatorCredit
	IndicatorDebit
)

// ParseIndicator aceita "Crédito", "Credito", "C", "Entrada", "Débito", "D", "Saída".
func ParseIndicator(s string) Indicator {
	switch n := normalize.Normalize(s); n {
	case "credito", "c", "entrada", "cred":
		return IndicatorCredit
	case "debito", "d", "saida", "deb":
		return IndicatorDebit
	}
	return IndicatorNone
}

// Rule é um par (predicado, resultado) de uma tabela de movimentação.
type Rule struct {
	Match  func(movement string, ind Indicator) bool
	Result domain.OperationType
}

// RuleTable é avaliada na ordem: a primeira regra que casa decide. Reordenar
// muda o resultado de movimentações ambíguas.
type RuleTable []Rule

// Classify normaliza a movimentação e aplica a tabela. Sem regra aplicável o
// resultado é OpIgnore.
func (t RuleTable) Classify(movement string, ind Indicator) domain.OperationType {
	typ, _ := t.ClassifyOK(movement, ind)
	return typ
}

// ClassifyOK também informa se alguma regra casou, separando o "ignorar"
// explícito de uma movimentação desconhecida.
func (t RuleTable) ClassifyOK(movement string, ind Indicator) (domain.OperationType, bool) {
	m := normalize.Normalize(movement)
	for _, r := range t {
		if r.Match(m, ind) {
			return r.Result, true
		}
	}
	return domain.OpIgnore, false
}

func containsAny(keywords ...string) func(string, Indicator) bool {
	return func(m string, _ Indicator) bool {
		for _, k := range keywords {
			if strings.Contains(m, k) {
				return true
			}
		}
		return false
	}
}

func equalsAny(values ...string) func(string, Indicator) bool {
	return func(m string, _ Indicator) bool {
		for _, v := range values {
			if m == v {
				return true
			}
		}
		return false
	}
}

// only casa quando a palavra aparece e a palavra oposta não ("Compra/Venda"
// cai no fallback pelo indicador).
func only(word, opposite string) func(string, Indicator) bool {
	return func(m string, _ Indicator) bool {
		return strings.Contains(m, word) && !strings.Contains(m, opposite)
	}
}

func byIndicator(ind Indicator) func(string, Indicator) bool {
	return func(_ string, got Indicator) bool { return got == ind }
}

// b3Rules segue a ordem ignorar > provento > venda/compra explícitas > indicador.
var b3Rules = RuleTable{
	{containsAny("emprestimo", "atualizacao", "desdobro", "grupamento", "bonificacao",
		"direito de subscricao", "direitos de subscricao", "cessao de direitos", "recibo de subscricao",
		"incorporacao", "fracao em ativos", "transferencia custodia"), domain.OpIgnore},
	{func(m string, _ Indicator) bool {
		return strings.Contains(m, "transferencia") && !strings.Contains(m, "liquidacao")
	}, domain.OpIgnore},
	{containsAny("rendimento", "dividendo", "juros sobre capital", "jcp", "reembolso"), domain.OpDividend},
	{containsAny("resgate", "vencimento", "leilao de fracao", "amortizacao"), domain.OpSell},
	{only("venda", "compra"), domain.OpSell},
	{only("compra", "venda"), domain.OpBuy},
	{byIndicator(IndicatorCredit), domain.OpBuy},
	{byIndicator(IndicatorDebit), domain.OpSell},
}

// MapB3Movement classifica uma linha do extrato de movimentação da B3.
func MapB3Movement(movement, indicator string) domain.OperationType {
	return b3Rules.Classify(movement, ParseIndicator(indicator))
}

var myProfitRules = RuleTable{
	{containsAny("desdobramento", "grupamento", "bonificacao", "subscricao", "transferencia"), domain.OpIgnore},
	{containsAny("dividendo", "rendimento", "jcp", "juros", "provento"), domain.OpDividend},
	{containsAny("venda"), domain.OpSell},
	{containsAny("compra"), domain.OpBuy},
}

var statusInvestRules = RuleTable{
	{containsAny("rendimento", "dividendo", "jcp", "juros"), domain.OpDividend},
	{equalsAny("v", "venda"), domain.OpSell},
	{equalsAny("c", "compra"), domain.OpBuy},
}

var kinvoRules = RuleTable{
	{containsAny("transferencia", "come cotas", "taxa de custodia", "ajuste"), domain.OpIgnore},
	{containsAny("provento", "dividendo", "jcp", "juros", "rendimento"), domain.OpDividend},
	{containsAny("resgate", "venda", "amortizacao", "vencimento"), domain.OpSell},
	{containsAny("aplicacao", "compra", "subscricao"), domain.OpBuy},
}
