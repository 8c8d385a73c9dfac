package investment

import (
	"fmt"
	"strings"

	"import-service/internal/domain"
)

var statusInvestVendor = vendor{
	source: SourceStatusInvest,
	columns: []columnSpec{
		{field: fieldDate, names: []string{"data operacao", "data"}, required: true},
		{field: fieldCategory, names: []string{"categoria"}},
		{field: fieldTicker, names: []string{"codigo ativo"}, required: true},
		{field: fieldMovement, names: []string{"operacao c v"}, required: true},
		{field: fieldQuantity, names: []string{"quantidade"}, required: true},
		{field: fieldPrice, names: []string{"preco unitario", "preco"}, required: true},
		{field: fieldTotal, names: []string{"valor total"}},
		{field: fieldInstitution, names: []string{"corretora"}},
	},
	fees:  []string{"corretagem", "taxas", "impostos", "irrf"},
	build: buildConsolidated(statusInvestRules),
}

var myProfitVendor = vendor{
	source: SourceMyProfit,
	columns: []columnSpec{
		{field: fieldDate, names: []string{"data", "data da operacao"}, required: true},
		{field: fieldTicker, names: []string{"ativo", "ticker", "codigo"}, required: true},
		{field: fieldMovement, names: []string{"tipo de operacao", "operacao", "tipo"}, required: true},
		{field: fieldCategory, names: []string{"tipo de ativo", "classe", "categoria"}},
		{field: fieldName, names: []string{"nome", "descricao"}},
		{field: fieldQuantity, names: []string{"quantidade", "qtd"}, required: true},
		{field: fieldPrice, names: []string{"preco unitario", "preco", "valor unitario"}},
		{field: fieldTotal, names: []string{"valor total", "total"}},
		{field: fieldCurrency, names: []string{"moeda"}},
		{field: fieldInstitution, names: []string{"corretora", "instituicao"}},
	},
	fees:  []string{"taxas", "custos", "corretagem", "outros custos"},
	build: buildConsolidated(myProfitRules),
}

var kinvoVendor = vendor{
	source: SourceKinvo,
	columns: []columnSpec{
		{field: fieldDate, names: []string{"data", "data da movimentacao"}, required: true},
		{field: fieldProduct, names: []string{"produto"}, required: true},
		{field: fieldCategory, names: []string{"classe", "classe do ativo", "categoria"}, required: true},
		{field: fieldMovement, names: []string{"tipo de movimentacao", "movimentacao", "tipo"}, required: true},
		{field: fieldQuantity, names: []string{"quantidade"}},
		{field: fieldPrice, names: []string{"valor unitario", "preco"}},
		{field: fieldTotal, names: []string{"valor total", "valor bruto", "valor"}},
		{field: fieldInstitution, names: []string{"instituicao", "corretora"}},
	},
	build: buildKinvo,
}

// buildConsolidated atende StatusInvest e MyProfit: ticker explícito, categoria
// opcional e custos em colunas próprias.
func buildConsolidated(rules RuleTable) func(r rowValues) (domain.InvestmentOperation, bool, error) {
	return func(r rowValues) (domain.InvestmentOperation, bool, error) {
		var op domain.InvestmentOperation

		movement := r.str(fieldMovement)
		typ, matched := rules.ClassifyOK(movement, IndicatorNone)
		if !matched {
			return op, false, fmt.Errorf("tipo de operação desconhecido %q", movement)
		}
		if typ == domain.OpIgnore {
			return op, true, nil
		}
		date, err := r.date()
		if err != nil {
			return op, false, err
		}
		ticker := normalizeTicker(r.str(fieldTicker))
		if ticker == "" {
			return op, false, fmt.Errorf("ticker ausente")
		}
		asset, ok := CategoryAssetType(r.str(fieldCategory))
		if !ok {
			asset = InferAssetType(ticker)
		}
		qty, price, total, err := amounts(typ, r)
		if err != nil {
			return op, false, err
		}
		fees, err := r.feeTotal()
		if err != nil {
			return op, false, err
		}

		op = domain.InvestmentOperation{
			Date:        date,
			Type:        typ,
			Ticker:      ticker,
			Name:        r.str(fieldName),
			AssetType:   asset,
			Quantity:    qty,
			Price:       price,
			Total:       total,
			Currency:    currencyCell(r.str(fieldCurrency), CurrencyFor(asset, ticker)),
			Institution: r.str(fieldInstitution),
			Fees:        fees.InexactFloat64(),
		}
		return op, false, nil
	}
}

// buildKinvo: o produto pode ser um ticker ("PETR4") ou o nome de um título
// ("CDB Banco X 120% CDI"), caso em que o ticker é sintetizado.
func buildKinvo(r rowValues) (domain.InvestmentOperation, bool, error) {
	var op domain.InvestmentOperation

	movement := r.str(fieldMovement)
	typ, matched := kinvoRules.ClassifyOK(movement, IndicatorNone)
	if !matched {
		return op, false, fmt.Errorf("movimentação desconhecida %q", movement)
	}
	if typ == domain.OpIgnore {
		return op, true, nil
	}
	date, err := r.date()
	if err != nil {
		return op, false, err
	}

	product := r.str(fieldProduct)
	asset, hasCategory := CategoryAssetType(r.str(fieldCategory))
	ticker, name, synthetic := kinvoTicker(product)
	switch {
	case ticker == "":
		return op, false, fmt.Errorf("produto ausente")
	case !hasCategory && synthetic:
		asset = FixedIncomeAssetType(product)
	case !hasCategory:
		asset = InferAssetType(ticker)
	}

	var qty, price, total float64
	if _, hasQty, _ := r.amount(fieldQuantity); !hasQty && typ != domain.OpDividend {
		// renda fixa sem cotas: uma unidade pelo valor aplicado
		t, ok, err := r.amount(fieldTotal)
		if err != nil {
			return op, false, err
		}
		if !ok || t.IsZero() {
			return op, false, fmt.Errorf("quantidade e valor ausentes")
		}
		qty, price, total = 1, t.InexactFloat64(), t.InexactFloat64()
	} else if qty, price, total, err = amounts(typ, r); err != nil {
		return op, false, err
	}

	op = domain.InvestmentOperation{
		Date:        date,
		Type:        typ,
		Ticker:      ticker,
		Name:        name,
		AssetType:   asset,
		Quantity:    qty,
		Price:       price,
		Total:       total,
		Currency:    CurrencyFor(asset, ticker),
		Institution: r.str(fieldInstitution),
	}
	return op, false, nil
}

// kinvoTicker devolve ticker, nome e se o ticker foi sintetizado.
func kinvoTicker(product string) (string, string, bool) {
	product = strings.TrimSpace(product)
	if product == "" {
		return "", "", false
	}
	head, rest := product, ""
	if i := strings.Index(product, " - "); i >= 0 {
		head, rest = strings.TrimSpace(product[:i]), strings.TrimSpace(product[i+3:])
	}
	t := normalizeTicker(head)
	if !IsFixedIncome(product) && (brTickerRegex.MatchString(t) || usTickerRegex.MatchString(t) || cryptoSymbols[t]) {
		return t, rest, false
	}
	return FixedIncomeTicker(product), product, true
}
