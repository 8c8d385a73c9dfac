package investment

import (
	"fmt"
	"strings"

	"import-service/internal/domain"
)

// Extrato de movimentação e de negociação da Área do Investidor da B3.
var b3Vendor = vendor{
	source: SourceB3,
	columns: []columnSpec{
		{field: fieldDate, names: []string{"data", "data do negocio"}, required: true},
		{field: fieldIndicator, names: []string{"entrada saida"}},
		{field: fieldMovement, names: []string{"movimentacao", "tipo de movimentacao"}, required: true},
		{field: fieldProduct, names: []string{"produto"}},
		{field: fieldTicker, names: []string{"codigo de negociacao"}},
		{field: fieldInstitution, names: []string{"instituicao"}},
		{field: fieldQuantity, names: []string{"quantidade"}, required: true},
		{field: fieldPrice, names: []string{"preco unitario", "preco"}},
		{field: fieldTotal, names: []string{"valor da operacao", "valor"}},
	},
	accept: func(m columnMap) bool {
		return (m.has(fieldIndicator) && m.has(fieldProduct)) || m.has(fieldTicker)
	},
	build: buildB3,
}

func buildB3(r rowValues) (domain.InvestmentOperation, bool, error) {
	var op domain.InvestmentOperation

	movement := r.str(fieldMovement)
	typ, matched := b3Rules.ClassifyOK(movement, ParseIndicator(r.str(fieldIndicator)))
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
	ticker, name, asset := b3Asset(r.str(fieldTicker), r.str(fieldProduct))
	if ticker == "" {
		return op, false, fmt.Errorf("produto sem código de negociação %q", r.str(fieldProduct))
	}
	qty, price, total, err := amounts(typ, r)
	if err != nil {
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
		Currency:    domain.CurrencyBRL,
		Institution: r.str(fieldInstitution),
	}
	return op, false, nil
}

// b3Asset extrai ticker, nome e tipo do código de negociação ou da coluna
// "Produto" ("PETR4 - PETROLEO BRASILEIRO S.A. PETROBRAS"). Renda fixa e
// Tesouro não têm ticker: o código é sintetizado do nome completo.
func b3Asset(code, product string) (string, string, domain.AssetType) {
	if code != "" {
		t := normalizeTicker(code)
		return t, product, InferAssetType(t)
	}
	product = strings.TrimSpace(product)
	if product == "" {
		return "", "", ""
	}
	if IsFixedIncome(product) {
		return FixedIncomeTicker(product), product, FixedIncomeAssetType(product)
	}

	head, name := product, ""
	if i := strings.Index(product, " - "); i >= 0 {
		head, name = strings.TrimSpace(product[:i]), strings.TrimSpace(product[i+3:])
	}
	t := normalizeTicker(head)
	if strings.ContainsAny(t, " \t") {
		return FixedIncomeTicker(product), product, domain.AssetFund
	}
	return t, name, InferAssetType(t)
}
