// Package investment lê exportações de corretoras e consolidadores (B3,
// MyProfit, StatusInvest, Kinvo, IBKR) e notas de corretagem SINACOR.
package investment

import (
	"regexp"
	"strings"

	"import-service/internal/core/normalize"
	"import-service/internal/domain"
)

var (
	brTickerRegex = regexp.MustCompile(`^[A-Z]{4}\d{1,2}$`)
	fiiRegex      = regexp.MustCompile(`^[A-Z]{4}11$`)
	bdrRegex      = regexp.MustCompile(`^[A-Z]{4}3[2-59]$`)
	usTickerRegex = regexp.MustCompile(`^[A-Z]{1,5}(?:\.[A-Z])?$`)
)

// ETFs negociados na B3.
var brETFs = map[string]bool{
	"BOVA11": true, "IVVB11": true, "SMAL11": true, "HASH11": true, "DIVO11": true,
	"BOVB11": true, "ECOO11": true, "BOVV11": true, "NASD11": true, "GOLD11": true,
	"SPXI11": true, "IMAB11": true, "FIXA11": true, "B5P211": true, "XINA11": true,
	"WRLD11": true, "ACWI11": true, "QBTC11": true, "ETHE11": true,
}

// Units: terminam em 11 mas são ações, não FIIs.
var brUnits = map[string]bool{
	"TAEE11": true, "KLBN11": true, "SANB11": true, "BPAC11": true, "ENGI11": true,
	"ALUP11": true, "SAPR11": true, "TIET11": true, "IGTI11": true, "BRBI11": true,
}

var cryptoSymbols = map[string]bool{
	"BTC": true, "ETH": true, "SOL": true, "ADA": true, "USDT": true, "USDC": true,
	"BNB": true, "XRP": true, "DOT": true, "MATIC": true, "LTC": true, "DOGE": true,
}

// InferAssetType deduz o tipo pelo formato do ticker.
func InferAssetType(ticker string) domain.AssetType {
	t := strings.ToUpper(strings.TrimSpace(ticker))
	switch {
	case cryptoSymbols[t]:
		return domain.AssetCrypto
	case brETFs[t]:
		return domain.AssetETFBR
	case brUnits[t]:
		return domain.AssetStockBR
	case fiiRegex.MatchString(t):
		return domain.AssetReitBR
	case bdrRegex.MatchString(t):
		// BDR: ativo estrangeiro negociado em reais
		return domain.AssetStockUS
	case brTickerRegex.MatchString(t):
		return domain.AssetStockBR
	case usTickerRegex.MatchString(t):
		return domain.AssetStockUS
	}
	return domain.AssetStockBR
}

// IsBDR reports whether ticker follows the BDR suffix convention (32-35, 39).
func IsBDR(ticker string) bool {
	return bdrRegex.MatchString(strings.ToUpper(ticker))
}

// categoryRules: ordem importa ("etf internacional" antes de "etf").
var categoryRules = []struct {
	keywords []string
	asset    domain.AssetType
}{
	{[]string{"fiagro"}, domain.AssetFiagro},
	{[]string{"fundos imobiliarios", "fundo imobiliario", "fii"}, domain.AssetReitBR},
	{[]string{"reit"}, domain.AssetReitUS},
	{[]string{"etf internacional", "etfs internacionais", "etf exterior", "etf eua"}, domain.AssetETFUS},
	{[]string{"etf"}, domain.AssetETFBR},
	{[]string{"stock", "acoes eua", "acoes exterior", "bdr"}, domain.AssetStockUS},
	{[]string{"acao", "acoes"}, domain.AssetStockBR},
	{[]string{"cripto"}, domain.AssetCrypto},
	{[]string{"tesouro"}, domain.AssetTreasure},
	{[]string{"renda fixa internacional", "bond", "treasury"}, domain.AssetFixedIncomeUS},
	{[]string{"renda fixa", "cdb", "lci", "lca", "cri", "cra", "debenture"}, domain.AssetFixedIncome},
	{[]string{"fundo isento", "fundos isentos", "incentivad"}, domain.AssetFundExempt},
	{[]string{"fundo", "fundos"}, domain.AssetFund},
	{[]string{"caixa", "saldo", "conta corrente"}, domain.AssetCash},
}

// CategoryAssetType mapeia a categoria/classe informada pelo consolidador.
func CategoryAssetType(category string) (domain.AssetType, bool) {
	c := " " + normalize.Normalize(category) + " "
	if strings.TrimSpace(c) == "" {
		return "", false
	}
	for _, r := range categoryRules {
		for _, k := range r.keywords {
			if strings.Contains(c, " "+k) {
				return r.asset, true
			}
		}
	}
	return "", false
}

// CurrencyFor devolve a moeda natural do ativo. BDRs são negociados em reais.
func CurrencyFor(a domain.AssetType, ticker string) domain.Currency {
	if IsBDR(ticker) {
		return domain.CurrencyBRL
	}
	switch a {
	case domain.AssetStockUS, domain.AssetReitUS, domain.AssetETFUS, domain.AssetFixedIncomeUS:
		return domain.CurrencyUSD
	}
	return domain.CurrencyBRL
}

var fixedIncomeRegex = regexp.MustCompile(`(?i)\b(?:tesouro|lci|lca|cdb|cri|cra|deb[eê]ntures?|lf)\b`)

// IsFixedIncome reports whether a product description names a fixed-income product.
func IsFixedIncome(product string) bool {
	return fixedIncomeRegex.MatchString(normalize.StripAccents(product))
}

const maxSyntheticTicker = 30

var nonAlnum = regexp.MustCompile(`[^A-Z0-9]+`)

// FixedIncomeTicker sintetiza um ticker para produtos sem código de negociação:
// sem acentos, maiúsculo, palavras unidas por "-", no máximo 30 caracteres.
func FixedIncomeTicker(product string) string {
	s := strings.ToUpper(normalize.StripAccents(product))
	s = strings.Trim(nonAlnum.ReplaceAllString(s, "-"), "-")
	if len(s) > maxSyntheticTicker {
		s = strings.TrimRight(s[:maxSyntheticTicker], "-")
	}
	return s
}

// FixedIncomeAssetType separa Tesouro Direto dos demais títulos.
func FixedIncomeAssetType(product string) domain.AssetType {
	if strings.Contains(normalize.Normalize(product), "tesouro") {
		return domain.AssetTreasure
	}
	return domain.AssetFixedIncome
}
