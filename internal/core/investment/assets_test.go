package investment

import (
	"testing"

	"import-service/internal/domain"
)

func TestInferAssetType(t *testing.T) {
	tests := []struct {
		ticker string
		want   domain.AssetType
	}{
		{"PETR4", domain.AssetStockBR},
		{"petr4", domain.AssetStockBR},
		{"MXRF11", domain.AssetReitBR},
		{"BOVA11", domain.AssetETFBR},
		{"TAEE11", domain.AssetStockBR},
		{"AAPL34", domain.AssetStockUS},
		{"AAPL", domain.AssetStockUS},
		{"BRK.B", domain.AssetStockUS},
		{"BTC", domain.AssetCrypto},
	}
	for _, tt := range tests {
		t.Run(tt.ticker, func(t *testing.T) {
			if got := InferAssetType(tt.ticker); got != tt.want {
				t.Errorf("InferAssetType(%q) = %s, want %s", tt.ticker, got, tt.want)
			}
		})
	}
}

func TestCurrencyFor(t *testing.T) {
	if got := CurrencyFor(domain.AssetStockUS, "AAPL34"); got != domain.CurrencyBRL {
		t.Errorf("BDR currency = %s", got)
	}
	if got := CurrencyFor(domain.AssetStockUS, "AAPL"); got != domain.CurrencyUSD {
		t.Errorf("US stock currency = %s", got)
	}
	if got := CurrencyFor(domain.AssetReitBR, "HGLG11"); got != domain.CurrencyBRL {
		t.Errorf("FII currency = %s", got)
	}
}

func TestCategoryAssetType(t *testing.T) {
	tests := []struct {
		category string
		want     domain.AssetType
		ok       bool
	}{
		{"Ações", domain.AssetStockBR, true},
		{"FII", domain.AssetReitBR, true},
		{"Fundos Imobiliários", domain.AssetReitBR, true},
		{"ETF Internacional", domain.AssetETFUS, true},
		{"ETF", domain.AssetETFBR, true},
		{"Stocks", domain.AssetStockUS, true},
		{"Tesouro Direto", domain.AssetTreasure, true},
		{"Renda Fixa", domain.AssetFixedIncome, true},
		{"Criptomoedas", domain.AssetCrypto, true},
		{"Fiagro", domain.AssetFiagro, true},
		{"", "", false},
		{"Outros", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.category, func(t *testing.T) {
			got, ok := CategoryAssetType(tt.category)
			if got != tt.want || ok != tt.ok {
				t.Errorf("CategoryAssetType(%q) = %s/%v, want %s/%v", tt.category, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestFixedIncomeTicker(t *testing.T) {
	tests := []struct {
		product string
		want    string
	}{
		{"Tesouro IPCA+ 2035", "TESOURO-IPCA-2035"},
		{"LCA Banco Açaí", "LCA-BANCO-ACAI"},
		{"CDB BANCO EXEMPLO S.A. - DEZ/2027 IPCA", "CDB-BANCO-EXEMPLO-S-A-DEZ-2027"},
	}
	for _, tt := range tests {
		t.Run(tt.product, func(t *testing.T) {
			got := FixedIncomeTicker(tt.product)
			if got != tt.want {
				t.Errorf("FixedIncomeTicker(%q) = %q, want %q", tt.product, got, tt.want)
			}
			if len(got) > 30 {
				t.Errorf("ticker longer than 30: %q", got)
			}
		})
	}
}

func TestIsFixedIncome(t *testing.T) {
	for _, p := range []string{"Tesouro Selic 2029", "CDB Banco X", "Debênture VALE", "LCI Caixa"} {
		if !IsFixedIncome(p) {
			t.Errorf("IsFixedIncome(%q) = false", p)
		}
	}
	for _, p := range []string{"PETR4 - PETROBRAS", "CRIPTO"} {
		if IsFixedIncome(p) {
			t.Errorf("IsFixedIncome(%q) = true", p)
		}
	}
}
