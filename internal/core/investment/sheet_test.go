package investment

import (
	"strings"
	"testing"
	"time"

	"import-service/internal/domain"

	"github.com/xuri/excelize/v2"
)

func buildWorkbook(t *testing.T, rows [][]string) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow("Sheet1", cell, &values); err != nil {
			t.Fatal(err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

var b3Rows = [][]string{
	{"Entrada/Saída", "Data", "Movimentação", "Produto", "Instituição", "Quantidade", "Preço unitário", "Valor da Operação"},
	{"Credito", "15/01/2024", "Transferência - Liquidação", "PETR4 - PETROLEO BRASILEIRO S/A PETROBRAS", "XP INVESTIMENTOS CCTVM S/A", "100", "28,50", "2.850,00"},
	{"Credito", "20/01/2024", "Rendimento", "MXRF11 - MAXI RENDA FUNDO DE INVESTIMENTO IMOBILIARIO", "XP INVESTIMENTOS CCTVM S/A", "100", "0,10", "10,00"},
	{"Debito", "22/01/2024", "Resgate", "CDB BANCO EXEMPLO S.A. - DEZ/2027 IPCA", "XP INVESTIMENTOS CCTVM S/A", "1", "1.000,00", "1.050,00"},
	{"Credito", "25/01/2024", "Atualização", "PETR4 - PETROLEO BRASILEIRO S/A PETROBRAS", "XP INVESTIMENTOS CCTVM S/A", "100", "-", "-"},
	{"", "26/01/2024", "Movimento estranho", "ITSA4 - ITAUSA", "XP INVESTIMENTOS CCTVM S/A", "10", "10,00", "100,00"},
}

func TestParseWorkbookB3(t *testing.T) {
	res := ParseWorkbook(buildWorkbook(t, b3Rows), Options{})

	if res.DetectedSource != string(SourceB3) {
		t.Fatalf("DetectedSource = %q (%v)", res.DetectedSource, res.Errors)
	}
	if res.SuccessCount != 3 || res.ErrorCount != 1 {
		t.Fatalf("success/errors = %d/%d: %v", res.SuccessCount, res.ErrorCount, res.Errors)
	}
	if !strings.HasPrefix(res.Errors[0], "Linha 6: movimentação desconhecida") {
		t.Errorf("error = %q", res.Errors[0])
	}

	buy := res.Operations[0]
	if buy.Type != domain.OpBuy || buy.Ticker != "PETR4" || buy.Name != "PETROLEO BRASILEIRO S/A PETROBRAS" {
		t.Errorf("buy = %+v", buy)
	}
	if buy.Quantity != 100 || buy.Price != 28.5 || buy.Total != 2850 || buy.Currency != domain.CurrencyBRL {
		t.Errorf("buy amounts = %+v", buy)
	}
	if y, m, d := buy.Date.Date(); y != 2024 || m != time.January || d != 15 {
		t.Errorf("buy date = %v", buy.Date)
	}

	div := res.Operations[1]
	if div.Type != domain.OpDividend || div.Ticker != "MXRF11" || div.AssetType != domain.AssetReitBR {
		t.Errorf("dividend = %+v", div)
	}
	if div.Quantity != 1 || div.Price != 10 || div.Total != 10 {
		t.Errorf("dividend amounts = %+v", div)
	}

	cdb := res.Operations[2]
	if cdb.Type != domain.OpSell || cdb.Ticker != "CDB-BANCO-EXEMPLO-S-A-DEZ-2027" || cdb.AssetType != domain.AssetFixedIncome {
		t.Errorf("cdb = %+v", cdb)
	}
	if cdb.Total != 1050 || cdb.Price != 1000 {
		t.Errorf("cdb amounts = %+v", cdb)
	}
}

func TestParseWorkbookFailures(t *testing.T) {
	data := buildWorkbook(t, b3Rows)
	tests := []struct {
		name string
		data []byte
		opts Options
		want string
	}{
		{"arquivo ilegivel", []byte("isto não é planilha"), Options{}, "Não foi possível ler a planilha"},
		{"fonte sem planilha", data, Options{Source: "ibkr"}, "não é suportada para planilhas"},
		{"cabecalho de outra fonte", data, Options{Source: "kinvo"}, "Cabeçalho esperado para kinvo"},
		{"formato desconhecido", buildWorkbook(t, [][]string{{"a", "b"}, {"1", "2"}}), Options{}, msgUnknownWorkbook},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ParseWorkbook(tt.data, tt.opts)
			if res.ErrorCount != 1 || len(res.Operations) != 0 {
				t.Fatalf("got %+v", res)
			}
			if !strings.Contains(res.Errors[0], tt.want) {
				t.Errorf("error = %q, want substring %q", res.Errors[0], tt.want)
			}
		})
	}
}

func TestParseSheetStatusInvest(t *testing.T) {
	rows := [][]string{
		{"Data operação", "Categoria", "Código Ativo", "Operação C/V", "Quantidade", "Preço unitário", "Corretora", "Corretagem", "Taxas", "Impostos", "IRRF"},
		{"10/01/2024", "Ações", "BBAS3", "C", "100", "27,50", "Inter", "4,90", "0,10", "", ""},
		{"11/01/2024", "FII", "HGLG11", "V", "5", "160,00", "Inter", "", "0,05", "", ""},
		{"12/01/2024", "Ações", "BBAS3", "X", "1", "1,00", "Inter", "", "", "", ""},
	}
	res := ParseSheet(rows, Options{})

	if res.DetectedSource != string(SourceStatusInvest) {
		t.Fatalf("DetectedSource = %q", res.DetectedSource)
	}
	if res.SuccessCount != 2 || res.ErrorCount != 1 {
		t.Fatalf("success/errors = %d/%d: %v", res.SuccessCount, res.ErrorCount, res.Errors)
	}
	if !strings.HasPrefix(res.Errors[0], "Linha 4:") {
		t.Errorf("error = %q", res.Errors[0])
	}
	buy := res.Operations[0]
	if buy.Type != domain.OpBuy || buy.Total != 2750 || buy.Fees != 5 || buy.AssetType != domain.AssetStockBR || buy.Institution != "Inter" {
		t.Errorf("buy = %+v", buy)
	}
	sell := res.Operations[1]
	if sell.Type != domain.OpSell || sell.Total != 800 || sell.AssetType != domain.AssetReitBR {
		t.Errorf("sell = %+v", sell)
	}
}

func TestParseSheetMyProfit(t *testing.T) {
	rows := [][]string{
		{"Data", "Ativo", "Tipo de Operação", "Quantidade", "Preço Unitário", "Valor Total", "Taxas", "Moeda", "Corretora"},
		{"05/02/2024", "IVVB11", "Compra", "10", "300,00", "3.000,00", "1,50", "BRL", "XP"},
		{"06/02/2024", "AAPL", "Compra", "2", "180.50", "", "", "USD", "Avenue"},
		{"07/02/2024", "ITSA4", "Dividendo", "", "", "25,30", "", "BRL", "XP"},
		{"08/02/2024", "PETR4", "Desdobramento", "100", "", "", "", "", ""},
	}
	res := ParseSheet(rows, Options{})

	if res.DetectedSource != string(SourceMyProfit) {
		t.Fatalf("DetectedSource = %q", res.DetectedSource)
	}
	if res.SuccessCount != 3 || res.ErrorCount != 0 {
		t.Fatalf("success/errors = %d/%d: %v", res.SuccessCount, res.ErrorCount, res.Errors)
	}
	etf := res.Operations[0]
	if etf.AssetType != domain.AssetETFBR || etf.Fees != 1.5 || etf.Total != 3000 {
		t.Errorf("etf = %+v", etf)
	}
	us := res.Operations[1]
	if us.AssetType != domain.AssetStockUS || us.Currency != domain.CurrencyUSD || us.Total != 361 {
		t.Errorf("us = %+v", us)
	}
	div := res.Operations[2]
	if div.Type != domain.OpDividend || div.Quantity != 1 || div.Price != 25.3 {
		t.Errorf("dividend = %+v", div)
	}
}

func TestParseSheetKinvo(t *testing.T) {
	rows := [][]string{
		{"Data", "Produto", "Classe", "Tipo de Movimentação", "Quantidade", "Valor Unitário", "Valor Total", "Instituição"},
		{"01/03/2024", "CDB Banco Inter 110% CDI", "Renda Fixa", "Aplicação", "", "", "5.000,00", "Inter"},
		{"02/03/2024", "WEGE3", "Ações", "Compra", "10", "40,00", "400,00", "XP"},
		{"03/03/2024", "KNRI11 - Kinea Renda", "FII", "Rendimento", "", "", "8,50", "XP"},
		{"04/03/2024", "WEGE3", "Ações", "Transferência", "10", "", "", "XP"},
		{"05/03/2024", "WEGE3", "Ações", "Bonus estranho", "10", "", "", ""},
	}
	res := ParseSheet(rows, Options{})

	if res.DetectedSource != string(SourceKinvo) {
		t.Fatalf("DetectedSource = %q", res.DetectedSource)
	}
	if res.SuccessCount != 3 || res.ErrorCount != 1 {
		t.Fatalf("success/errors = %d/%d: %v", res.SuccessCount, res.ErrorCount, res.Errors)
	}
	if !strings.HasPrefix(res.Errors[0], "Linha 6:") {
		t.Errorf("error = %q", res.Errors[0])
	}
	cdb := res.Operations[0]
	if cdb.Ticker != "CDB-BANCO-INTER-110-CDI" || cdb.AssetType != domain.AssetFixedIncome || cdb.Quantity != 1 || cdb.Price != 5000 {
		t.Errorf("cdb = %+v", cdb)
	}
	if cdb.Name != "CDB Banco Inter 110% CDI" {
		t.Errorf("cdb name = %q", cdb.Name)
	}
	fii := res.Operations[2]
	if fii.Ticker != "KNRI11" || fii.Name != "Kinea Renda" || fii.Type != domain.OpDividend || fii.Total != 8.5 {
		t.Errorf("fii = %+v", fii)
	}
}

func TestResolveSource(t *testing.T) {
	tests := []struct {
		hint string
		want Source
		ok   bool
	}{
		{"", "", true},
		{"auto", "", true},
		{"B3", SourceB3, true},
		{"Status Invest", SourceStatusInvest, true},
		{"kinvoo", SourceKinvo, true},
		{"Interactive Brokers", SourceIBKR, true},
		{"xyz", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.hint, func(t *testing.T) {
			got, ok := ResolveSource(tt.hint)
			if got != tt.want || ok != tt.ok {
				t.Errorf("ResolveSource(%q) = %q/%v, want %q/%v", tt.hint, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestParseSheetIdempotent(t *testing.T) {
	a := ParseWorkbook(buildWorkbook(t, b3Rows), Options{})
	b := ParseWorkbook(buildWorkbook(t, b3Rows), Options{})
	if a.SuccessCount != b.SuccessCount || len(a.Operations) != len(b.Operations) {
		t.Fatalf("counts differ: %d vs %d", a.SuccessCount, b.SuccessCount)
	}
	for i := range a.Operations {
		if a.Operations[i] != b.Operations[i] {
			t.Errorf("operation %d differs: %+v vs %+v", i, a.Operations[i], b.Operations[i])
		}
	}
}
