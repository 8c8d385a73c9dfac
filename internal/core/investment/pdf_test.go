package investment

import (
	"strings"
	"testing"
	"time"

	"import-service/internal/domain"
)

func TestDetectPDFSource(t *testing.T) {
	tests := []struct {
		text string
		want Source
	}{
		{"NOTA DE CORRETAGEM\nNegócios realizados", SourceNote},
		{"XP INVESTIMENTOS CCTVM S/A", SourceNote},
		{"Interactive Brokers LLC\nActivity Statement", SourceIBKR},
		{"Inter Co Securities LLC\nTransaction Confirmation", SourceInterGlobal},
		{"Avenue Securities LLC\nTransaction Confirmation\nApex Clearing Corporation", SourceAvenue},
		{"Extrato qualquer\nPETR4 100 28,50", SourceGeneric},
	}
	for _, tt := range tests {
		if got := DetectPDFSource(tt.text); got != tt.want {
			t.Errorf("DetectPDFSource(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestParseAvenueText(t *testing.T) {
	page := strings.Join([]string{
		"Avenue Securities LLC",
		"Cleared by Apex Clearing Corporation",
		"Current Trade Date: 12/16/22",
		"Acct Type B/S Trade Date Settle Date QTY SYM PRICE Principal COMM Tran Fee Add'l Fees Tag Number Net Amount",
		"1 B 12/16/22 12/20/22 0.99965 AMZN 87.2299000 87.20 0.00 0.00 0.00 R4313 87.20",
		"1 S 12/16/22 12/20/22 2 SPY 380.10 760.20 1.00 0.02 0.01 R4314 759.17",
		"1 B 12/16/22 12/20/22 abc AAPL 10.00",
	}, "\n")

	note := ParsePDFText([]string{page}, Options{})

	if note.DetectedSource != string(SourceAvenue) || note.Broker != "Avenue" || note.Currency != domain.CurrencyUSD {
		t.Fatalf("source/broker/currency = %q/%q/%q", note.DetectedSource, note.Broker, note.Currency)
	}
	if note.SuccessCount != 2 || note.ErrorCount != 1 || !strings.HasPrefix(note.Errors[0], "Linha 7:") {
		t.Fatalf("success/errors = %d/%d: %v", note.SuccessCount, note.ErrorCount, note.Errors)
	}
	if y, m, d := note.NoteDate.Date(); y != 2022 || m != time.December || d != 16 {
		t.Errorf("NoteDate = %v", note.NoteDate)
	}

	buy, sell := note.Operations[0], note.Operations[1]
	if buy.Type != domain.OpBuy || buy.Ticker != "AMZN" || buy.Quantity != 0.99965 || buy.Total != 87.20 {
		t.Errorf("buy = %+v", buy)
	}
	if buy.AssetType != domain.AssetStockUS || buy.Currency != domain.CurrencyUSD {
		t.Errorf("buy metadata = %+v", buy)
	}
	if sell.Type != domain.OpSell || sell.Ticker != "SPY" || sell.Quantity != 2 || sell.Price != 380.10 || sell.Total != 760.20 {
		t.Errorf("sell = %+v", sell)
	}
	if sell.AssetType != domain.AssetETFUS || sell.Fees != 1.03 {
		t.Errorf("sell asset/fees = %q/%v", sell.AssetType, sell.Fees)
	}
	if note.Fees.Brokerage != 1 || note.Fees.Settlement != 0.03 || note.Fees.Total != 1.03 {
		t.Errorf("Fees = %+v", note.Fees)
	}
	if note.NetValue != 848.43 {
		t.Errorf("NetValue = %v", note.NetValue)
	}
	if len(note.Warnings) != 0 {
		t.Errorf("Warnings = %v", note.Warnings)
	}
}

func TestParseInterGlobalText(t *testing.T) {
	page := strings.Join([]string{
		"Inter Co Securities LLC",
		"Transaction Confirmation",
		"Confirmation Date: 10/31/2025",
		"Symbol Security A/CType Action Execution Time Quantity Price Trade Date Settle Date Capacity",
		"TLT ISHARES TR 20 YR TR BD ETF M Buy 1:11:34 PM 1 90.3799 10/31/2025 11/3/2025 Agency",
		"AAPL APPLE INC M Sell 10:02:11 AM 2.5 200 10/30/2025 11/3/2025 Agency",
		"MSFT MICROSOFT CORP M Buy 9:30:00 AM",
	}, "\n")

	note := ParsePDFText([]string{page}, Options{})

	if note.DetectedSource != string(SourceInterGlobal) || note.Broker != "Inter Global" {
		t.Fatalf("source/broker = %q/%q", note.DetectedSource, note.Broker)
	}
	if note.SuccessCount != 2 || note.ErrorCount != 1 || !strings.HasPrefix(note.Errors[0], "Linha 7:") {
		t.Fatalf("success/errors = %d/%d: %v", note.SuccessCount, note.ErrorCount, note.Errors)
	}
	tlt, aapl := note.Operations[0], note.Operations[1]
	if tlt.Type != domain.OpBuy || tlt.Quantity != 1 || tlt.Price != 90.3799 || tlt.Total != 90.38 {
		t.Errorf("tlt = %+v", tlt)
	}
	if tlt.AssetType != domain.AssetETFUS || tlt.Name != "ISHARES TR 20 YR TR BD ETF M" {
		t.Errorf("tlt asset/name = %q/%q", tlt.AssetType, tlt.Name)
	}
	if aapl.Type != domain.OpSell || aapl.Quantity != 2.5 || aapl.Total != 500 || aapl.AssetType != domain.AssetStockUS {
		t.Errorf("aapl = %+v", aapl)
	}
	if aapl.Date.Day() != 30 || note.NoteDate.Day() != 31 {
		t.Errorf("dates = %v/%v", aapl.Date, note.NoteDate)
	}
}

func TestParseIBKRText(t *testing.T) {
	page := strings.Join([]string{
		"Interactive Brokers LLC",
		"Activity Statement",
		"Trades",
		"Symbol Date/Time Quantity T. Price C. Price Proceeds Comm/Fee Basis Realized P/L MTM P/L Code",
		"Stocks",
		"USD",
		"AAPL 2024-01-15, 10:30:00 10 185.50 185.60 -1,855.00 -1.00 1,856.00 0.00 1.00 O",
		"MSFT 2024-01-16, 11:00:00 -5 400.00 401.00 2,000.00 -1.50 -1,800.00 198.50 -5.00 C",
		"Total 3,855.00",
		"EUR",
		"SAP 2024-01-17, 09:00:00 3 150.00 151.00 -450.00 -2.00 452.00 0.00 3.00 O",
		"Equity and Index Options",
		"USD",
		"SPY 2024-01-18, 09:00:00 1 5.00 5.10 -500.00 -1.00 501.00 0.00 10.00 O",
		"Open Positions",
		"AAPL 2024-01-31, 10 185.50 190.00",
	}, "\n")

	note := ParsePDFText([]string{page}, Options{})

	if note.DetectedSource != string(SourceIBKR) {
		t.Fatalf("DetectedSource = %q", note.DetectedSource)
	}
	if note.SuccessCount != 2 || note.ErrorCount != 2 {
		t.Fatalf("success/errors = %d/%d: %v", note.SuccessCount, note.ErrorCount, note.Errors)
	}
	if !strings.HasPrefix(note.Errors[0], "Linha 11:") || !strings.HasPrefix(note.Errors[1], "Linha 14:") {
		t.Errorf("errors = %v", note.Errors)
	}
	buy, sell := note.Operations[0], note.Operations[1]
	if buy.Type != domain.OpBuy || buy.Ticker != "AAPL" || buy.Quantity != 10 || buy.Total != 1855 || buy.Fees != 1 {
		t.Errorf("buy = %+v", buy)
	}
	if sell.Type != domain.OpSell || sell.Quantity != 5 || sell.Price != 400 || sell.Total != 2000 || sell.Fees != 1.5 {
		t.Errorf("sell = %+v", sell)
	}
	if note.Fees.Total != 2.5 || note.NetValue != 3857.5 {
		t.Errorf("fees/net = %v/%v", note.Fees.Total, note.NetValue)
	}
	if note.NoteDate.Day() != 15 {
		t.Errorf("NoteDate = %v", note.NoteDate)
	}
}

func TestParseGenericText(t *testing.T) {
	page := strings.Join([]string{
		"Corretora Exemplo",
		"Data: 05/03/2024",
		"Compra PETR4 100 28,50 2.850,00",
		"Venda VALE3 10 60,00 600,00",
		"CNPJ 12.345.678/0001-90",
	}, "\n")

	note := ParsePDFText([]string{page}, Options{})

	if note.DetectedSource != string(SourceGeneric) || note.Currency != domain.CurrencyBRL {
		t.Fatalf("source/currency = %q/%q", note.DetectedSource, note.Currency)
	}
	if note.SuccessCount != 2 || note.ErrorCount != 0 {
		t.Fatalf("success/errors = %d/%d: %v", note.SuccessCount, note.ErrorCount, note.Errors)
	}
	if len(note.Warnings) != 1 || note.Warnings[0] != msgGenericReader {
		t.Errorf("Warnings = %v", note.Warnings)
	}
	buy, sell := note.Operations[0], note.Operations[1]
	if buy.Ticker != "PETR4" || buy.Type != domain.OpBuy || buy.Quantity != 100 || buy.Price != 28.5 || buy.Total != 2850 {
		t.Errorf("buy = %+v", buy)
	}
	if sell.Ticker != "VALE3" || sell.Type != domain.OpSell || sell.Total != 600 {
		t.Errorf("sell = %+v", sell)
	}
	if y, m, d := buy.Date.Date(); y != 2024 || m != time.March || d != 5 {
		t.Errorf("date = %v", buy.Date)
	}
}

func TestParsePDFForcedSource(t *testing.T) {
	note := ParsePDF([]byte("%PDF"), Options{Source: "b3"})
	if note.ErrorCount != 1 || !strings.Contains(note.Errors[0], "não é suportada para PDF") {
		t.Errorf("errors = %v", note.Errors)
	}

	// o layout informado vence a detecção
	page := "Interactive Brokers\nCompra PETR4 100 28,50 2.850,00"
	if got := ParsePDFText([]string{page}, Options{Source: "generico"}); got.DetectedSource != string(SourceGeneric) {
		t.Errorf("DetectedSource = %q", got.DetectedSource)
	}
}
