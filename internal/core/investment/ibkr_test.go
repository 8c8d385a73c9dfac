package investment

import (
	"strings"
	"testing"
	"time"

	"import-service/internal/core/pdftext"
	"import-service/internal/domain"
)

const ibkrFlat = `Symbol,Date/Time,Quantity,T. Price,Proceeds,Comm/Fee,Asset Category,Currency
AAPL,"2024-01-15, 10:30:00",10,185.50,-1855.00,-1.00,Stocks,USD
MSFT,"2024-02-01, 14:00:00",-5,"1,010.00","5,050.00",-1.25,Stocks,USD
SPY 240119C00480000,"2024-01-10, 10:00:00",1,2.5,-250,-0.65,Equity and Index Options,USD
VNQ,20240105,2,85.00,,,ETF,USD
,,,,,,,
`

func TestParseIBKRFlat(t *testing.T) {
	res := ParseIBKR(ibkrFlat, Options{})

	if res.DetectedSource != string(SourceIBKR) {
		t.Errorf("DetectedSource = %q", res.DetectedSource)
	}
	if res.SuccessCount != 3 || res.ErrorCount != 1 {
		t.Fatalf("success/errors = %d/%d: %v", res.SuccessCount, res.ErrorCount, res.Errors)
	}
	if !strings.HasPrefix(res.Errors[0], "Linha 4: categoria de ativo não suportada") {
		t.Errorf("error = %q", res.Errors[0])
	}

	buy := res.Operations[0]
	if buy.Type != domain.OpBuy || buy.Ticker != "AAPL" || buy.Quantity != 10 || buy.Price != 185.5 || buy.Total != 1855 || buy.Fees != 1 {
		t.Errorf("buy = %+v", buy)
	}
	if buy.Currency != domain.CurrencyUSD || buy.AssetType != domain.AssetStockUS || buy.Institution != "Interactive Brokers" {
		t.Errorf("buy metadata = %+v", buy)
	}
	if y, m, d := buy.Date.Date(); y != 2024 || m != time.January || d != 15 {
		t.Errorf("buy date = %v", buy.Date)
	}

	sell := res.Operations[1]
	if sell.Type != domain.OpSell || sell.Quantity != 5 || sell.Price != 1010 || sell.Total != 5050 || sell.Fees != 1.25 {
		t.Errorf("sell = %+v", sell)
	}

	etf := res.Operations[2]
	if etf.AssetType != domain.AssetETFUS || etf.Total != 170 || etf.Fees != 0 {
		t.Errorf("etf = %+v", etf)
	}
}

func TestParseIBKRActivityStatement(t *testing.T) {
	content := strings.Join([]string{
		"Statement,Header,Field Name,Field Value",
		"Statement,Data,BrokerName,Interactive Brokers LLC",
		"Trades,Header,DataDiscriminator,Asset Category,Currency,Symbol,Date/Time,Quantity,T. Price,C. Price,Proceeds,Comm/Fee,Basis,Realized P/L,MTM P/L,Code",
		`Trades,Data,Order,Stocks,USD,VOO,"2024-03-01, 09:45:00",3,460.10,461,-1380.30,-1,1381.3,0,2.7,O`,
		"Trades,SubTotal,,Stocks,USD,VOO,,3,,,-1380.30,-1,1381.3,0,2.7,",
		"Trades,Total,,Stocks,USD,,,,,,-1380.30,-1,1381.3,0,2.7,",
		"Dividends,Header,Currency,Date,Description,Amount",
	}, "\n")

	res := ParseIBKR(content, Options{})

	if res.SuccessCount != 1 || res.ErrorCount != 0 {
		t.Fatalf("success/errors = %d/%d: %v", res.SuccessCount, res.ErrorCount, res.Errors)
	}
	op := res.Operations[0]
	if op.Ticker != "VOO" || op.Quantity != 3 || op.Total != 1380.3 || op.Fees != 1 {
		t.Errorf("op = %+v", op)
	}
}

func TestParseIBKRWithoutHeader(t *testing.T) {
	res := ParseIBKR("foo,bar\n1,2\n", Options{})
	if res.ErrorCount != 1 || len(res.Operations) != 0 {
		t.Fatalf("got %+v", res)
	}
	if !strings.Contains(res.Errors[0], "Symbol") {
		t.Errorf("error = %q", res.Errors[0])
	}
}

func TestIBKRDateValue(t *testing.T) {
	tests := []struct {
		in    string
		month time.Month
		day   int
	}{
		{"2024-01-15, 10:30:00", time.January, 15},
		{"20240115;103000", time.January, 15},
		{"01/02/2024", time.January, 2},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ibkrDateValue(tt.in)
			if err != nil {
				t.Fatal(err)
			}
			if got.Month() != tt.month || got.Day() != tt.day {
				t.Errorf("ibkrDateValue(%q) = %v", tt.in, got)
			}
		})
	}
	if _, err := ibkrDateValue("ontem"); err == nil {
		t.Error("expected error for invalid date")
	}
}

func TestParseFileDispatch(t *testing.T) {
	if res := ParseFile("trades.csv", []byte(ibkrFlat), Options{}); res.DetectedSource != string(SourceIBKR) {
		t.Errorf("csv DetectedSource = %q", res.DetectedSource)
	}
	if res := ParseFile("movimentacao.xlsx", buildWorkbook(t, b3Rows), Options{}); res.DetectedSource != string(SourceB3) {
		t.Errorf("xlsx DetectedSource = %q", res.DetectedSource)
	}
	if res := ParseFile("nota.pdf", []byte("not a pdf"), Options{}); res.Errors[0] != pdftext.MsgCorrupt {
		t.Errorf("pdf error = %v", res.Errors)
	}
	if res := ParseFile("x.xlsx", nil, Options{Source: "xyz"}); res.ErrorCount != 1 {
		t.Errorf("unknown source accepted: %+v", res)
	}
}
