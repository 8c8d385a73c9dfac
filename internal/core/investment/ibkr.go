package investment

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"import-service/internal/core/normalize"
	"import-service/internal/domain"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ibkrSymbol   = []string{"Symbol"}
	ibkrDate     = []string{"Date/Time", "TradeDate", "Trade Date"}
	ibkrQuantity = []string{"Quantity"}
	ibkrPrice    = []string{"T. Price", "Price", "TradePrice"}
	ibkrProceeds = []string{"Proceeds", "Amount"}
	ibkrFee      = []string{"Comm/Fee", "Commission", "IBCommission"}
	ibkrCategory = []string{"Asset Category", "AssetClass"}
	ibkrCurrency = []string{"Currency", "CurrencyPrimary"}
)

type ibkrHeader map[string]int

func (h ibkrHeader) get(rec []string, names []string) string {
	for _, n := range names {
		if i, ok := h[n]; ok && i < len(rec) {
			return strings.TrimSpace(rec[i])
		}
	}
	return ""
}

// ParseIBKR lê a exportação de trades da Interactive Brokers, tanto o CSV
// plano (Symbol, Date/Time, Quantity, T. Price, Proceeds, Comm/Fee) quanto a
// seção "Trades" do Activity Statement. Quantidade negativa é venda.
func ParseIBKR(content string, opts Options) *domain.InvestmentParseResult {
	log := opts.logger()
	res := domain.NewInvestmentParseResult()
	res.DetectedSource = string(SourceIBKR)

	content = strings.TrimPrefix(content, "\ufeff")
	reader := csv.NewReader(strings.NewReader(content))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var header ibkrHeader
	section := ""
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				res.AddRowError(perr.Line, "linha CSV inválida: %v", perr.Err)
				continue
			}
			break
		}
		line, _ := reader.FieldPos(0)

		if header == nil {
			if h, sec, ok := ibkrHeaderFrom(rec); ok {
				header, section = h, sec
			}
			continue
		}
		if section != "" {
			// Activity Statement: só linhas "Trades,Data,Order"
			if len(rec) < 3 || rec[0] != section || rec[1] != "Data" || (rec[2] != "Order" && rec[2] != "Trade") {
				continue
			}
		}
		if header.get(rec, ibkrSymbol) == "" {
			continue
		}

		op, err := ibkrOperation(header, rec)
		if err == nil {
			err = domain.ValidateOperation(op)
		}
		if err != nil {
			res.AddRowError(line, "%v", err)
			continue
		}
		res.Add(op)
	}

	if header == nil {
		res.Fail("Arquivo da Interactive Brokers sem cabeçalho de trades (coluna Symbol)")
		return res
	}
	log.Debug("IBKR processado", zap.Int("success", res.SuccessCount), zap.Int("errors", res.ErrorCount))
	return res
}

func ibkrHeaderFrom(rec []string) (ibkrHeader, string, bool) {
	h := ibkrHeader{}
	for i, c := range rec {
		h[strings.TrimSpace(c)] = i
	}
	if _, ok := h["Symbol"]; !ok {
		return nil, "", false
	}
	if len(rec) > 1 && rec[1] == "Header" {
		return h, rec[0], true
	}
	return h, "", true
}

func ibkrOperation(h ibkrHeader, rec []string) (domain.InvestmentOperation, error) {
	var op domain.InvestmentOperation

	ticker := strings.ToUpper(h.get(rec, ibkrSymbol))
	asset, err := ibkrAssetType(h.get(rec, ibkrCategory), ticker)
	if err != nil {
		return op, err
	}
	date, err := ibkrDateValue(h.get(rec, ibkrDate))
	if err != nil {
		return op, err
	}
	qty, err := usNumber(h.get(rec, ibkrQuantity))
	if err != nil {
		return op, fmt.Errorf("quantidade inválida: %w", err)
	}
	if qty.IsZero() {
		return op, errors.New("quantidade ausente")
	}
	price, err := usNumber(h.get(rec, ibkrPrice))
	if err != nil {
		return op, fmt.Errorf("preço inválido: %w", err)
	}

	typ := domain.OpBuy
	if qty.IsNegative() {
		typ = domain.OpSell
	}
	qty, price = qty.Abs(), price.Abs()

	total := qty.Mul(price).Round(2)
	if raw := h.get(rec, ibkrProceeds); raw != "" {
		p, err := usNumber(raw)
		if err != nil {
			return op, fmt.Errorf("valor inválido: %w", err)
		}
		total = p.Abs()
	}
	fee := decimal.Zero
	if raw := h.get(rec, ibkrFee); raw != "" {
		f, err := usNumber(raw)
		if err != nil {
			return op, fmt.Errorf("taxa inválida: %w", err)
		}
		fee = f.Abs()
	}

	currency := domain.CurrencyUSD
	if raw := h.get(rec, ibkrCurrency); raw != "" {
		if currency = currencyCell(raw, ""); currency == "" {
			return op, fmt.Errorf("moeda não suportada %q", raw)
		}
	}

	op = domain.InvestmentOperation{
		Date:        date,
		Type:        typ,
		Ticker:      ticker,
		AssetType:   asset,
		Quantity:    qty.InexactFloat64(),
		Price:       price.InexactFloat64(),
		Total:       total.InexactFloat64(),
		Currency:    currency,
		Institution: "Interactive Brokers",
		Fees:        fee.InexactFloat64(),
	}
	return op, nil
}

func ibkrAssetType(category, ticker string) (domain.AssetType, error) {
	c := normalize.Normalize(category)
	switch {
	case strings.Contains(c, "option"), strings.Contains(c, "future"), strings.Contains(c, "forex"),
		strings.Contains(c, "warrant"), len(ticker) > 10:
		return "", fmt.Errorf("categoria de ativo não suportada %q", category)
	case strings.Contains(c, "etf"):
		return domain.AssetETFUS, nil
	case strings.Contains(c, "reit"):
		return domain.AssetReitUS, nil
	case strings.Contains(c, "bond"), strings.Contains(c, "treasur"):
		return domain.AssetFixedIncomeUS, nil
	case strings.Contains(c, "crypto"):
		return domain.AssetCrypto, nil
	}
	return domain.AssetStockUS, nil
}

// ibkrDateValue aceita "2024-01-15, 10:30:00", "20240115" e o formato
// americano "01/15/2024".
func ibkrDateValue(raw string) (time.Time, error) {
	s := strings.TrimSpace(strings.SplitN(raw, ",", 2)[0])
	s = strings.TrimSpace(strings.SplitN(s, ";", 2)[0])
	if strings.Contains(s, "/") {
		if t, err := time.Parse("01/02/2006", s); err == nil {
			return normalize.CalendarDate(t.Year(), t.Month(), t.Day()), nil
		}
	}
	if t, ok := normalize.ParseDate(s); ok {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("data inválida %q", raw)
}

// usNumber lê números no formato americano ("1,234.56").
func usNumber(raw string) (decimal.Decimal, error) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if s == "" || s == "--" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}
