package investment

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"import-service/internal/core/normalize"
	"import-service/internal/core/pdftext"
	"import-service/internal/domain"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Marcas de cada layout no texto minúsculo e sem acentos. A ordem de
// DetectPDFSource importa: confirmações da Avenue também dizem
// "transaction confirmation".
var (
	sinacorMarkers     = []string{"nota de corretagem", "nota de negociacao", "negocios realizados", "resumo dos negocios", "bovespa"}
	ibkrMarkers        = []string{"interactive brokers"}
	interGlobalMarkers = []string{"inter co securities", "inter.co", "transaction confirmation"}
	avenueMarkers      = []string{"avenue securities", "apex clearing", "avenue.us"}
)

var (
	usDateRegex   = regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{2}(?:\d{2})?$`)
	usNumberRegex = regexp.MustCompile(`^-?\d[\d,]*(?:\.\d+)?$`)
)

// ETFs americanos comuns sem "ETF" no nome impresso.
var usETFs = map[string]bool{
	"SPY": true, "QQQ": true, "VTI": true, "VOO": true, "IVV": true,
	"VEA": true, "VWO": true, "ARKK": true, "TLT": true, "GLD": true,
}

func hasMarker(text string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}

// DetectPDFSource reconhece o layout pelo texto do PDF. Sem marca conhecida
// devolve SourceGeneric.
func DetectPDFSource(text string) Source {
	plain := strings.ToLower(normalize.StripAccents(text))
	switch {
	case hasMarker(plain, sinacorMarkers):
		return SourceNote
	case hasMarker(plain, ibkrMarkers):
		return SourceIBKR
	case hasMarker(plain, avenueMarkers):
		return SourceAvenue
	case hasMarker(plain, interGlobalMarkers):
		return SourceInterGlobal
	case IdentifyBroker(text) != "":
		return SourceNote
	}
	return SourceGeneric
}

// ParsePDF lê um PDF de operações. Sem Source informada o layout é detectado
// pelo texto; PDFs não reconhecidos passam pela leitura genérica.
func ParsePDF(data []byte, opts Options) *domain.BrokerageNote {
	src, ok := ResolveSource(opts.Source)
	if !ok || isWorkbookSource(src) {
		note := newNote()
		note.Fail(fmt.Sprintf("Fonte %q não é suportada para PDF", opts.Source))
		return note
	}
	pages, err := pdftext.Extract(data, opts.Password)
	if err != nil {
		opts.logger().Warn("falha ao extrair texto do pdf", zap.Error(err))
		note := newNote()
		note.Fail(pdftext.Message(err))
		return note
	}
	return ParsePDFText(pages, opts)
}

// ParsePDFText escolhe o leitor para o texto já extraído.
func ParsePDFText(pages []string, opts Options) *domain.BrokerageNote {
	src, _ := ResolveSource(opts.Source)
	if src == "" {
		src = DetectPDFSource(strings.Join(pages, "\n"))
	}
	opts.logger().Debug("layout do pdf", zap.String("source", string(src)))

	switch src {
	case SourceIBKR:
		return ParseIBKRText(pages, opts)
	case SourceInterGlobal:
		return ParseInterGlobalText(pages, opts)
	case SourceAvenue:
		return ParseAvenueText(pages, opts)
	case SourceGeneric:
		return ParseGenericText(pages, opts)
	}
	return ParseNoteText(pages, opts)
}

func pageLines(pages []string) []string {
	var lines []string
	for _, p := range pages {
		lines = append(lines, strings.Split(p, "\n")...)
	}
	return lines
}

// usDate lê datas americanas MM/DD/YY ou MM/DD/YYYY.
func usDate(raw string) (time.Time, bool) {
	layout := "1/2/2006"
	if parts := strings.Split(raw, "/"); len(parts) == 3 && len(parts[2]) == 2 {
		layout = "1/2/06"
	}
	t, err := time.Parse(layout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, false
	}
	return normalize.CalendarDate(t.Year(), t.Month(), t.Day()), true
}

func usAssetType(symbol, description string) domain.AssetType {
	desc := strings.ToLower(description)
	switch {
	case usETFs[symbol] || strings.Contains(desc, "etf"):
		return domain.AssetETFUS
	case strings.Contains(desc, "reit"):
		return domain.AssetReitUS
	}
	return domain.AssetStockUS
}

// newForeignNote prepara o resultado das confirmações em dólar.
func newForeignNote(src Source, broker string) *domain.BrokerageNote {
	note := newNote()
	note.DetectedSource = string(src)
	note.Broker = broker
	note.Currency = domain.CurrencyUSD
	return note
}

// finishPDFNote valida as operações, completa a data pela do documento e
// soma o valor líquido (operações mais taxas).
func finishPDFNote(note *domain.BrokerageNote, ops []domain.InvestmentOperation, lines []int) {
	net := decimal.Zero
	for i, op := range ops {
		if op.Date.IsZero() {
			op.Date = note.NoteDate
		}
		if err := domain.ValidateOperation(op); err != nil {
			note.AddRowError(lines[i], "%v", err)
			continue
		}
		net = net.Add(decimal.NewFromFloat(op.Total))
		note.Add(op)
	}
	note.NetValue = net.Add(decimal.NewFromFloat(note.Fees.Total)).Round(2).InexactFloat64()
	if note.SuccessCount == 0 && note.ErrorCount == 0 {
		note.Warnings = append(note.Warnings, msgNoOperation)
	}
}
