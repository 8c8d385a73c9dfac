package statement

import (
	"errors"
	"regexp"
	"strings"

	"import-service/internal/core/workbook"
	"import-service/internal/domain"

	"go.uber.org/zap"
)

// Extrato do Itaú em planilha: leitura por coordenada (A=data, B=lançamento,
// D=valor). As linhas de saldo são descartadas pelo texto do lançamento.
var itauXLSXTemplate = func() ColumnTemplate {
	t := base(BankItau, domain.SourceExtrato)
	t.DateCol, t.DescCol, t.AmountCol = 0, 1, 3
	t.SkipPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)SALDO\s+ANTERIOR`),
		regexp.MustCompile(`(?i)SALDO\s+TOTAL\s+DISPON[IÍ]VEL`),
		regexp.MustCompile(`(?i)SALDO\s+DO\s+DIA`),
		regexp.MustCompile(`(?i)S\s+A\s+L\s+D\s+O`),
		regexp.MustCompile(`(?i)^\s*SALDO\b`),
	}
	return t
}()

var (
	itauContentHint = regexp.MustCompile(`(?i)ita[uú]`)
	itauSheetHint   = regexp.MustCompile(`(?i)ita[uú]|^lan[cç]amentos$`)
)

// ParseXLSX lê extratos/faturas em planilha (.xlsx ou .xls).
func ParseXLSX(data []byte, opts Options) *domain.ParseResult {
	log := opts.logger()

	sheet, err := workbook.First(data, workbook.Options{Password: opts.Password})
	if err != nil {
		if errors.Is(err, workbook.ErrEmpty) {
			return domain.FailedParseResult("A planilha está vazia")
		}
		log.Warn("falha ao abrir planilha", zap.Error(err))
		return domain.FailedParseResult("Não foi possível ler a planilha: arquivo corrompido ou em formato não suportado")
	}

	rows := make([]tableRow, len(sheet.Rows))
	for i, cells := range sheet.Rows {
		rows[i] = tableRow{line: i + 1, cells: cells}
	}

	tpl, errMsg := selectXLSXTemplate(sheet, rows, opts)
	if errMsg != "" {
		return domain.FailedParseResult(errMsg)
	}

	res := domain.NewParseResult()
	res.DetectedBank = string(tpl.Bank)
	res.DetectedType = tpl.SourceType
	applyTemplate(rows, tpl, ConfidenceXLSX, " | ", res)

	log.Debug("planilha processada",
		zap.String("sheet", sheet.Name),
		zap.String("bank", string(tpl.Bank)),
		zap.Int("rows", len(rows)),
		zap.Int("success", res.SuccessCount),
		zap.Int("errors", res.ErrorCount))
	return res
}

func selectXLSXTemplate(sheet workbook.Sheet, rows []tableRow, opts Options) (ColumnTemplate, string) {
	bank := opts.bankHint()
	src := opts.sourceHint()
	if bank == BankItau && src != domain.SourceFatura {
		return itauXLSXTemplate, ""
	}
	if bank == BankUnknown && src != domain.SourceFatura && looksLikeItauSheet(sheet) {
		if sig, ok := matchSignature(sheet.Rows); !ok || sig.Bank == BankItau {
			return itauXLSXTemplate, ""
		}
	}
	return selectTemplate(rows, opts)
}

// looksLikeItauSheet: a aba se chama "Lançamentos" ou o nome do banco aparece
// no topo da planilha.
func looksLikeItauSheet(sheet workbook.Sheet) bool {
	limit := len(sheet.Rows)
	if limit > 15 {
		limit = 15
	}
	hinted := itauSheetHint.MatchString(sheet.Name)
	for i := 0; i < limit && !hinted; i++ {
		hinted = itauContentHint.MatchString(strings.Join(sheet.Rows[i], " "))
	}
	return hinted
}
