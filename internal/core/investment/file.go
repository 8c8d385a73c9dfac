package investment

import (
	"path/filepath"
	"strings"

	"import-service/internal/core/normalize"
	"import-service/internal/domain"
)

// ParseFile escolhe o leitor pela extensão e pela fonte informada. PDFs
// devolvem só as operações; use ParsePDF para taxas e metadados.
func ParseFile(filename string, data []byte, opts Options) *domain.InvestmentParseResult {
	src, ok := ResolveSource(opts.Source)
	if !ok {
		res := domain.NewInvestmentParseResult()
		res.Fail("Fonte de investimentos não suportada: " + opts.Source)
		return res
	}

	switch ext := strings.ToLower(filepath.Ext(filename)); {
	case ext == ".pdf" || src == SourceNote || src == SourceAvenue || src == SourceInterGlobal || src == SourceGeneric:
		note := ParsePDF(data, opts)
		return &note.InvestmentParseResult
	case ext == ".csv" || ext == ".txt" || src == SourceIBKR:
		return ParseIBKR(normalize.DecodeLegacy(data), opts)
	}
	return ParseWorkbook(data, opts)
}
