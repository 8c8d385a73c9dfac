package statement

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"import-service/internal/core/normalize"
	"import-service/internal/core/workbook"
	"import-service/internal/domain"
)

// Format is a statement file format.
type Format string

const (
	FormatOFX  Format = "ofx"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
)

var pdfMagic = []byte("%PDF-")

// DetectFormat decide o formato pela extensão e, sem extensão conhecida, pelo
// conteúdo. O padrão é CSV.
func DetectFormat(filename string, content []byte) Format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".ofx", ".qfx":
		return FormatOFX
	case ".csv", ".txt":
		return FormatCSV
	case ".xlsx", ".xls":
		return FormatXLSX
	case ".pdf":
		return FormatPDF
	}
	switch {
	case bytes.HasPrefix(content, pdfMagic):
		return FormatPDF
	case workbook.IsXLSX(content), workbook.IsXLS(content):
		return FormatXLSX
	case IsOFX(string(content)):
		return FormatOFX
	}
	return FormatCSV
}

// ParseFile é o despacho para formatos de texto (OFX e CSV). PDF e planilhas
// exigem os bytes originais e são recusados aqui com erro de arquivo.
func ParseFile(filename, content string, opts Options) *domain.ParseResult {
	switch f := DetectFormat(filename, []byte(content)); f {
	case FormatOFX:
		return ParseOFX(content, opts)
	case FormatPDF, FormatXLSX:
		return domain.FailedParseResult(fmt.Sprintf(
			"Arquivos %s precisam ser lidos como binário: use ParseBytes, ParsePDF ou ParseXLSX", strings.ToUpper(string(f))))
	default:
		return ParseCSV(content, opts)
	}
}

// ParseBytes é o despacho completo, a partir dos bytes do arquivo.
func ParseBytes(filename string, data []byte, opts Options) *domain.ParseResult {
	switch DetectFormat(filename, data) {
	case FormatPDF:
		return ParsePDF(data, opts)
	case FormatXLSX:
		return ParseXLSX(data, opts)
	}
	return ParseFile(filename, normalize.DecodeLegacy(data), opts)
}
