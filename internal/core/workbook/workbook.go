// Package workbook lê planilhas .xlsx (excelize) e .xls legadas (xlsReader)
// como grades de texto.
package workbook

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/shakinm/xlsReader/xls"
	"github.com/xuri/excelize/v2"
)

// ErrUnsupported indica que os bytes não são xlsx nem xls.
var ErrUnsupported = errors.New("formato de planilha não suportado")

// ErrEmpty indica uma planilha sem abas ou sem linhas.
var ErrEmpty = errors.New("planilha vazia")

// Sheet is one worksheet as a grid of cell strings.
type Sheet struct {
	Name string
	Rows [][]string
}

// Options controla a leitura.
type Options struct {
	// Password abre xlsx criptografado.
	Password string
	// Formatted devolve o texto formatado das células em vez do valor bruto.
	// O padrão (bruto) entrega datas como serial do Excel, sem ambiguidade de formato.
	Formatted bool
}

var (
	zipMagic = []byte("PK\x03\x04")
	oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0}
)

// IsXLSX reports whether data looks like an OOXML (zip) package.
func IsXLSX(data []byte) bool { return bytes.HasPrefix(data, zipMagic) }

// IsXLS reports whether data looks like a legacy OLE2 workbook.
func IsXLS(data []byte) bool { return bytes.HasPrefix(data, oleMagic) }

// Load lê todas as abas. Tenta xlsx primeiro e cai para xls.
func Load(data []byte, opts Options) ([]Sheet, error) {
	var sheets []Sheet
	var err error
	switch {
	case IsXLSX(data):
		sheets, err = loadXLSX(data, opts)
	case IsXLS(data):
		sheets, err = loadXLS(data)
		if err != nil {
			// xlsx criptografado também vem num contêiner OLE
			if s, errX := loadXLSX(data, opts); errX == nil {
				sheets, err = s, nil
			}
		}
	default:
		return nil, ErrUnsupported
	}
	if err != nil {
		return nil, err
	}
	if len(sheets) == 0 {
		return nil, ErrEmpty
	}
	return sheets, nil
}

// First devolve a primeira aba com pelo menos uma linha.
func First(data []byte, opts Options) (Sheet, error) {
	sheets, err := Load(data, opts)
	if err != nil {
		return Sheet{}, err
	}
	for _, s := range sheets {
		if len(s.Rows) > 0 {
			return s, nil
		}
	}
	return Sheet{}, ErrEmpty
}

func loadXLSX(data []byte, opts Options) ([]Sheet, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data), excelize.Options{Password: opts.Password})
	if err != nil {
		return nil, fmt.Errorf("erro ao abrir arquivo .xlsx: %w", err)
	}
	defer f.Close()

	var sheets []Sheet
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name, excelize.Options{RawCellValue: !opts.Formatted})
		if err != nil {
			continue
		}
		sheets = append(sheets, Sheet{Name: name, Rows: rows})
	}
	return sheets, nil
}

func loadXLS(data []byte) ([]Sheet, error) {
	workbook, err := xls.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("erro ao abrir arquivo .xls: %w", err)
	}
	var sheets []Sheet
	for _, sheet := range workbook.GetSheets() {
		var rows [][]string
		for _, row := range sheet.GetRows() {
			var cols []string
			for _, cell := range row.GetCols() {
				cols = append(cols, cell.GetString())
			}
			rows = append(rows, cols)
		}
		sheets = append(sheets, Sheet{Name: sheet.GetName(), Rows: rows})
	}
	return sheets, nil
}

// Cell devolve row[idx] ou "" fora dos limites.
func Cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}
