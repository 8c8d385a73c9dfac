package investment

import (
	"strings"

	"import-service/internal/core/normalize"
)

type field int

const (
	fieldDate field = iota
	fieldMovement
	fieldIndicator
	fieldProduct
	fieldTicker
	fieldName
	fieldCategory
	fieldInstitution
	fieldQuantity
	fieldPrice
	fieldTotal
	fieldCurrency
	fieldCount
)

// columnSpec lista os nomes aceitos para um campo, do mais específico ao mais genérico.
type columnSpec struct {
	field    field
	names    []string
	required bool
}

// columnMap guarda o índice de cada campo (-1 quando ausente).
type columnMap [fieldCount]int

func (m columnMap) get(row []string, f field) string {
	idx := m[f]
	if idx < 0 || idx >= len(row) {
		return ""
	}
	v := strings.TrimSpace(row[idx])
	// a B3 preenche células vazias com "-"
	if v == "-" {
		return ""
	}
	return v
}

func (m columnMap) has(f field) bool { return m[f] >= 0 }

// resolveColumns casa o cabeçalho com as specs: primeiro igualdade do nome
// normalizado, depois substring. Uma coluna atende a um campo só.
func resolveColumns(header []string, specs []columnSpec) (columnMap, bool) {
	var m columnMap
	for i := range m {
		m[i] = -1
	}
	cols := make([]string, len(header))
	for i, h := range header {
		cols[i] = normalize.Normalize(h)
	}
	claimed := make([]bool, len(cols))

	pick := func(spec columnSpec, exact bool) {
		if m[spec.field] >= 0 {
			return
		}
		for _, name := range spec.names {
			for i, c := range cols {
				if claimed[i] || c == "" {
					continue
				}
				if (exact && c == name) || (!exact && strings.Contains(c, name)) {
					m[spec.field] = i
					claimed[i] = true
					return
				}
			}
		}
	}
	for _, s := range specs {
		pick(s, true)
	}
	for _, s := range specs {
		pick(s, false)
	}

	for _, s := range specs {
		if s.required && m[s.field] < 0 {
			return m, false
		}
	}
	return m, true
}

// feeColumns devolve todas as colunas cujo nome normalizado está em names
// (corretagem, taxas, impostos...), somadas como custo da operação.
func feeColumns(header []string, names []string) []int {
	var idx []int
	for i, h := range header {
		c := normalize.Normalize(h)
		for _, n := range names {
			if c == n {
				idx = append(idx, i)
				break
			}
		}
	}
	return idx
}

// findHeader procura, nas primeiras linhas, a que resolve todas as colunas
// obrigatórias e passa no accept do formato.
func findHeader(rows [][]string, specs []columnSpec, accept func(columnMap) bool) (int, columnMap, bool) {
	limit := len(rows)
	if limit > 20 {
		limit = 20
	}
	for i := 0; i < limit; i++ {
		m, ok := resolveColumns(rows[i], specs)
		if ok && (accept == nil || accept(m)) {
			return i, m, true
		}
	}
	return -1, columnMap{}, false
}
