// Package store persiste transações e operações importadas. Os backends
// (memória, SQLite, Firestore) seguem o mesmo contrato: criar, atualizar com
// patch parcial, apagar e listar paginado, sempre no escopo de um dono.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound indica que o id não existe para o dono informado.
var ErrNotFound = errors.New("registro não encontrado")

// Record é qualquer valor persistível com data de referência (usada nos filtros).
type Record interface {
	RecordDate() time.Time
}

// Filter restringe uma listagem. Datas zero não filtram; Limit 0 devolve tudo.
type Filter struct {
	DateFrom time.Time
	DateTo   time.Time
	Limit    int
	Offset   int
}

// Stored é um registro com o id atribuído pelo backend.
type Stored[T Record] struct {
	ID     string `json:"id"`
	Record T      `json:"record"`
}

// Page é uma página de List. Total conta todos os registros do filtro,
// antes de Limit/Offset.
type Page[T Record] struct {
	Items []Stored[T] `json:"items"`
	Total int         `json:"total"`
}

// Repository é o contrato de persistência de um dono. Cada chamada falha de
// forma independente.
type Repository[T Record] interface {
	Create(ctx context.Context, rec T) (string, error)
	Update(ctx context.Context, id string, patch map[string]any) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, f Filter) (Page[T], error)
}

// Backend entrega o repositório de cada dono.
type Backend[T Record] interface {
	For(owner string) Repository[T]
}

// applyPatch aplica um patch parcial pelos nomes JSON dos campos.
func applyPatch[T Record](rec T, patch map[string]any) (T, error) {
	var out T
	raw, err := json.Marshal(rec)
	if err != nil {
		return out, fmt.Errorf("serializar registro: %w", err)
	}
	fields := map[string]any{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return out, fmt.Errorf("ler registro: %w", err)
	}
	for k, v := range patch {
		if k == "id" {
			continue
		}
		fields[k] = v
	}
	raw, err = json.Marshal(fields)
	if err != nil {
		return out, fmt.Errorf("serializar patch: %w", err)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("patch inválido: %w", err)
	}
	return out, nil
}

// dayKey é a data de referência como "2006-01-02", comparável como texto.
func dayKey(t time.Time) string {
	return t.Local().Format("2006-01-02")
}

// matches aplica o intervalo de datas do filtro, por dia de calendário.
func (f Filter) matches(t time.Time) bool {
	d := dayKey(t)
	if !f.DateFrom.IsZero() && d < dayKey(f.DateFrom) {
		return false
	}
	if !f.DateTo.IsZero() && d > dayKey(f.DateTo) {
		return false
	}
	return true
}

// window devolve os limites [lo, hi) de Offset/Limit sobre n itens.
func (f Filter) window(n int) (int, int) {
	lo := f.Offset
	if lo < 0 {
		lo = 0
	}
	if lo > n {
		lo = n
	}
	hi := n
	if f.Limit > 0 && lo+f.Limit < n {
		hi = lo + f.Limit
	}
	return lo, hi
}
