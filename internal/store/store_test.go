package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"import-service/internal/core/normalize"
	"import-service/internal/domain"
)

func march(d int) time.Time { return normalize.CalendarDate(2025, time.March, d) }

func backends(t *testing.T) map[string]Backend[domain.ParsedTransaction] {
	t.Helper()
	db, err := OpenDB(":memory:")
	if err != nil {
		t.Fatalf("OpenDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	sq, err := OpenSQLite[domain.ParsedTransaction](context.Background(), db, "transactions")
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	return map[string]Backend[domain.ParsedTransaction]{
		"memory": NewMemory[domain.ParsedTransaction](),
		"sqlite": sq,
	}
}

func seed(t *testing.T, repo Repository[domain.ParsedTransaction]) []string {
	t.Helper()
	ctx := context.Background()
	var ids []string
	for _, tx := range []domain.ParsedTransaction{
		{Date: march(10), Amount: 30, Description: "Mercado", Type: domain.TypeExpense},
		{Date: march(2), Amount: 1500, Description: "Salário", Type: domain.TypeIncome},
		{Date: march(10), Amount: 12.5, Description: "Padaria", Type: domain.TypeExpense},
		{Date: march(20), Amount: 99.9, Description: "Internet", Type: domain.TypeExpense},
	} {
		id, err := repo.Create(ctx, tx)
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		ids = append(ids, id)
	}
	return ids
}

func descriptions(p Page[domain.ParsedTransaction]) []string {
	out := make([]string, len(p.Items))
	for i, it := range p.Items {
		out[i] = it.Record.Description
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestRepositoryContract(t *testing.T) {
	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := backend.For("ana")
			ids := seed(t, repo)

			t.Run("list ordena por dia e criação", func(t *testing.T) {
				page, err := repo.List(ctx, Filter{})
				if err != nil {
					t.Fatal(err)
				}
				want := []string{"Salário", "Mercado", "Padaria", "Internet"}
				if page.Total != 4 || !equal(descriptions(page), want) {
					t.Errorf("List = %v (total %d), want %v", descriptions(page), page.Total, want)
				}
				if !page.Items[0].Record.Date.Equal(march(2)) {
					t.Errorf("date = %v", page.Items[0].Record.Date)
				}
			})

			t.Run("filtro por data e paginação", func(t *testing.T) {
				page, err := repo.List(ctx, Filter{DateFrom: march(10), DateTo: march(20), Limit: 2, Offset: 1})
				if err != nil {
					t.Fatal(err)
				}
				want := []string{"Padaria", "Internet"}
				if page.Total != 3 || !equal(descriptions(page), want) {
					t.Errorf("List = %v (total %d), want %v", descriptions(page), page.Total, want)
				}
			})

			t.Run("offset além do fim", func(t *testing.T) {
				page, err := repo.List(ctx, Filter{Offset: 10})
				if err != nil {
					t.Fatal(err)
				}
				if page.Total != 4 || len(page.Items) != 0 || page.Items == nil {
					t.Errorf("page = %+v", page)
				}
			})

			t.Run("escopo por dono", func(t *testing.T) {
				page, err := backend.For("bruno").List(ctx, Filter{})
				if err != nil {
					t.Fatal(err)
				}
				if page.Total != 0 {
					t.Errorf("other owner sees %d records", page.Total)
				}
				if err := backend.For("bruno").Delete(ctx, ids[0]); !errors.Is(err, ErrNotFound) {
					t.Errorf("Delete from other owner = %v", err)
				}
			})

			t.Run("update parcial", func(t *testing.T) {
				if err := repo.Update(ctx, ids[0], map[string]any{"description": "Supermercado", "amount": 31.5}); err != nil {
					t.Fatal(err)
				}
				page, err := repo.List(ctx, Filter{DateFrom: march(10), DateTo: march(10)})
				if err != nil {
					t.Fatal(err)
				}
				got := page.Items[0].Record
				if got.Description != "Supermercado" || got.Amount != 31.5 || got.Type != domain.TypeExpense {
					t.Errorf("updated = %+v", got)
				}
				if err := repo.Update(ctx, "nao-existe", map[string]any{"amount": 1}); !errors.Is(err, ErrNotFound) {
					t.Errorf("Update missing = %v", err)
				}
			})

			t.Run("delete", func(t *testing.T) {
				if err := repo.Delete(ctx, ids[1]); err != nil {
					t.Fatal(err)
				}
				if err := repo.Delete(ctx, ids[1]); !errors.Is(err, ErrNotFound) {
					t.Errorf("second Delete = %v", err)
				}
				page, _ := repo.List(ctx, Filter{})
				if page.Total != 3 {
					t.Errorf("total after delete = %d", page.Total)
				}
			})
		})
	}
}

func TestOpenSQLiteRejectsTableName(t *testing.T) {
	db, err := OpenDB(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	if _, err := OpenSQLite[domain.ParsedTransaction](context.Background(), db, "x; DROP TABLE y"); err == nil {
		t.Error("expected invalid table name error")
	}
}

func TestApplyPatchKeepsID(t *testing.T) {
	rec := domain.InvestmentOperation{Date: march(1), Ticker: "PETR4", Quantity: 10}
	out, err := applyPatch(rec, map[string]any{"quantity": 20, "id": "x"})
	if err != nil {
		t.Fatal(err)
	}
	if out.Quantity != 20 || out.Ticker != "PETR4" || !out.Date.Equal(rec.Date) {
		t.Errorf("applyPatch = %+v", out)
	}
	if _, err := applyPatch(rec, map[string]any{"quantity": "muitos"}); err == nil {
		t.Error("expected type error")
	}
}
