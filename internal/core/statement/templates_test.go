package statement

import (
	"testing"

	"import-service/internal/domain"
)

func TestMatchSignatureTieBreak(t *testing.T) {
	sig := []string{"coluna a", "coluna b", "coluna c", "coluna d", "coluna e", "coluna f", "coluna g"}
	for _, bank := range []Bank{"zz-teste", "aa-teste", "mm-teste"} {
		tpl := base(bank, domain.SourceExtrato)
		tpl.Signature = sig
		RegisterTemplate(tpl)
	}
	t.Cleanup(func() {
		for _, bank := range []Bank{"zz-teste", "aa-teste", "mm-teste"} {
			delete(templates, templateKey{bank, domain.SourceExtrato})
		}
	})

	rows := [][]string{
		{"Relatório"},
		{"Coluna A", "Coluna B", "Coluna C", "Coluna D", "Coluna E", "Coluna F", "Coluna G"},
	}
	for i := 0; i < 20; i++ {
		got, ok := matchSignature(rows)
		if !ok || got.Bank != "aa-teste" {
			t.Fatalf("matchSignature = %q/%v, want aa-teste", got.Bank, ok)
		}
	}
}

func TestTemplatesForSorted(t *testing.T) {
	got := templatesFor(BankNubank)
	if len(got) != 2 || got[0].SourceType != domain.SourceExtrato || got[1].SourceType != domain.SourceFatura {
		t.Errorf("templatesFor(nubank) = %+v", got)
	}
}
