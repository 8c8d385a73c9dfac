package statement

import "testing"

func TestResolveBank(t *testing.T) {
	tests := []struct {
		hint string
		want Bank
	}{
		{"", BankUnknown},
		{"auto", BankUnknown},
		{"Nubank", BankNubank},
		{"Itaú", BankItau},
		{"Banco do Brasil", BankBB},
		{"CAIXA ECONÔMICA FEDERAL", BankCaixa},
		{"0341", BankItau},
		{"237", BankBradesco},
		{"bradesko", BankBradesco},
		{"xpto", Bank("xpto")},
	}
	for _, tt := range tests {
		t.Run(tt.hint, func(t *testing.T) {
			if got := ResolveBank(tt.hint); got != tt.want {
				t.Errorf("ResolveBank(%q) = %q, want %q", tt.hint, got, tt.want)
			}
		})
	}
}

func TestBankFromName(t *testing.T) {
	tests := []struct {
		text string
		want Bank
	}{
		{"NU PAGAMENTOS S.A.", BankNubank},
		{"Banco Itaú Unibanco", BankItau},
		{"Banco Inter S.A.", BankInter},
		{"BCO DO BRASIL", BankBB},
		{"Supermercado", BankUnknown},
	}
	for _, tt := range tests {
		if got := BankFromName(tt.text); got != tt.want {
			t.Errorf("BankFromName(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}
