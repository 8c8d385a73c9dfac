package description

import (
	"testing"

	"import-service/internal/domain"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		src        domain.SourceType
		wantName   string
		wantMethod string
	}{
		{
			name:       "nubank pix sent",
			raw:        "Transferência enviada pelo Pix - JOÃO DA SILVA - •••.123.456-•• - BCO DO BRASIL S.A. (0001) Agência: 1234 Conta: 5678-9",
			src:        domain.SourceExtrato,
			wantName:   "JOÃO DA SILVA",
			wantMethod: MethodPixSent,
		},
		{
			name:       "nubank pix received",
			raw:        "Transferência recebida pelo Pix - MARIA SOUZA - •••.987.654-••",
			src:        domain.SourceExtrato,
			wantName:   "MARIA SOUZA",
			wantMethod: MethodPixReceived,
		},
		{
			name:       "itau pix transf",
			raw:        "PIX TRANSF  MERCADO BOM 12/03",
			src:        domain.SourceExtrato,
			wantName:   "MERCADO BOM 12/03",
			wantMethod: MethodPix,
		},
		{
			name:       "ted",
			raw:        "TED 237.1234.JOSE SANTOS",
			src:        domain.SourceExtrato,
			wantName:   "237.1234.JOSE SANTOS",
			wantMethod: MethodTED,
		},
		{
			name:       "boleto",
			raw:        "Pagamento de boleto - ENEL DISTRIBUICAO",
			src:        domain.SourceExtrato,
			wantName:   "ENEL DISTRIBUICAO",
			wantMethod: MethodBoleto,
		},
		{
			name:       "debit card",
			raw:        "Compra no débito - Padaria Central",
			src:        domain.SourceExtrato,
			wantName:   "Padaria Central",
			wantMethod: MethodDebitCard,
		},
		{
			name:       "plain transfer keeps full text as name",
			raw:        "Transferência enviada",
			src:        domain.SourceExtrato,
			wantName:   "Transferência enviada",
			wantMethod: MethodTransferSent,
		},
		{
			name:       "unknown falls back to full string",
			raw:        "  RENDIMENTO   POUPANCA ",
			src:        domain.SourceExtrato,
			wantName:   "RENDIMENTO POUPANCA",
			wantMethod: "",
		},
		{
			name:       "fatura installment",
			raw:        "Loja Eletro 03/04",
			src:        domain.SourceFatura,
			wantName:   "Loja Eletro",
			wantMethod: "Cartão de crédito (03/04)",
		},
		{
			name:       "fatura parcela label",
			raw:        "Magazine - Parcela 2/10",
			src:        domain.SourceFatura,
			wantName:   "Magazine",
			wantMethod: "Cartão de crédito (02/10)",
		},
		{
			name:       "fatura without installment",
			raw:        "Alessandro da Silva",
			src:        domain.SourceFatura,
			wantName:   "Alessandro da Silva",
			wantMethod: MethodCreditCard,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.raw, tt.src)
			if got.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", got.Name, tt.wantName)
			}
			if got.PaymentMethod != tt.wantMethod {
				t.Errorf("PaymentMethod = %q, want %q", got.PaymentMethod, tt.wantMethod)
			}
			if got.FullDescription == "" {
				t.Error("FullDescription should not be empty")
			}
		})
	}
}

func TestExtractEmpty(t *testing.T) {
	got := Extract("   ", domain.SourceExtrato)
	if got.Name != "" || got.PaymentMethod != "" {
		t.Errorf("Extract(empty) = %+v", got)
	}
}
