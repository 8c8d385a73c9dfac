package statement

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"import-service/internal/core/description"
	"import-service/internal/domain"
)

func assertDate(t *testing.T, got time.Time, y int, m time.Month, d int) {
	t.Helper()
	if got.Year() != y || got.Month() != m || got.Day() != d {
		t.Errorf("date = %s, want %04d-%02d-%02d", got.Format("2006-01-02"), y, m, d)
	}
}

func TestParseCSVNubankFatura(t *testing.T) {
	content := "date,title,amount\n2025-12-31,Alessandro da Silva,15.08\n"

	res := ParseCSV(content, Options{})

	if res.ErrorCount != 0 {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
	if res.SuccessCount != 1 || len(res.Transactions) != 1 {
		t.Fatalf("SuccessCount = %d, want 1", res.SuccessCount)
	}
	if res.DetectedBank != string(BankNubank) || res.DetectedType != domain.SourceFatura {
		t.Errorf("detected = %s/%s, want nubank/fatura", res.DetectedBank, res.DetectedType)
	}
	tx := res.Transactions[0]
	if tx.Amount != 15.08 || tx.Type != domain.TypeExpense {
		t.Errorf("amount/type = %v/%s, want 15.08/expense", tx.Amount, tx.Type)
	}
	if tx.Description != "Alessandro da Silva" {
		t.Errorf("Description = %q", tx.Description)
	}
	if tx.PaymentMethod != description.MethodCreditCard {
		t.Errorf("PaymentMethod = %q", tx.PaymentMethod)
	}
	assertDate(t, tx.Date, 2025, time.December, 31)
	if tx.Confidence != ConfidenceCSV {
		t.Errorf("Confidence = %v", tx.Confidence)
	}
}

func TestParseCSVNubankExtrato(t *testing.T) {
	content := "Data,Valor,Identificador,Descrição\n" +
		"03/11/2025,-265.34,id-1,Transferência enviada pelo Pix - MARIA SOUZA - 123.456.789-00\n" +
		"06/11/2025,5057.34,id-2,Transferência Recebida\n"

	tests := []struct {
		name string
		opts Options
	}{
		{"detected by header", Options{}},
		{"bank hint", Options{Bank: "Nubank"}},
		{"bank and type hint", Options{Bank: "nubank", SourceType: domain.SourceExtrato}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ParseCSV(content, tt.opts)
			if res.ErrorCount != 0 {
				t.Fatalf("unexpected errors: %v", res.Errors)
			}
			if res.SuccessCount != 2 {
				t.Fatalf("SuccessCount = %d, want 2", res.SuccessCount)
			}
			out, in := res.Transactions[0], res.Transactions[1]
			if out.Type != domain.TypeExpense || out.Amount != 265.34 {
				t.Errorf("first = %s %v", out.Type, out.Amount)
			}
			if out.Name != "MARIA SOUZA" || out.PaymentMethod != description.MethodPixSent {
				t.Errorf("first name/method = %q/%q", out.Name, out.PaymentMethod)
			}
			assertDate(t, out.Date, 2025, time.November, 3)
			if in.Type != domain.TypeIncome || in.Amount != 5057.34 {
				t.Errorf("second = %s %v", in.Type, in.Amount)
			}
		})
	}
}

func TestParseCSVHeaderlessWithHint(t *testing.T) {
	content := "25/10/2023;PIX TRANSF JOAO;-50,00\n26/10/2023;SALARIO;1.500,00\n"

	res := ParseCSV(content, Options{Bank: "itau", SourceType: domain.SourceExtrato})

	if res.SuccessCount != 2 || res.ErrorCount != 0 {
		t.Fatalf("success/errors = %d/%d: %v", res.SuccessCount, res.ErrorCount, res.Errors)
	}
	if res.Transactions[0].Amount != 50 || res.Transactions[0].Type != domain.TypeExpense {
		t.Errorf("first = %+v", res.Transactions[0])
	}
	if res.Transactions[1].Amount != 1500 || res.Transactions[1].Type != domain.TypeIncome {
		t.Errorf("second = %+v", res.Transactions[1])
	}
}

func TestParseCSVMissingTemplate(t *testing.T) {
	res := ParseCSV("data;descricao;valor\n01/01/2025;x;1,00\n", Options{Bank: "btg", SourceType: domain.SourceFatura})

	if res.ErrorCount != 1 || res.SuccessCount != 0 || len(res.Transactions) != 0 {
		t.Fatalf("got success=%d errors=%d", res.SuccessCount, res.ErrorCount)
	}
	if res.Errors[0] != "Banco btg não possui modelo configurado para fatura" {
		t.Errorf("error = %q", res.Errors[0])
	}
}

func TestParseCSVInterStripsQuotes(t *testing.T) {
	content := "Extrato Conta Corrente \n" +
		"Conta ;12345678\n" +
		"Período ;01/01/2025 a 31/01/2025\n" +
		"Saldo ;1.000,00\n" +
		"\n" +
		"Data Lançamento;Histórico;Descrição;Valor;Saldo \n" +
		"10/01/2025;\"Pix enviado \";\"Maria \"Mercadinho\" Silva\";-50,00;950,00\n" +
		"11/01/2025;Pix recebido;João;1.200,50;2.150,50\n"

	res := ParseCSV(content, Options{})

	if res.DetectedBank != string(BankInter) {
		t.Fatalf("DetectedBank = %q, want inter", res.DetectedBank)
	}
	if res.SuccessCount != 2 || res.ErrorCount != 0 {
		t.Fatalf("success/errors = %d/%d: %v", res.SuccessCount, res.ErrorCount, res.Errors)
	}
	sent := res.Transactions[0]
	if sent.Name != "Maria Mercadinho Silva" || sent.PaymentMethod != description.MethodPixSent {
		t.Errorf("sent name/method = %q/%q", sent.Name, sent.PaymentMethod)
	}
	if sent.Amount != 50 || sent.Type != domain.TypeExpense {
		t.Errorf("sent = %v %s", sent.Amount, sent.Type)
	}
	recv := res.Transactions[1]
	if recv.Amount != 1200.50 || recv.Type != domain.TypeIncome || recv.PaymentMethod != description.MethodPixReceived {
		t.Errorf("received = %+v", recv)
	}
}

func TestParseCSVBradescoCreditDebit(t *testing.T) {
	content := "Extrato de: Agência: 1234 Conta: 56789-0\n" +
		"Data;Histórico;Docto.;Crédito (R$);Débito (R$);Saldo (R$)\n" +
		"01/02/2025;SALDO ANTERIOR;;;;1.000,00\n" +
		"03/02/2025;PIX QRS PADARIA;123;;25,90;974,10\n" +
		"04/02/2025;TED RECEBIDA;456;3.000,00;;3.974,10\n" +
		"05/02/2025;COMPRA;789;;;3.974,10\n"

	res := ParseCSV(content, Options{})

	if res.DetectedBank != string(BankBradesco) {
		t.Fatalf("DetectedBank = %q", res.DetectedBank)
	}
	if res.SuccessCount != 2 || res.ErrorCount != 1 {
		t.Fatalf("success/errors = %d/%d: %v", res.SuccessCount, res.ErrorCount, res.Errors)
	}
	if !strings.HasPrefix(res.Errors[0], "Linha 6: ") {
		t.Errorf("error = %q, want line 6", res.Errors[0])
	}
	debit := res.Transactions[0]
	if debit.Type != domain.TypeExpense || debit.Amount != 25.90 || debit.Name != "PADARIA" {
		t.Errorf("debit = %+v", debit)
	}
	credit := res.Transactions[1]
	if credit.Type != domain.TypeIncome || credit.Amount != 3000 || credit.PaymentMethod != description.MethodTED {
		t.Errorf("credit = %+v", credit)
	}
}

func TestParseCSVGenericColumns(t *testing.T) {
	content := "Data;Descrição;Valor\n01/03/2025;Mercado;-10,00\n02/03/2025;Reembolso;20,00\n"

	res := ParseCSV(content, Options{})

	if res.DetectedBank != string(BankUnknown) {
		t.Errorf("DetectedBank = %q", res.DetectedBank)
	}
	if res.SuccessCount != 2 {
		t.Fatalf("SuccessCount = %d: %v", res.SuccessCount, res.Errors)
	}
	if res.Transactions[0].Type != domain.TypeExpense || res.Transactions[1].Type != domain.TypeIncome {
		t.Errorf("types = %s/%s", res.Transactions[0].Type, res.Transactions[1].Type)
	}
}

func TestParseCSVFileErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty", ""},
		{"only bom", "\ufeff  \n"},
		{"unknown layout", "foo;bar\n1;2\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ParseCSV(tt.content, Options{})
			if res.ErrorCount != 1 || res.SuccessCount != 0 || len(res.Transactions) != 0 {
				t.Errorf("got success=%d errors=%d", res.SuccessCount, res.ErrorCount)
			}
		})
	}
}

func TestParseCSVRowErrorsAndCounts(t *testing.T) {
	content := "Data,Valor,Identificador,Descrição\n" +
		"03/11/2025,-10.00,a,Padaria\n" +
		"31/02/2025,-10.00,b,Data inexistente\n" +
		"04/11/2025,abc,c,Valor ruim\n" +
		"05/11/2025,0.00,d,Zerado\n"

	res := ParseCSV(content, Options{})

	if res.SuccessCount != 1 || res.ErrorCount != 2 {
		t.Fatalf("success/errors = %d/%d: %v", res.SuccessCount, res.ErrorCount, res.Errors)
	}
	if res.SuccessCount+res.ErrorCount > 4 {
		t.Errorf("more outcomes than data rows")
	}
	if !strings.HasPrefix(res.Errors[0], "Linha 3: ") || !strings.HasPrefix(res.Errors[1], "Linha 4: ") {
		t.Errorf("errors = %v", res.Errors)
	}
	for _, tx := range res.Transactions {
		if err := domain.ValidateTransaction(tx); err != nil {
			t.Errorf("invalid transaction returned: %v", err)
		}
	}
}

func TestParseCSVInvalidFirstRowAfterHeader(t *testing.T) {
	content := "Data,Valor,Identificador,Descrição\n" +
		"32/13/2025,-10.00,id0,Compra\n" +
		"03/11/2025,-265.34,id1,Transferência enviada\n"

	res := ParseCSV(content, Options{})

	if res.DetectedBank != string(BankNubank) {
		t.Fatalf("DetectedBank = %q", res.DetectedBank)
	}
	if res.SuccessCount != 1 || res.ErrorCount != 1 {
		t.Fatalf("success/errors = %d/%d: %v", res.SuccessCount, res.ErrorCount, res.Errors)
	}
	if !strings.HasPrefix(res.Errors[0], "Linha 2: ") {
		t.Errorf("errors = %v", res.Errors)
	}
}

func TestParseCSVIdempotent(t *testing.T) {
	content := "Data,Valor,Identificador,Descrição\n03/11/2025,-10.00,a,Padaria\n"

	first := ParseCSV(content, Options{})
	second := ParseCSV(content, Options{})

	if !reflect.DeepEqual(first, second) {
		t.Errorf("parsing twice gave different results:\n%+v\n%+v", first, second)
	}
}

func TestDetectDelimiter(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    rune
	}{
		{"comma", "a,b,c\n1,2,3", ','},
		{"semicolon with decimal commas", "a;b;c\n1;2,50;3", ';'},
		{"tab", "a\tb\tc", '\t'},
		{"title line first", "Extrato\na;b;c\n1;2;3", ';'},
		{"none", "abc", ','},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectDelimiter(tt.content); got != tt.want {
				t.Errorf("DetectDelimiter() = %q, want %q", got, tt.want)
			}
		})
	}
}
