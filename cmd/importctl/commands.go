package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"import-service/internal/core/duplicate"
	"import-service/internal/core/investment"
	"import-service/internal/core/statement"
	"import-service/internal/domain"

	"github.com/google/subcommands"
)

// --- parse ---

type parseCmd struct {
	bank       string
	sourceType string
	password   string
	json       bool
}

func (*parseCmd) Name() string     { return "parse" }
func (*parseCmd) Synopsis() string { return "lê extratos e faturas (OFX, CSV, XLSX, PDF)" }
func (*parseCmd) Usage() string {
	return `importctl parse [-bank <banco>] [-type extrato|fatura] [-password <senha>] [-json] <arquivo>...

  Lê cada arquivo e mostra as transações normalizadas e os erros por linha.
`
}

func (p *parseCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&p.bank, "bank", "", "Banco do arquivo (nubank, itau, 341...). Vazio detecta pelo conteúdo.")
	f.StringVar(&p.sourceType, "type", "", "Força extrato ou fatura.")
	f.StringVar(&p.password, "password", "", "Senha de PDF ou planilha protegida.")
	f.BoolVar(&p.json, "json", false, "Saída em JSON.")
}

func (p *parseCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "informe ao menos um arquivo")
		return subcommands.ExitUsageError
	}
	opts := statement.Options{
		Bank:       p.bank,
		SourceType: domain.SourceType(strings.ToLower(p.sourceType)),
		Password:   p.password,
		Logger:     newLogger(),
	}
	results, err := parseAll(ctx, f.Args(), func(name string, data []byte) *domain.ParseResult {
		return statement.ParseBytes(name, data, opts)
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	if p.json {
		if err := writeJSON(os.Stdout, results); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	}

	for i, res := range results {
		header(os.Stdout, f.Arg(i), res.SuccessCount, res.ErrorCount, res.DetectedBank, string(res.DetectedType))
		printTransactions(res.Transactions, nil)
		printErrors(os.Stdout, res.Errors)
	}
	return subcommands.ExitSuccess
}

func printTransactions(txs []domain.ParsedTransaction, checks []domain.DuplicateCheckResult) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for i, tx := range txs {
		amount := formatMoney(tx.Amount, domain.CurrencyBRL)
		if tx.Type == domain.TypeExpense {
			amount = "-" + amount
		}
		line := fmt.Sprintf("  %s\t%s\t%s\t%s", tx.Date.Format("02/01/2006"), amount, tx.Name, tx.PaymentMethod)
		if checks != nil && checks[i].IsDuplicate {
			line += fmt.Sprintf("\tduplicata %.0f%% %s", checks[i].Confidence*100, checks[i].Reason)
		}
		fmt.Fprintln(w, line)
	}
	w.Flush()
}

// --- investments ---

type investmentsCmd struct {
	source   string
	password string
	json     bool
}

func (*investmentsCmd) Name() string { return "investments" }
func (*investmentsCmd) Synopsis() string {
	return "lê planilhas de investimento (B3, MyProfit, StatusInvest, Kinvo) e CSV da IBKR"
}
func (*investmentsCmd) Usage() string {
	return `importctl investments [-source <origem>] [-password <senha>] [-json] <arquivo>...
`
}

func (p *investmentsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&p.source, "source", "", "Origem (b3, myprofit, statusinvest, kinvo, ibkr). Vazio detecta pelo cabeçalho.")
	f.StringVar(&p.password, "password", "", "Senha da planilha protegida.")
	f.BoolVar(&p.json, "json", false, "Saída em JSON.")
}

func (p *investmentsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "informe ao menos um arquivo")
		return subcommands.ExitUsageError
	}
	opts := investment.Options{Source: p.source, Password: p.password, Logger: newLogger()}
	results, err := parseAll(ctx, f.Args(), func(name string, data []byte) *domain.InvestmentParseResult {
		return investment.ParseFile(name, data, opts)
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	if p.json {
		if err := writeJSON(os.Stdout, results); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	}

	for i, res := range results {
		header(os.Stdout, f.Arg(i), res.SuccessCount, res.ErrorCount, res.DetectedSource)
		printOperations(res.Operations)
		printErrors(os.Stdout, res.Errors)
	}
	return subcommands.ExitSuccess
}

func printOperations(ops []domain.InvestmentOperation) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, op := range ops {
		fmt.Fprintf(w, "  %s\t%s\t%s\t%s\t%g\t%s\t%s\n",
			op.Date.Format("02/01/2006"), op.Type, op.Ticker, op.AssetType, op.Quantity,
			formatMoney(op.Price, op.Currency), formatMoney(op.Total, op.Currency))
	}
	w.Flush()
}

// --- note ---

type noteCmd struct {
	source   string
	password string
	json     bool
}

func (*noteCmd) Name() string { return "note" }
func (*noteCmd) Synopsis() string {
	return "lê notas de corretagem e confirmações em PDF (SINACOR, Avenue, Inter Global, IBKR)"
}
func (*noteCmd) Usage() string {
	return `importctl note [-source <layout>] [-password <senha>] [-json] <arquivo.pdf>...

  Sem -source o layout é detectado pelo texto; PDFs não reconhecidos passam
  pela leitura genérica.
`
}

func (p *noteCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&p.source, "source", "", "Layout (nota, avenue, inter global, ibkr, generico). Vazio detecta pelo texto.")
	f.StringVar(&p.password, "password", "", "Senha do PDF (costuma ser o início do CPF).")
	f.BoolVar(&p.json, "json", false, "Saída em JSON.")
}

func (p *noteCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "informe ao menos um arquivo")
		return subcommands.ExitUsageError
	}
	opts := investment.Options{Source: p.source, Password: p.password, Logger: newLogger()}
	notes, err := parseAll(ctx, f.Args(), func(_ string, data []byte) *domain.BrokerageNote {
		return investment.ParsePDF(data, opts)
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	if p.json {
		if err := writeJSON(os.Stdout, notes); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	}

	for i, n := range notes {
		header(os.Stdout, f.Arg(i), n.SuccessCount, n.ErrorCount, n.Broker, n.DetectedSource)
		if n.NoteNumber != "" || !n.NoteDate.IsZero() {
			fmt.Printf("  nota %s de %s\n", n.NoteNumber, n.NoteDate.Format("02/01/2006"))
		}
		printOperations(n.Operations)
		fmt.Printf("  taxas %s, líquido %s\n",
			formatMoney(n.Fees.Total, n.Currency), formatMoney(n.NetValue, n.Currency))
		for _, warn := range n.Warnings {
			fmt.Printf("  ~ %s\n", warn)
		}
		printErrors(os.Stdout, n.Errors)
	}
	return subcommands.ExitSuccess
}

// --- dedup ---

type dedupCmd struct {
	bank string
}

func (*dedupCmd) Name() string     { return "dedup" }
func (*dedupCmd) Synopsis() string { return "aponta transações de um arquivo que já aparecem em outro" }
func (*dedupCmd) Usage() string {
	return `importctl dedup [-bank <banco>] <arquivo-existente> <arquivo-novo>

  Lê os dois arquivos e marca em <arquivo-novo> as prováveis duplicatas das
  transações de <arquivo-existente> e do próprio arquivo.
`
}

func (p *dedupCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&p.bank, "bank", "", "Banco dos arquivos. Vazio detecta pelo conteúdo.")
}

func (p *dedupCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "informe o arquivo existente e o arquivo novo")
		return subcommands.ExitUsageError
	}
	opts := statement.Options{Bank: p.bank, Logger: newLogger()}
	results, err := parseAll(ctx, f.Args(), func(name string, data []byte) *domain.ParseResult {
		return statement.ParseBytes(name, data, opts)
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	existing := make([]domain.StoredTransaction, 0, len(results[0].Transactions))
	for i, tx := range results[0].Transactions {
		existing = append(existing, domain.StoredTransaction{
			ID:          fmt.Sprintf("#%d", i+1),
			Date:        tx.Date,
			Amount:      tx.Amount,
			Description: tx.Description,
		})
	}
	candidates := results[1].Transactions
	checks := duplicate.Annotate(candidates, existing)

	found := 0
	for _, c := range checks {
		if c.IsDuplicate {
			found++
		}
	}
	header(os.Stdout, f.Arg(1), results[1].SuccessCount, results[1].ErrorCount, fmt.Sprintf("%d possível(is) duplicata(s)", found))
	printTransactions(candidates, checks)
	printErrors(os.Stdout, results[1].Errors)
	return subcommands.ExitSuccess
}
