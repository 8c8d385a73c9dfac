// Package importer grava o resultado de um parse no store, uma linha por vez,
// checando duplicatas contra o que o dono já tem gravado.
package importer

import (
	"context"
	"fmt"
	"math"
	"strings"

	"import-service/internal/core/duplicate"
	"import-service/internal/domain"
	"import-service/internal/store"

	"go.uber.org/zap"
)

// Policy decide o que fazer com prováveis duplicatas.
type Policy string

const (
	// PolicyFlag grava a transação marcada como possível duplicata.
	PolicyFlag Policy = "flag"
	// PolicySkip não grava prováveis duplicatas.
	PolicySkip Policy = "skip"
)

// ParsePolicy aceita "flag" e "skip"; vazio vira PolicyFlag.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyFlag:
		return PolicyFlag, nil
	case PolicySkip:
		return PolicySkip, nil
	}
	return "", fmt.Errorf("política de duplicatas inválida: %q", s)
}

// dedupWindow é a maior janela do detector; existentes fora dela nunca casam.
const dedupWindow = 7

// Options de uma importação.
type Options struct {
	Policy Policy
}

// Created liga a posição no resultado do parse ao id gravado.
type Created struct {
	Index int    `json:"index"`
	ID    string `json:"id"`
}

// Failure é uma linha que não foi gravada por erro.
type Failure struct {
	Index   int    `json:"index"`
	Message string `json:"message"`
}

// Report é o resultado por linha de uma importação. Index é a posição em
// Transactions/Operations do resultado importado.
type Report struct {
	Created  []Created `json:"created"`
	Skipped  []int     `json:"skipped"`
	Flagged  []int     `json:"flagged"`
	Failures []Failure `json:"failures"`
}

func newReport() *Report {
	return &Report{Created: []Created{}, Skipped: []int{}, Flagged: []int{}, Failures: []Failure{}}
}

func (r *Report) fail(i int, msg string) {
	r.Failures = append(r.Failures, Failure{Index: i, Message: msg})
}

// Service importa resultados de parse para o store de um dono.
type Service interface {
	ImportTransactions(ctx context.Context, owner string, result *domain.ParseResult, opts Options) (*Report, error)
	ImportOperations(ctx context.Context, owner string, result *domain.InvestmentParseResult, opts Options) (*Report, error)
	CheckDuplicates(ctx context.Context, owner string, candidates []domain.ParsedTransaction) ([]domain.DuplicateCheckResult, error)
	ListTransactions(ctx context.Context, owner string, f store.Filter) (store.Page[domain.ParsedTransaction], error)
}

type service struct {
	transactions store.Backend[domain.ParsedTransaction]
	operations   store.Backend[domain.InvestmentOperation]
	logger       *zap.Logger
}

// NewService cria o serviço de importação sobre os dois backends.
func NewService(transactions store.Backend[domain.ParsedTransaction], operations store.Backend[domain.InvestmentOperation], logger *zap.Logger) Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &service{transactions: transactions, operations: operations, logger: logger}
}

// existing lista o que o dono tem gravado na janela das transações candidatas.
func (s *service) existing(ctx context.Context, repo store.Repository[domain.ParsedTransaction], txs []domain.ParsedTransaction) ([]domain.StoredTransaction, error) {
	if len(txs) == 0 {
		return nil, nil
	}
	from, to := txs[0].Date, txs[0].Date
	for _, tx := range txs[1:] {
		if tx.Date.Before(from) {
			from = tx.Date
		}
		if tx.Date.After(to) {
			to = tx.Date
		}
	}
	page, err := repo.List(ctx, store.Filter{
		DateFrom: from.AddDate(0, 0, -dedupWindow),
		DateTo:   to.AddDate(0, 0, dedupWindow),
	})
	if err != nil {
		return nil, fmt.Errorf("falha ao listar transações existentes: %w", err)
	}
	out := make([]domain.StoredTransaction, 0, len(page.Items))
	for _, it := range page.Items {
		out = append(out, domain.StoredTransaction{
			ID:          it.ID,
			Date:        it.Record.Date,
			Amount:      it.Record.Amount,
			Description: it.Record.Description,
		})
	}
	return out, nil
}

func (s *service) CheckDuplicates(ctx context.Context, owner string, candidates []domain.ParsedTransaction) ([]domain.DuplicateCheckResult, error) {
	existing, err := s.existing(ctx, s.transactions.For(owner), candidates)
	if err != nil {
		return nil, err
	}
	txs := append([]domain.ParsedTransaction(nil), candidates...)
	return duplicate.Annotate(txs, existing), nil
}

func (s *service) ListTransactions(ctx context.Context, owner string, f store.Filter) (store.Page[domain.ParsedTransaction], error) {
	return s.transactions.For(owner).List(ctx, f)
}

// ImportTransactions grava as transações na ordem do parse. Erro numa linha
// vira Failure e não interrompe as demais; só falha ao listar existentes ou
// com o contexto cancelado.
func (s *service) ImportTransactions(ctx context.Context, owner string, result *domain.ParseResult, opts Options) (*Report, error) {
	report := newReport()
	if result == nil || len(result.Transactions) == 0 {
		return report, nil
	}
	repo := s.transactions.For(owner)

	existing, err := s.existing(ctx, repo, result.Transactions)
	if err != nil {
		return report, err
	}
	txs := append([]domain.ParsedTransaction(nil), result.Transactions...)
	checks := duplicate.Annotate(txs, existing)

	for i, tx := range txs {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := domain.ValidateTransaction(tx); err != nil {
			report.fail(i, err.Error())
			continue
		}
		if checks[i].IsDuplicate {
			if opts.Policy == PolicySkip {
				report.Skipped = append(report.Skipped, i)
				continue
			}
			report.Flagged = append(report.Flagged, i)
		}
		id, err := repo.Create(ctx, tx)
		if err != nil {
			s.logger.Warn("falha ao gravar transação", zap.String("owner", owner), zap.Int("index", i), zap.Error(err))
			report.fail(i, "Não foi possível gravar a transação")
			continue
		}
		report.Created = append(report.Created, Created{Index: i, ID: id})
	}

	s.logger.Info("transações importadas",
		zap.String("owner", owner),
		zap.Int("created", len(report.Created)),
		zap.Int("skipped", len(report.Skipped)),
		zap.Int("flagged", len(report.Flagged)),
		zap.Int("failures", len(report.Failures)))
	return report, nil
}

// opKey identifica uma operação já gravada: mesmo dia, ativo, tipo,
// quantidade e total em centavos.
type opKey struct {
	day      string
	ticker   string
	kind     domain.OperationType
	quantity float64
	cents    int64
}

func keyOf(op domain.InvestmentOperation) opKey {
	return opKey{
		day:      op.Date.Local().Format("2006-01-02"),
		ticker:   op.Ticker,
		kind:     op.Type,
		quantity: op.Quantity,
		cents:    int64(math.Round(op.Total * 100)),
	}
}

// ImportOperations grava operações de investimento. Uma operação igual a
// outra já gravada (ou anterior no mesmo arquivo) conta como duplicata.
func (s *service) ImportOperations(ctx context.Context, owner string, result *domain.InvestmentParseResult, opts Options) (*Report, error) {
	report := newReport()
	if result == nil || len(result.Operations) == 0 {
		return report, nil
	}
	repo := s.operations.For(owner)

	from, to := result.Operations[0].Date, result.Operations[0].Date
	for _, op := range result.Operations[1:] {
		if op.Date.Before(from) {
			from = op.Date
		}
		if op.Date.After(to) {
			to = op.Date
		}
	}
	page, err := repo.List(ctx, store.Filter{DateFrom: from, DateTo: to})
	if err != nil {
		return report, fmt.Errorf("falha ao listar operações existentes: %w", err)
	}
	seen := make(map[opKey]bool, len(page.Items))
	for _, it := range page.Items {
		seen[keyOf(it.Record)] = true
	}

	for i, op := range result.Operations {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := domain.ValidateOperation(op); err != nil {
			report.fail(i, err.Error())
			continue
		}
		k := keyOf(op)
		if seen[k] {
			if opts.Policy == PolicySkip {
				report.Skipped = append(report.Skipped, i)
				continue
			}
			report.Flagged = append(report.Flagged, i)
		}
		id, err := repo.Create(ctx, op)
		if err != nil {
			s.logger.Warn("falha ao gravar operação", zap.String("owner", owner), zap.Int("index", i), zap.Error(err))
			report.fail(i, "Não foi possível gravar a operação")
			continue
		}
		seen[k] = true
		report.Created = append(report.Created, Created{Index: i, ID: id})
	}

	s.logger.Info("operações importadas",
		zap.String("owner", owner),
		zap.Int("created", len(report.Created)),
		zap.Int("skipped", len(report.Skipped)),
		zap.Int("failures", len(report.Failures)))
	return report, nil
}
