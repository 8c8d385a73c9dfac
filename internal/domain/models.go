// package domain/models.go
package domain

import (
	"fmt"
	"time"
)

// SourceType distingue extrato de conta e fatura de cartão.
type SourceType string

// Constants for statement source types.
const (
	SourceExtrato SourceType = "extrato"
	SourceFatura  SourceType = "fatura"
)

// TransactionType carries the sign of a bank transaction.
type TransactionType string

const (
	TypeIncome  TransactionType = "income"
	TypeExpense TransactionType = "expense"
)

// OperationType classifica operações de investimento.
type OperationType string

const (
	OpBuy      OperationType = "buy"
	OpSell     OperationType = "sell"
	OpDividend OperationType = "dividend"
	// OpIgnore é usado internamente pelas tabelas de movimentação e nunca chega à saída.
	OpIgnore OperationType = "ignore"
)

// AssetType é a classe do ativo de uma operação.
type AssetType string

const (
	AssetStockBR       AssetType = "stock_br"
	AssetStockUS       AssetType = "stock_us"
	AssetReitBR        AssetType = "reit_br"
	AssetReitUS        AssetType = "reit_us"
	AssetETFBR         AssetType = "etf_br"
	AssetETFUS         AssetType = "etf_us"
	AssetCrypto        AssetType = "crypto"
	AssetTreasure      AssetType = "treasure"
	AssetFixedIncome   AssetType = "fixed_income"
	AssetFixedIncomeUS AssetType = "fixed_income_us"
	AssetFund          AssetType = "fund"
	AssetFiagro        AssetType = "fiagro"
	AssetFundExempt    AssetType = "fund_exempt"
	AssetCash          AssetType = "cash"
)

// AllAssetTypes lista os tipos aceitos pela validação.
var AllAssetTypes = []AssetType{
	AssetStockBR, AssetStockUS, AssetReitBR, AssetReitUS, AssetETFBR, AssetETFUS,
	AssetCrypto, AssetTreasure, AssetFixedIncome, AssetFixedIncomeUS, AssetFund,
	AssetFiagro, AssetFundExempt, AssetCash,
}

// Currency of an investment operation.
type Currency string

const (
	CurrencyBRL Currency = "BRL"
	CurrencyUSD Currency = "USD"
)

// --- Extratos e faturas ---

// ParsedTransaction é uma transação bancária normalizada. Amount nunca é negativo;
// o sinal fica em Type.
type ParsedTransaction struct {
	Date                  time.Time       `json:"date" firestore:"date"`
	Amount                float64         `json:"amount" firestore:"amount"`
	Description           string          `json:"description" firestore:"description"`
	Name                  string          `json:"name" firestore:"name"`
	PaymentMethod         string          `json:"paymentMethod,omitempty" firestore:"paymentMethod,omitempty"`
	Type                  TransactionType `json:"type" firestore:"type"`
	Raw                   string          `json:"raw" firestore:"raw"`
	Confidence            float64         `json:"confidence" firestore:"confidence"`
	SuggestedCategoryID   string          `json:"suggestedCategoryId,omitempty" firestore:"suggestedCategoryId,omitempty"`
	SuggestedCategoryName string          `json:"suggestedCategoryName,omitempty" firestore:"suggestedCategoryName,omitempty"`
	IsPossibleDuplicate   bool            `json:"isPossibleDuplicate,omitempty" firestore:"isPossibleDuplicate,omitempty"`
	DuplicateOfID         string          `json:"duplicateOfId,omitempty" firestore:"duplicateOfId,omitempty"`
}

// RecordDate implements store.Record.
func (t ParsedTransaction) RecordDate() time.Time { return t.Date }

// ParseResult agrega o resultado de um arquivo de extrato/fatura.
type ParseResult struct {
	Transactions []ParsedTransaction `json:"transactions"`
	SuccessCount int                 `json:"successCount"`
	ErrorCount   int                 `json:"errorCount"`
	Errors       []string            `json:"errors"`
	DetectedBank string              `json:"detectedBank,omitempty"`
	DetectedType SourceType          `json:"detectedType,omitempty"`
}

// NewParseResult returns an empty result with non-nil slices.
func NewParseResult() *ParseResult {
	return &ParseResult{Transactions: []ParsedTransaction{}, Errors: []string{}}
}

// FailedParseResult builds the whole-file failure shape: no transactions, one error.
func FailedParseResult(msg string) *ParseResult {
	r := NewParseResult()
	r.Fail(msg)
	return r
}

// Add appends an accepted transaction.
func (r *ParseResult) Add(tx ParsedTransaction) {
	r.Transactions = append(r.Transactions, tx)
	r.SuccessCount++
}

// AddRowError registra um erro endereçado pela linha do arquivo (1-based).
func (r *ParseResult) AddRowError(line int, format string, args ...interface{}) {
	r.Errors = append(r.Errors, fmt.Sprintf("Linha %d: %s", line, fmt.Sprintf(format, args...)))
	r.ErrorCount++
}

// Fail descarta o que já foi lido e deixa apenas o erro do arquivo.
func (r *ParseResult) Fail(msg string) {
	r.Transactions = []ParsedTransaction{}
	r.SuccessCount = 0
	r.Errors = []string{msg}
	r.ErrorCount = 1
}

// --- Investimentos ---

// InvestmentOperation is a normalized buy/sell/dividend record.
type InvestmentOperation struct {
	Date        time.Time     `json:"date" firestore:"date"`
	Type        OperationType `json:"type" firestore:"type"`
	Ticker      string        `json:"ticker" firestore:"ticker"`
	Name        string        `json:"name" firestore:"name"`
	AssetType   AssetType     `json:"assetType" firestore:"assetType"`
	Quantity    float64       `json:"quantity" firestore:"quantity"`
	Price       float64       `json:"price" firestore:"price"`
	Total       float64       `json:"total" firestore:"total"`
	Currency    Currency      `json:"currency" firestore:"currency"`
	Institution string        `json:"institution,omitempty" firestore:"institution,omitempty"`
	Fees        float64       `json:"fees,omitempty" firestore:"fees,omitempty"`
}

// RecordDate implements store.Record.
func (o InvestmentOperation) RecordDate() time.Time { return o.Date }

// InvestmentParseResult mirrors ParseResult for investment files.
type InvestmentParseResult struct {
	Operations     []InvestmentOperation `json:"operations"`
	SuccessCount   int                   `json:"successCount"`
	ErrorCount     int                   `json:"errorCount"`
	Errors         []string              `json:"errors"`
	DetectedSource string                `json:"detectedSource,omitempty"`
}

// NewInvestmentParseResult returns an empty result with non-nil slices.
func NewInvestmentParseResult() *InvestmentParseResult {
	return &InvestmentParseResult{Operations: []InvestmentOperation{}, Errors: []string{}}
}

// Add appends an accepted operation.
func (r *InvestmentParseResult) Add(op InvestmentOperation) {
	r.Operations = append(r.Operations, op)
	r.SuccessCount++
}

// AddRowError registra um erro endereçado pela linha do arquivo (1-based).
func (r *InvestmentParseResult) AddRowError(line int, format string, args ...interface{}) {
	r.Errors = append(r.Errors, fmt.Sprintf("Linha %d: %s", line, fmt.Sprintf(format, args...)))
	r.ErrorCount++
}

// Fail descarta o que já foi lido e deixa apenas o erro do arquivo.
func (r *InvestmentParseResult) Fail(msg string) {
	r.Operations = []InvestmentOperation{}
	r.SuccessCount = 0
	r.Errors = []string{msg}
	r.ErrorCount = 1
}

// --- Nota de corretagem ---

// NoteFees são as taxas consolidadas de uma nota de corretagem.
type NoteFees struct {
	Settlement   float64 `json:"settlement"`
	Registration float64 `json:"registration"`
	Emoluments   float64 `json:"emoluments"`
	Brokerage    float64 `json:"brokerage"`
	ISS          float64 `json:"iss"`
	IRRF         float64 `json:"irrf"`
	Total        float64 `json:"total"`
}

// BrokerageNote é o resultado da leitura de um PDF de operações: nota
// SINACOR, confirmação de corretora americana ou Activity Statement.
type BrokerageNote struct {
	InvestmentParseResult
	Broker     string    `json:"broker,omitempty"`
	NoteNumber string    `json:"noteNumber,omitempty"`
	NoteDate   time.Time `json:"noteDate,omitempty"`
	Fees       NoteFees  `json:"fees"`
	NetValue   float64   `json:"netValue"`
	Currency   Currency  `json:"currency,omitempty"`
	Warnings   []string  `json:"warnings,omitempty"`
}

// --- Duplicidade ---

// DuplicateCheckResult is the outcome of comparing one candidate against stored transactions.
type DuplicateCheckResult struct {
	IsDuplicate           bool    `json:"isDuplicate"`
	Confidence            float64 `json:"confidence"`
	MatchingTransactionID string  `json:"matchingTransactionId,omitempty"`
	Reason                string  `json:"reason,omitempty"`
}

// StoredTransaction é a visão mínima de uma transação já persistida.
type StoredTransaction struct {
	ID          string    `json:"id"`
	Date        time.Time `json:"date"`
	Amount      float64   `json:"amount"`
	Description string    `json:"description"`
}
