package domain

import (
	"fmt"
	"math"
	"strings"
)

// ValidationError aponta o campo que violou o formato esperado.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("campo %s inválido: %s", e.Field, e.Message)
}

func invalid(field, msg string) *ValidationError {
	return &ValidationError{Field: field, Message: msg}
}

func finiteNonNegative(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

// ValidateTransaction checks a candidate transaction before it is accepted.
func ValidateTransaction(tx ParsedTransaction) error {
	if tx.Date.IsZero() {
		return invalid("date", "data ausente")
	}
	if !finiteNonNegative(tx.Amount) {
		return invalid("amount", "valor deve ser um número não negativo")
	}
	if tx.Type != TypeIncome && tx.Type != TypeExpense {
		return invalid("type", fmt.Sprintf("tipo desconhecido %q", tx.Type))
	}
	if strings.TrimSpace(tx.Description) == "" {
		return invalid("description", "descrição vazia")
	}
	if tx.Confidence < 0 || tx.Confidence > 1 || math.IsNaN(tx.Confidence) {
		return invalid("confidence", "confiança fora do intervalo [0,1]")
	}
	return nil
}

// IsValidAssetType reports whether a belongs to the fixed asset enumeration.
func IsValidAssetType(a AssetType) bool {
	for _, t := range AllAssetTypes {
		if t == a {
			return true
		}
	}
	return false
}

// ValidateOperation checks a candidate investment operation.
func ValidateOperation(op InvestmentOperation) error {
	if op.Date.IsZero() {
		return invalid("date", "data ausente")
	}
	switch op.Type {
	case OpBuy, OpSell, OpDividend:
	default:
		return invalid("type", fmt.Sprintf("tipo de operação desconhecido %q", op.Type))
	}
	if strings.TrimSpace(op.Ticker) == "" {
		return invalid("ticker", "ticker vazio")
	}
	if op.Ticker != strings.ToUpper(op.Ticker) {
		return invalid("ticker", "ticker deve estar em maiúsculas")
	}
	if !IsValidAssetType(op.AssetType) {
		return invalid("assetType", fmt.Sprintf("tipo de ativo desconhecido %q", op.AssetType))
	}
	if !finiteNonNegative(op.Quantity) {
		return invalid("quantity", "quantidade deve ser não negativa")
	}
	if !finiteNonNegative(op.Price) {
		return invalid("price", "preço deve ser não negativo")
	}
	if !finiteNonNegative(op.Total) {
		return invalid("total", "total deve ser não negativo")
	}
	if !finiteNonNegative(op.Fees) {
		return invalid("fees", "taxas devem ser não negativas")
	}
	if op.Currency != CurrencyBRL && op.Currency != CurrencyUSD {
		return invalid("currency", fmt.Sprintf("moeda desconhecida %q", op.Currency))
	}
	return nil
}
