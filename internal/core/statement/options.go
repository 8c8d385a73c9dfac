package statement

import (
	"time"

	"import-service/internal/domain"

	"go.uber.org/zap"
)

// Confiança declarada por formato.
const (
	ConfidenceOFX  = 0.95
	ConfidenceXLSX = 0.95
	ConfidenceCSV  = 0.9
	ConfidencePDF  = 0.85
)

// Tamanho máximo do campo Raw.
const rawMaxLen = 200

// Options são os parâmetros de uma leitura. Todos são opcionais.
type Options struct {
	// Bank é o hint do usuário ("nubank", "Itaú", "341"); vazio detecta pelo conteúdo.
	Bank string
	// SourceType força extrato ou fatura; vazio detecta pelo conteúdo.
	SourceType domain.SourceType
	// Password abre PDFs e planilhas protegidos.
	Password string
	Logger   *zap.Logger
	// Now fornece o ano de referência para faturas em PDF sem vencimento.
	Now func() time.Time
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

func (o Options) now() time.Time {
	if o.Now == nil {
		return time.Now()
	}
	return o.Now()
}

func (o Options) bankHint() Bank {
	return ResolveBank(o.Bank)
}

func (o Options) sourceHint() domain.SourceType {
	switch o.SourceType {
	case domain.SourceExtrato, domain.SourceFatura:
		return o.SourceType
	}
	return ""
}
