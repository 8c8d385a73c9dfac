// Package pdftext extrai a camada de texto de PDFs (sem OCR), página a página.
package pdftext

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

var (
	// ErrPasswordRequired: o PDF é protegido e nenhuma senha foi informada.
	ErrPasswordRequired = errors.New("pdf protegido por senha")
	// ErrWrongPassword: a senha informada não abre o PDF.
	ErrWrongPassword = errors.New("senha do pdf incorreta")
	// ErrNoText: o PDF não tem camada de texto (provavelmente digitalizado).
	ErrNoText = errors.New("pdf sem texto extraível")
)

// Mensagens ao usuário. PDF protegido tem mensagem própria, distinta de PDF corrompido.
const (
	MsgPasswordRequired = "O PDF está protegido por senha. Informe a senha (geralmente o CPF ou seus primeiros dígitos) e tente novamente"
	MsgWrongPassword    = "A senha informada não abre o PDF. Confira a senha e tente novamente"
	MsgNoText           = "O PDF não possui texto extraível (documento digitalizado). Exporte o arquivo em outro formato"
	MsgCorrupt          = "Não foi possível ler o PDF: arquivo corrompido ou inválido"
)

// Message traduz um erro de Extract para a mensagem exibida ao usuário.
func Message(err error) string {
	switch {
	case errors.Is(err, ErrPasswordRequired):
		return MsgPasswordRequired
	case errors.Is(err, ErrWrongPassword):
		return MsgWrongPassword
	case errors.Is(err, ErrNoText):
		return MsgNoText
	}
	return MsgCorrupt
}

// Distância horizontal (em pontos) a partir da qual dois trechos viram colunas.
const columnGap = 15.0

// Extract devolve o texto de cada página, uma linha por linha visual.
// Falhas internas da biblioteca viram erro em vez de panic.
func Extract(data []byte, password string) (pages []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("falha na leitura do pdf: %v", r)
		}
	}()

	r, err := open(data, password)
	if err != nil {
		return nil, err
	}

	numPages := r.NumPage()
	if numPages == 0 {
		return nil, ErrNoText
	}

	pages = extractByRow(r, numPages)
	if totalTextLen(pages) > 0 {
		return pages, nil
	}

	plain, err := r.GetPlainText()
	if err != nil {
		return nil, fmt.Errorf("falha ao extrair texto do pdf: %w", err)
	}
	b, err := io.ReadAll(plain)
	if err != nil {
		return nil, fmt.Errorf("falha ao extrair texto do pdf: %w", err)
	}
	if strings.TrimSpace(string(b)) == "" {
		return nil, ErrNoText
	}
	return []string{string(b)}, nil
}

func open(data []byte, password string) (*pdf.Reader, error) {
	ra := bytes.NewReader(data)
	size := int64(len(data))

	var r *pdf.Reader
	var err error
	if password == "" {
		r, err = pdf.NewReader(ra, size)
	} else {
		// a biblioteca chama pw até receber "", então a senha é entregue uma vez só
		used := false
		r, err = pdf.NewReaderEncrypted(ra, size, func() string {
			if used {
				return ""
			}
			used = true
			return password
		})
	}
	if err != nil {
		if errors.Is(err, pdf.ErrInvalidPassword) {
			if password == "" {
				return nil, ErrPasswordRequired
			}
			return nil, ErrWrongPassword
		}
		return nil, fmt.Errorf("pdf inválido: %w", err)
	}
	return r, nil
}

func extractByRow(r *pdf.Reader, numPages int) []string {
	var pages []string
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			continue
		}
		var lines []string
		for _, row := range rows {
			if line := joinRow(row.Content); line != "" {
				lines = append(lines, line)
			}
		}
		pages = append(pages, strings.Join(lines, "\n"))
	}
	return pages
}

// joinRow junta os trechos de uma linha pela distância entre eles: colados,
// separados por um espaço, ou por dois espaços quando parecem colunas.
func joinRow(items []pdf.Text) string {
	var b strings.Builder
	for j, item := range items {
		if j > 0 {
			prev := items[j-1]
			gap := item.X - (prev.X + prev.W)
			switch {
			case gap > columnGap:
				b.WriteString("  ")
			case gap > prev.FontSize*0.15:
				b.WriteString(" ")
			}
		}
		b.WriteString(item.S)
	}
	return strings.TrimSpace(b.String())
}

func totalTextLen(pages []string) int {
	n := 0
	for _, p := range pages {
		n += len(strings.TrimSpace(p))
	}
	return n
}
