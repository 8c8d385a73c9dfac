package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"import-service/internal/domain"

	"github.com/Rhymond/go-money"
	"golang.org/x/sync/errgroup"
)

// parseAll lê e processa os arquivos em paralelo; o resultado segue a ordem
// dos argumentos. Só falha se algum arquivo não puder ser lido.
func parseAll[T any](ctx context.Context, files []string, parse func(name string, data []byte) T) ([]T, error) {
	out := make([]T, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, name := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(name)
			if err != nil {
				return fmt.Errorf("ler %s: %w", name, err)
			}
			out[i] = parse(filepath.Base(name), data)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// formatMoney formata com a moeda do valor; BRL por padrão.
func formatMoney(amount float64, currency domain.Currency) string {
	code := string(currency)
	if code == "" {
		code = string(domain.CurrencyBRL)
	}
	return money.NewFromFloat(amount, code).Display()
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printErrors(w io.Writer, errs []string) {
	for _, e := range errs {
		fmt.Fprintf(w, "  ! %s\n", e)
	}
}

func header(w io.Writer, name string, ok, failed int, extra ...string) {
	parts := []string{fmt.Sprintf("%d ok", ok), fmt.Sprintf("%d erro(s)", failed)}
	for _, e := range extra {
		if e != "" {
			parts = append(parts, e)
		}
	}
	fmt.Fprintf(w, "== %s (%s)\n", name, strings.Join(parts, ", "))
}
