package statement

import (
	"regexp"
	"strings"

	"import-service/internal/core/normalize"

	"github.com/schollz/closestmatch"
)

// Bank identifica o emissor do extrato/fatura.
type Bank string

const (
	BankNubank    Bank = "nubank"
	BankItau      Bank = "itau"
	BankInter     Bank = "inter"
	BankBradesco  Bank = "bradesco"
	BankBB        Bank = "bb"
	BankSantander Bank = "santander"
	BankCaixa     Bank = "caixa"
	BankC6        Bank = "c6"
	BankBTG       Bank = "btg"
	BankUnknown   Bank = "unknown"
)

// Códigos COMPE usados no <BANKID> do OFX, sem zeros à esquerda.
var bankCodes = map[string]Bank{
	"341": BankItau,
	"1":   BankBB,
	"237": BankBradesco,
	"33":  BankSantander,
	"104": BankCaixa,
	"260": BankNubank,
	"77":  BankInter,
	"336": BankC6,
	"208": BankBTG,
}

// BankFromCode resolve um código numérico ("0341", "341") para o banco.
func BankFromCode(code string) Bank {
	code = strings.TrimLeft(strings.TrimSpace(code), "0")
	if b, ok := bankCodes[code]; ok {
		return b
	}
	return BankUnknown
}

var bankNamePatterns = []struct {
	pattern *regexp.Regexp
	bank    Bank
}{
	{regexp.MustCompile(`(?i)nu\s*pagamentos|nubank`), BankNubank},
	{regexp.MustCompile(`(?i)ita[uú]`), BankItau},
	{regexp.MustCompile(`(?i)banco\s+inter\b|\binter\s*(?:s\.?a\.?|dtvm)|bancointer`), BankInter},
	{regexp.MustCompile(`(?i)bradesco`), BankBradesco},
	{regexp.MustCompile(`(?i)banco\s+do\s+brasil|\bbco\s+do\s+brasil`), BankBB},
	{regexp.MustCompile(`(?i)santander`), BankSantander},
	{regexp.MustCompile(`(?i)caixa\s+econ[oô]mica|\bcef\b`), BankCaixa},
	{regexp.MustCompile(`(?i)\bc6\s*(?:bank|s\.?a\.?)?\b|banco\s+c6`), BankC6},
	{regexp.MustCompile(`(?i)\bbtg\b`), BankBTG},
}

// BankFromName procura o nome de um banco em texto livre (ORG do OFX, cabeçalho de PDF).
func BankFromName(text string) Bank {
	for _, p := range bankNamePatterns {
		if p.pattern.MatchString(text) {
			return p.bank
		}
	}
	return BankUnknown
}

var bankAliases = map[string]Bank{
	"nubank":                  BankNubank,
	"nu":                      BankNubank,
	"nu pagamentos":           BankNubank,
	"itau":                    BankItau,
	"itau unibanco":           BankItau,
	"inter":                   BankInter,
	"banco inter":             BankInter,
	"bradesco":                BankBradesco,
	"bb":                      BankBB,
	"banco do brasil":         BankBB,
	"santander":               BankSantander,
	"caixa":                   BankCaixa,
	"caixa economica":         BankCaixa,
	"caixa economica federal": BankCaixa,
	"cef":                     BankCaixa,
	"c6":                      BankC6,
	"c6 bank":                 BankC6,
	"btg":                     BankBTG,
	"btg pactual":             BankBTG,
}

var aliasMatcher = func() *closestmatch.ClosestMatch {
	keys := make([]string, 0, len(bankAliases))
	for k := range bankAliases {
		keys = append(keys, k)
	}
	return closestmatch.New(keys, []int{2, 3})
}()

// ResolveBank converte o hint do usuário ("Itaú", "banco do brasil", "0341")
// em Bank. Tenta alias exato, código numérico e por fim casamento aproximado.
// Hint vazio devolve BankUnknown; hint não reconhecido devolve Bank(hint).
func ResolveBank(hint string) Bank {
	key := normalize.Normalize(hint)
	if key == "" || key == string(BankUnknown) || key == "auto" {
		return BankUnknown
	}
	if b, ok := bankAliases[key]; ok {
		return b
	}
	if b := BankFromCode(key); b != BankUnknown {
		return b
	}
	if len(key) >= 4 {
		if match := aliasMatcher.Closest(key); match != "" && sharesPrefix(match, key) {
			return bankAliases[match]
		}
	}
	return Bank(key)
}

// sharesPrefix evita que o casamento aproximado troque um banco desconhecido
// por outro qualquer: exige as duas primeiras letras em comum.
func sharesPrefix(a, b string) bool {
	return len(a) >= 2 && len(b) >= 2 && a[:2] == b[:2]
}
