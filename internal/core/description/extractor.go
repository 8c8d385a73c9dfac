// Package description separa o meio de pagamento (Pix, TED, boleto, cartão) do
// nome do favorecido em históricos de extrato e fatura.
package description

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"import-service/internal/core/normalize"
	"import-service/internal/domain"
)

// Payment method labels.
const (
	MethodPixSent        = "Pix enviado"
	MethodPixReceived    = "Pix recebido"
	MethodPix            = "Pix"
	MethodTED            = "TED"
	MethodDOC            = "DOC"
	MethodBoleto         = "Boleto"
	MethodDebitCard      = "Cartão de débito"
	MethodTransferSent   = "Transferência enviada"
	MethodTransferRecv   = "Transferência recebida"
	MethodInvoicePayment = "Pagamento de fatura"
	MethodCreditCard     = "Cartão de crédito"
	MethodAutomaticDebit = "Débito automático"
	MethodWithdrawal     = "Saque"
)

// Result is the outcome of Extract.
type Result struct {
	Name            string `json:"name"`
	PaymentMethod   string `json:"paymentMethod,omitempty"`
	FullDescription string `json:"fullDescription"`
}

type rule struct {
	prefix *regexp.Regexp
	method string
}

// A ordem importa: regras mais específicas primeiro ("Pix enviado" antes de "Pix").
var rules = []rule{
	{regexp.MustCompile(`(?i)^transfer[eê]ncia\s+enviada\s+pelo\s+pix`), MethodPixSent},
	{regexp.MustCompile(`(?i)^transfer[eê]ncia\s+recebida\s+pelo\s+pix`), MethodPixReceived},
	{regexp.MustCompile(`(?i)^pix\s+(?:transf(?:er[eê]ncia)?\s+)?envia(?:do|da)`), MethodPixSent},
	{regexp.MustCompile(`(?i)^pix\s+(?:transf(?:er[eê]ncia)?\s+)?recebi(?:do|da)`), MethodPixReceived},
	{regexp.MustCompile(`(?i)^pix\s+(?:enviado|env)\b`), MethodPixSent},
	{regexp.MustCompile(`(?i)^pix\s+(?:recebido|rec)\b`), MethodPixReceived},
	{regexp.MustCompile(`(?i)^pix(?:\s+(?:transf|qrs|qr\s+code))?\b`), MethodPix},
	{regexp.MustCompile(`(?i)^(?:transf(?:er[eê]ncia)?\s+)?ted\b(?:\s+(?:enviada|recebida|env|rec))?`), MethodTED},
	{regexp.MustCompile(`(?i)^(?:transf(?:er[eê]ncia)?\s+)?doc\b(?:\s+(?:enviado|recebido|env|rec))?`), MethodDOC},
	{regexp.MustCompile(`(?i)^(?:pagamento\s+(?:de\s+)?boleto|pagto\.?\s+boleto|pag\s+boleto|boleto(?:\s+pago)?)\b`), MethodBoleto},
	{regexp.MustCompile(`(?i)^(?:pagamento\s+(?:de\s+)?fatura|pagto\.?\s+fatura|pag\s+fatura)\b`), MethodInvoicePayment},
	{regexp.MustCompile(`(?i)^(?:compra\s+no\s+d[eé]bito|compra\s+cart[aã]o\s+d[eé]b(?:ito)?|cart[aã]o\s+de\s+d[eé]bito|d[eé]bito\s+(?:visa|elo|master(?:card)?))\b`), MethodDebitCard},
	{regexp.MustCompile(`(?i)^(?:compra\s+no\s+cr[eé]dito|cart[aã]o\s+de\s+cr[eé]dito)\b`), MethodCreditCard},
	{regexp.MustCompile(`(?i)^d[eé]bito\s+autom[aá]tico\b`), MethodAutomaticDebit},
	{regexp.MustCompile(`(?i)^saque\b`), MethodWithdrawal},
	{regexp.MustCompile(`(?i)^transfer[eê]ncia\s+enviada\b`), MethodTransferSent},
	{regexp.MustCompile(`(?i)^transfer[eê]ncia\s+recebida\b`), MethodTransferRecv},
}

var (
	leadingSeparators = regexp.MustCompile(`^[\s\-–:|*]+`)
	installmentLabel  = regexp.MustCompile(`(?i)\s*[-–]?\s*parcela\s+(\d{1,2})\s*(?:/|de)\s*(\d{1,2})\s*$`)
	installmentSuffix = regexp.MustCompile(`\s+(\d{1,2})/(\d{1,2})\s*$`)
)

// Extract classifica o histórico bruto. Para faturas, sem outro meio reconhecido,
// o meio é "Cartão de crédito" com a parcela "(NN/NN)" quando existir.
func Extract(raw string, src domain.SourceType) Result {
	full := normalize.Sanitize(raw)
	res := Result{Name: full, FullDescription: full}
	if full == "" {
		return res
	}

	text := full
	var installment string
	if src == domain.SourceFatura {
		text, installment = splitInstallment(text)
	}

	for _, r := range rules {
		loc := r.prefix.FindStringIndex(text)
		if loc == nil {
			continue
		}
		res.PaymentMethod = r.method
		if name := beneficiary(text[loc[1]:]); name != "" {
			res.Name = name
		} else {
			res.Name = text
		}
		break
	}

	if src == domain.SourceFatura {
		if res.PaymentMethod == "" {
			res.PaymentMethod = MethodCreditCard
			res.Name = text
		}
		if installment != "" && res.PaymentMethod == MethodCreditCard {
			res.PaymentMethod = fmt.Sprintf("%s (%s)", MethodCreditCard, installment)
		}
	}
	return res
}

// beneficiary pega o primeiro trecho depois do prefixo. Os bancos anexam
// documento, banco e agência separados por " - ".
func beneficiary(rest string) string {
	rest = leadingSeparators.ReplaceAllString(rest, "")
	if i := strings.Index(rest, " - "); i >= 0 {
		rest = rest[:i]
	}
	return strings.TrimSpace(rest)
}

// splitInstallment remove "Parcela 3/4" ou o sufixo "03/04" e devolve "03/04".
func splitInstallment(s string) (string, string) {
	for _, re := range []*regexp.Regexp{installmentLabel, installmentSuffix} {
		m := re.FindStringSubmatchIndex(s)
		if m == nil {
			continue
		}
		cur, _ := strconv.Atoi(s[m[2]:m[3]])
		total, _ := strconv.Atoi(s[m[4]:m[5]])
		if cur < 1 || total < 2 || cur > total {
			continue
		}
		return strings.TrimSpace(s[:m[0]]), fmt.Sprintf("%02d/%02d", cur, total)
	}
	return s, ""
}
