package statement

import (
	"fmt"
	"regexp"
	"strings"

	"import-service/internal/core/description"
	"import-service/internal/core/normalize"
	"import-service/internal/domain"

	"go.uber.org/zap"
)

// OFX de bancos brasileiros costuma ser SGML malformado (tags sem fechamento,
// encoding misturado), por isso a leitura é por extração de tags e não por
// um parser XML.
var (
	stmtTrnRegex  = regexp.MustCompile(`(?is)<STMTTRN>(.*?)</STMTTRN>`)
	ofxRootRegex  = regexp.MustCompile(`(?i)<OFX>|OFXHEADER:|<STMTTRN>`)
	creditCardTag = regexp.MustCompile(`(?i)<CREDITCARDMSGSRSV1>|<CCSTMTRS>`)
	ofxTagRegexes = map[string]*regexp.Regexp{}
)

func init() {
	for _, tag := range []string{"BANKID", "ORG", "FID", "TRNTYPE", "DTPOSTED", "TRNAMT", "FITID", "MEMO", "NAME", "CHECKNUM"} {
		ofxTagRegexes[tag] = regexp.MustCompile(`(?i)<` + tag + `>([^<\r\n]*)`)
	}
}

func ofxTag(block, tag string) string {
	m := ofxTagRegexes[tag].FindStringSubmatch(block)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// IsOFX reports whether content carries OFX markers.
func IsOFX(content string) bool {
	return ofxRootRegex.MatchString(content)
}

// DetectOFXBank aplica a ordem de prioridade: <BANKID> antes de <ORG>/<FID>.
func DetectOFXBank(content string) Bank {
	if code := ofxTag(content, "BANKID"); code != "" {
		if b := BankFromCode(code); b != BankUnknown {
			return b
		}
	}
	for _, tag := range []string{"ORG", "FID"} {
		if v := ofxTag(content, tag); v != "" {
			if b := BankFromName(v); b != BankUnknown {
				return b
			}
			if b := BankFromCode(v); b != BankUnknown {
				return b
			}
		}
	}
	return BankUnknown
}

// ParseOFX lê um extrato ou fatura OFX já decodificado.
func ParseOFX(content string, opts Options) *domain.ParseResult {
	log := opts.logger()
	res := domain.NewParseResult()

	if !IsOFX(content) {
		res.Fail("Arquivo OFX inválido: estrutura OFX não encontrada")
		return res
	}

	bank := opts.bankHint()
	if bank == BankUnknown {
		bank = DetectOFXBank(content)
	}
	src := opts.sourceHint()
	if src == "" {
		src = domain.SourceExtrato
		if creditCardTag.MatchString(content) {
			src = domain.SourceFatura
		}
	}
	res.DetectedBank = string(bank)
	res.DetectedType = src

	blocks := stmtTrnRegex.FindAllStringSubmatchIndex(content, -1)
	for _, loc := range blocks {
		line := strings.Count(content[:loc[0]], "\n") + 1
		block := content[loc[2]:loc[3]]

		tx, skip, err := ofxTransaction(block, src)
		if skip {
			continue
		}
		if err != nil {
			res.AddRowError(line, "%v", err)
			continue
		}
		res.Add(tx)
	}

	log.Debug("OFX processado",
		zap.String("bank", string(bank)),
		zap.String("sourceType", string(src)),
		zap.Int("blocks", len(blocks)),
		zap.Int("success", res.SuccessCount),
		zap.Int("errors", res.ErrorCount))
	return res
}

func ofxTransaction(block string, src domain.SourceType) (domain.ParsedTransaction, bool, error) {
	var tx domain.ParsedTransaction

	posted := ofxTag(block, "DTPOSTED")
	if len(posted) < 8 {
		return tx, false, fmt.Errorf("data DTPOSTED ausente ou inválida %q", posted)
	}
	date, ok := normalize.ParseDate(posted[:8])
	if !ok {
		return tx, false, fmt.Errorf("data DTPOSTED inválida %q", posted)
	}

	rawAmount := ofxTag(block, "TRNAMT")
	amount, err := normalize.ParseBrazilianNumber(rawAmount)
	if err != nil {
		return tx, false, fmt.Errorf("valor TRNAMT inválido %q", rawAmount)
	}
	if amount == 0 {
		return tx, true, nil
	}

	// o sinal decide o tipo; TRNTYPE CREDIT/DEBIT explícito tem precedência
	txType := domain.TypeIncome
	if amount < 0 {
		txType = domain.TypeExpense
		amount = -amount
	}
	switch strings.ToUpper(ofxTag(block, "TRNTYPE")) {
	case "CREDIT":
		txType = domain.TypeIncome
	case "DEBIT":
		txType = domain.TypeExpense
	}

	memo := ofxTag(block, "MEMO")
	if memo == "" {
		memo = ofxTag(block, "NAME")
	}
	ext := description.Extract(memo, src)

	tx = domain.ParsedTransaction{
		Date:          date,
		Amount:        amount,
		Description:   ext.FullDescription,
		Name:          ext.Name,
		PaymentMethod: ext.PaymentMethod,
		Type:          txType,
		Raw:           normalize.Truncate(normalize.CollapseSpaces(block), rawMaxLen),
		Confidence:    ConfidenceOFX,
	}
	if err := domain.ValidateTransaction(tx); err != nil {
		return tx, false, err
	}
	return tx, false, nil
}
