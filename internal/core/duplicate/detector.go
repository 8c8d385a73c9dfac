// Package duplicate compara transações recém-lidas com as já gravadas e entre
// si, por valor, data e semelhança da descrição.
package duplicate

import (
	"math"
	"strings"

	"import-service/internal/core/normalize"
	"import-service/internal/domain"
)

// AmountTolerance absorve diferenças de arredondamento entre fontes.
const AmountTolerance = 0.02

type tier struct {
	days       int
	minSim     float64
	confidence float64
	reason     string
}

// Janelas em ordem crescente; dentro de cada uma vale a primeira transação
// que casar, não a melhor.
var tiers = []tier{
	{0, 0, 0.98, "Mesmo valor e mesma data"},
	{1, 0, 0.90, "Mesmo valor com diferença de até 1 dia"},
	{3, 0.3, 0.75, "Mesmo valor em até 3 dias e descrição semelhante"},
	{7, 0.7, 0.60, "Mesmo valor em até 7 dias e descrição muito semelhante"},
}

// SameAmount compara valores em módulo com tolerância de AmountTolerance.
func SameAmount(a, b float64) bool {
	return math.Abs(math.Abs(a)-math.Abs(b)) <= AmountTolerance+1e-9
}

// Check procura candidate entre as transações existentes. Nunca falha:
// "sem duplicata" é um resultado com confiança 0.
func Check(candidate domain.ParsedTransaction, existing []domain.StoredTransaction) domain.DuplicateCheckResult {
	for _, t := range tiers {
		for _, e := range existing {
			if !SameAmount(candidate.Amount, e.Amount) {
				continue
			}
			if normalize.DaysBetween(candidate.Date, e.Date) > t.days {
				continue
			}
			if t.minSim > 0 && Similarity(candidate.Description, e.Description) <= t.minSim {
				continue
			}
			return domain.DuplicateCheckResult{
				IsDuplicate:           true,
				Confidence:            t.confidence,
				MatchingTransactionID: e.ID,
				Reason:                t.reason,
			}
		}
	}
	return domain.DuplicateCheckResult{}
}

// Similarity devolve 1 para descrições iguais depois de normalizadas, 0,9
// quando uma contém a outra e, nos demais casos, a sobreposição de palavras
// com mais de 2 letras (meio ponto para palavras que contêm uma à outra)
// dividida pelo tamanho do maior conjunto.
func Similarity(a, b string) float64 {
	na, nb := normalize.Normalize(a), normalize.Normalize(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1
	}
	if strings.Contains(na, nb) || strings.Contains(nb, na) {
		return 0.9
	}

	wa, wb := words(na), words(nb)
	larger := len(wa)
	if len(wb) > larger {
		larger = len(wb)
	}
	if larger == 0 {
		return 0
	}

	score := 0.0
	for w := range wa {
		if wb[w] {
			score++
			continue
		}
		for o := range wb {
			if strings.Contains(w, o) || strings.Contains(o, w) {
				score += 0.5
				break
			}
		}
	}
	return score / float64(larger)
}

func words(s string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(s) {
		if len(w) > 2 {
			set[w] = true
		}
	}
	return set
}

// FindBatchDuplicates agrupa, dentro do mesmo lote, transações com mesmo
// valor e mesmo dia. Devolve só grupos com mais de um índice, na ordem da
// primeira ocorrência.
func FindBatchDuplicates(txs []domain.ParsedTransaction) [][]int {
	type key struct {
		cents int64
		day   string
	}
	index := make(map[key]int)
	var groups [][]int
	for i, tx := range txs {
		k := key{
			cents: int64(math.Round(math.Abs(tx.Amount) * 100)),
			day:   tx.Date.Local().Format("2006-01-02"),
		}
		if g, ok := index[k]; ok {
			groups[g] = append(groups[g], i)
			continue
		}
		index[k] = len(groups)
		groups = append(groups, []int{i})
	}

	out := groups[:0]
	for _, g := range groups {
		if len(g) > 1 {
			out = append(out, g)
		}
	}
	return out
}

// Annotate marca IsPossibleDuplicate/DuplicateOfID em cada transação, contra
// as existentes e contra as anteriores do próprio lote, e devolve o resultado
// de cada uma.
func Annotate(txs []domain.ParsedTransaction, existing []domain.StoredTransaction) []domain.DuplicateCheckResult {
	results := make([]domain.DuplicateCheckResult, len(txs))
	for i := range txs {
		results[i] = Check(txs[i], existing)
	}
	for _, g := range FindBatchDuplicates(txs) {
		for _, i := range g[1:] {
			if !results[i].IsDuplicate {
				results[i] = domain.DuplicateCheckResult{
					IsDuplicate: true,
					Confidence:  tiers[0].confidence,
					Reason:      "Repetida no mesmo arquivo",
				}
			}
		}
	}
	for i := range txs {
		txs[i].IsPossibleDuplicate = results[i].IsDuplicate
		txs[i].DuplicateOfID = results[i].MatchingTransactionID
	}
	return results
}
