package investment

import (
	"sort"
	"strings"

	"import-service/internal/core/normalize"
)

type brokerPattern struct {
	name     string
	patterns []string
}

// A primeira corretora com algum padrão presente no texto vence.
var brokerPatterns = []brokerPattern{
	{"Clear", []string{"clear corretora", "clear s.a", "clear ctvm", "clear -"}},
	{"XP", []string{"xp investimentos", "xp cctvm", "xp s.a.", "xp s/a"}},
	{"Rico", []string{"rico investimentos", "rico ctvm", "rico s.a", "rico -", "rico s/a", "riconnect", "rico corretora"}},
	{"BTG Pactual", []string{"btg pactual", "btg ctvm"}},
	{"Nuinvest", []string{"nuinvest", "easynvest"}},
	{"Inter", []string{"inter dtvm", "banco inter", "inter invest", "inter s.a", "intermedium"}},
	{"Genial", []string{"genial investimentos"}},
	{"Modal", []string{"modal dtvm"}},
	{"Ágora", []string{"agora ctvm", "ágora"}},
}

// IdentifyBroker procura a razão social da corretora no texto da nota.
func IdentifyBroker(text string) string {
	lower := strings.ToLower(text)
	plain := strings.ToLower(normalize.StripAccents(text))
	for _, b := range brokerPatterns {
		for _, p := range b.patterns {
			if strings.Contains(lower, p) || strings.Contains(plain, p) {
				return b.name
			}
		}
	}
	return ""
}

// Algumas corretoras (Rico) imprimem o nome da empresa em vez do ticker.
var stockNameToTicker = map[string]string{
	"cemig": "CMIG4", "taesa": "TAEE11", "eletrobras": "ELET3", "copel": "CPLE6",
	"engie": "EGIE3", "energisa": "ENGI11", "equatorial": "EQTL3", "cpfl": "CPFE3",
	"itau": "ITUB4", "itausa": "ITSA4", "bradesco": "BBDC4", "banco do brasil": "BBAS3",
	"santander": "SANB11", "btg": "BPAC11",
	"petrobras": "PETR4", "vale": "VALE3", "gerdau": "GGBR4", "csn": "CSNA3",
	"usiminas": "USIM5", "suzano": "SUZB3", "klabin": "KLBN11",
	"ambev": "ABEV3", "magazine luiza": "MGLU3", "lojas renner": "LREN3", "natura": "NTCO3",
	"weg": "WEGE3", "localiza": "RENT3",
	"b3": "B3SA3", "bb seguridade": "BBSE3", "jbs": "JBSS3", "brf": "BRFS3",
	"totvs": "TOTS3", "raia drogasil": "RADL3", "hapvida": "HAPV3",
}

// Nomes mais longos primeiro: "itausa" antes de "itau".
var stockNames = func() []string {
	names := make([]string, 0, len(stockNameToTicker))
	for n := range stockNameToTicker {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})
	return names
}()

// NameToTicker converte o nome de pregão em ticker, casando palavras inteiras.
func NameToTicker(text string) (string, bool) {
	padded := " " + normalize.Normalize(text) + " "
	for _, n := range stockNames {
		if strings.Contains(padded, " "+n+" ") {
			return stockNameToTicker[n], true
		}
	}
	return "", false
}
