package investment

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Acima desta fração de tokens de um caractere o texto é tratado como
// espaçado letra a letra ("M e r c a d o").
const spacedRatio = 0.1

var wordGapRegex = regexp.MustCompile(`\s{2,}`)

// NeedsDespacing mede a fração de tokens com um único caractere.
func NeedsDespacing(text string) bool {
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return false
	}
	singles := 0
	for _, t := range tokens {
		if utf8.RuneCountInString(t) == 1 {
			singles++
		}
	}
	return float64(singles)/float64(len(tokens)) > spacedRatio
}

type tokenClass int

const (
	classOther tokenClass = iota
	classLetter
	classDigit
)

func classOf(tok string) tokenClass {
	r, _ := utf8.DecodeRuneInString(tok)
	switch {
	case unicode.IsLetter(r):
		return classLetter
	case unicode.IsDigit(r), r == ',', r == '.', r == '/':
		return classDigit
	}
	return classOther
}

// Despace junta os caracteres de uma linha espaçada. Palavras ficam separadas
// por dois ou mais espaços; dentro delas tokens de um caractere se juntam com
// vizinhos da mesma classe: letras com letras, dígitos com dígitos, vírgula,
// ponto e barra, de modo que "1 2 1 , 8 1" volta a ser "121,81". Dígitos só continuam
// uma sequência de letras já juntadas ("P E T R 4"); uma letra isolada seguida
// de número ("D 5") fica separada.
func Despace(line string) string {
	var words []string
	for _, chunk := range wordGapRegex.Split(strings.TrimSpace(line), -1) {
		var (
			b     strings.Builder
			out   []string
			class tokenClass
			runs  int
		)
		flush := func() {
			if b.Len() > 0 {
				out = append(out, b.String())
				b.Reset()
			}
			runs = 0
		}
		for _, tok := range strings.Fields(chunk) {
			if utf8.RuneCountInString(tok) != 1 {
				flush()
				out = append(out, tok)
				continue
			}
			c := classOf(tok)
			joins := runs > 0 && c != classOther &&
				(c == class || (c == classDigit && class == classLetter && runs > 1))
			if !joins {
				flush()
			}
			b.WriteString(tok)
			class = c
			runs++
		}
		flush()
		if len(out) > 0 {
			words = append(words, strings.Join(out, " "))
		}
	}
	return strings.Join(words, " ")
}

// despaceText aplica Despace linha a linha quando o texto todo parece espaçado.
func despaceText(lines []string) []string {
	if !NeedsDespacing(strings.Join(lines, "\n")) {
		return lines
	}
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = Despace(l)
	}
	return out
}
