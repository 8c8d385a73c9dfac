package normalize

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nonAlphanumericRegex = regexp.MustCompile(`[^a-z0-9 ]+`)
var whitespaceRegex = regexp.MustCompile(`\s+`)

// StripAccents remove diacríticos ("Lançamento" -> "Lancamento").
func StripAccents(str string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(t, str)
	if err != nil {
		return str
	}
	return result
}

// Normalize deixa o texto em minúsculas, sem acentos, sem pontuação e com
// espaços simples. É a chave usada para comparar cabeçalhos e descrições.
func Normalize(str string) string {
	result := strings.ToLower(StripAccents(str))
	result = nonAlphanumericRegex.ReplaceAllString(result, " ")
	result = whitespaceRegex.ReplaceAllString(result, " ")
	return strings.TrimSpace(result)
}

// CollapseSpaces trims and reduces internal whitespace runs to one space.
func CollapseSpaces(s string) string {
	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(s, " "))
}

// Sanitize remove caracteres de controle, quebras e tabs embutidos.
func Sanitize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == '\r' || r == '\n' || r == '\t' {
			b.WriteByte(' ')
			continue
		}
		if r < 32 || r == utf8.RuneError {
			continue
		}
		b.WriteRune(r)
	}
	return CollapseSpaces(b.String())
}

// Truncate corta s em no máximo n runas.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}

// DecodeLegacy devolve o conteúdo como UTF-8. Arquivos que não são UTF-8 válido
// são lidos como Windows-1252, superset do ISO-8859-1 usado pelos bancos.
func DecodeLegacy(data []byte) string {
	data = trimBOM(data)
	if utf8.Valid(data) {
		return string(data)
	}
	return DecodeWindows1252(data)
}

// DecodeWindows1252 converte bytes Windows-1252 para UTF-8.
func DecodeWindows1252(data []byte) string {
	out, _, err := transform.Bytes(charmap.Windows1252.NewDecoder(), data)
	if err != nil {
		return string(data)
	}
	return string(out)
}

func trimBOM(data []byte) []byte {
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		return data[3:]
	}
	return data
}
