package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	dmyRegex      = regexp.MustCompile(`^(\d{1,2})[/.-](\d{1,2})[/.-](\d{4})(?:\s|T|$)`)
	dmyShortRegex = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{2})(?:\s|$)`)
	isoRegex      = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})(?:\s|T|$)`)
	compactRegex  = regexp.MustCompile(`^(\d{4})(\d{2})(\d{2})$`)
	serialRegex   = regexp.MustCompile(`^\d{4,5}(?:\.\d+)?$`)
)

// Intervalo de seriais do Excel aceitos como data (≈1982 a ≈2064). Fora disso um
// número é tratado como número, não como data.
const (
	minExcelSerial = 30000
	maxExcelSerial = 60000
)

// CalendarDate returns the given day at local noon, which keeps the calendar day
// stable across timezone conversions.
func CalendarDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 12, 0, 0, 0, time.Local)
}

// ExcelSerialToDate converte o serial do Excel (dias desde 1899-12-30). A fração
// do dia é ignorada.
func ExcelSerialToDate(serial float64) time.Time {
	base := time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)
	d := base.AddDate(0, 0, int(serial))
	return CalendarDate(d.Year(), d.Month(), d.Day())
}

// ParseDate reconhece DD/MM/YYYY, DD-MM-YYYY, DD.MM.YYYY, DD/MM/YY, YYYY-MM-DD
// (com ou sem hora), YYYYMMDD e seriais numéricos do Excel. Devolve false quando nada casa.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if m := dmyRegex.FindStringSubmatch(s); m != nil {
		return buildDate(m[3], m[2], m[1])
	}
	if m := isoRegex.FindStringSubmatch(s); m != nil {
		return buildDate(m[1], m[2], m[3])
	}
	if m := dmyShortRegex.FindStringSubmatch(s); m != nil {
		return buildDate("20"+m[3], m[2], m[1])
	}
	if m := compactRegex.FindStringSubmatch(s); m != nil {
		return buildDate(m[1], m[2], m[3])
	}
	if serialRegex.MatchString(s) {
		if f, err := strconv.ParseFloat(s, 64); err == nil && f >= minExcelSerial && f <= maxExcelSerial {
			return ExcelSerialToDate(f), true
		}
	}
	return time.Time{}, false
}

// ParseDayMonth lê "DD/MM" completando com o ano informado.
func ParseDayMonth(s string, year int) (time.Time, bool) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 2 {
		return time.Time{}, false
	}
	return buildDate(strconv.Itoa(year), parts[1], parts[0])
}

// buildDate rejeita datas que o time.Date normalizaria (31/02 vira 03/03).
func buildDate(ys, ms, ds string) (time.Time, bool) {
	y, err1 := strconv.Atoi(ys)
	m, err2 := strconv.Atoi(ms)
	d, err3 := strconv.Atoi(ds)
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, false
	}
	if m < 1 || m > 12 || d < 1 || d > 31 || y < 1900 || y > 2200 {
		return time.Time{}, false
	}
	t := CalendarDate(y, time.Month(m), d)
	if t.Day() != d || int(t.Month()) != m {
		return time.Time{}, false
	}
	return t, true
}

// SameDay compares calendar days in local time.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Local().Date()
	by, bm, bd := b.Local().Date()
	return ay == by && am == bm && ad == bd
}

// DaysBetween is the absolute number of calendar days between a and b.
func DaysBetween(a, b time.Time) int {
	ay, am, ad := a.Local().Date()
	by, bm, bd := b.Local().Date()
	da := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	db := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	diff := int(da.Sub(db).Hours() / 24)
	if diff < 0 {
		diff = -diff
	}
	return diff
}
