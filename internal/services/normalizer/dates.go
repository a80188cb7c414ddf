package normalizer

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// monthsPT maps lowercase Portuguese month names to their number.
var monthsPT = map[string]time.Month{
	"janeiro":   time.January,
	"fevereiro": time.February,
	"março":     time.March,
	"marco":     time.March,
	"abril":     time.April,
	"maio":      time.May,
	"junho":     time.June,
	"julho":     time.July,
	"agosto":    time.August,
	"setembro":  time.September,
	"outubro":   time.October,
	"novembro":  time.November,
	"dezembro":  time.December,
}

var (
	reSlashFull  = regexp.MustCompile(`(\d{1,2})/(\d{1,2})/(\d{4})`)
	reSlashShort = regexp.MustCompile(`(\d{1,2})/(\d{1,2})(?:\D|$)`)
	reMonthFull  = regexp.MustCompile(`(\d{1,2}) de (\p{L}+) de (\d{4})`)
	reMonthShort = regexp.MustCompile(`(\d{1,2}) de (\p{L}+)`)
	// Relative ages, Portuguese and English: "há 3 dias", "3 days ago",
	// "2 horas atrás", "30+ dias". The unit decides the multiplier.
	reRelative = regexp.MustCompile(`(\d+)\+?\s*(minutos|minuto|minutes|minute|min|horas|hora|hours|hour|h|dias|dia|days|day|d|semanas|semana|weeks|week|mês|meses|mes|months|month)\b`)
)

// ParsePostedAt converts a source-supplied posting-date string into an
// absolute instant. It accepts RFC 3339, date-only ISO, Brazilian
// absolute formats (DD/MM/YYYY, "2 de agosto de 2026") and relative ages
// in Portuguese or English. Unparseable or empty input yields nil; a
// missing posting date is an absent signal, not an error.
func ParsePostedAt(text string, now time.Time) *time.Time {
	text = strings.TrimSpace(strings.ToLower(text))
	if text == "" {
		return nil
	}

	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if ts, err := time.Parse(layout, strings.ToUpper(text)); err == nil {
			return &ts
		}
	}

	if ts := parseRelative(text, now); ts != nil {
		return ts
	}

	switch {
	case strings.Contains(text, "hoje"), strings.Contains(text, "today"),
		strings.Contains(text, "agora"), strings.Contains(text, "just posted"),
		strings.Contains(text, "recém"):
		return &now
	case strings.Contains(text, "ontem"), strings.Contains(text, "yesterday"):
		ts := now.AddDate(0, 0, -1)
		return &ts
	}

	return parseAbsolute(text, now)
}

// parseRelative handles "há N <unit>" / "N <unit> ago" style ages.
func parseRelative(text string, now time.Time) *time.Time {
	m := reRelative.FindStringSubmatch(text)
	if m == nil {
		return nil
	}

	n, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}

	var ts time.Time
	switch unit := m[2]; {
	case strings.HasPrefix(unit, "min"):
		ts = now.Add(-time.Duration(n) * time.Minute)
	case strings.HasPrefix(unit, "hora"), strings.HasPrefix(unit, "hour"), unit == "h":
		ts = now.Add(-time.Duration(n) * time.Hour)
	case strings.HasPrefix(unit, "dia"), strings.HasPrefix(unit, "day"), unit == "d":
		ts = now.AddDate(0, 0, -n)
	case strings.HasPrefix(unit, "semana"), strings.HasPrefix(unit, "week"):
		ts = now.AddDate(0, 0, -7*n)
	case strings.HasPrefix(unit, "mês"), strings.HasPrefix(unit, "mes"), strings.HasPrefix(unit, "month"):
		ts = now.AddDate(0, -n, 0)
	default:
		return nil
	}
	return &ts
}

// parseAbsolute handles DD/MM/YYYY, DD/MM and "DD de <mês> [de YYYY]".
// Formats without a year assume the current year.
func parseAbsolute(text string, now time.Time) *time.Time {
	if m := reSlashFull.FindStringSubmatch(text); m != nil {
		return makeDate(m[3], m[2], m[1])
	}
	if m := reMonthFull.FindStringSubmatch(text); m != nil {
		if month, ok := monthsPT[m[2]]; ok {
			return makeDate(m[3], strconv.Itoa(int(month)), m[1])
		}
		return nil
	}
	if m := reMonthShort.FindStringSubmatch(text); m != nil {
		if month, ok := monthsPT[m[2]]; ok {
			return makeDate(strconv.Itoa(now.Year()), strconv.Itoa(int(month)), m[1])
		}
	}
	if m := reSlashShort.FindStringSubmatch(text + " "); m != nil {
		return makeDate(strconv.Itoa(now.Year()), m[2], m[1])
	}
	return nil
}

func makeDate(year, month, day string) *time.Time {
	y, err1 := strconv.Atoi(year)
	mo, err2 := strconv.Atoi(month)
	d, err3 := strconv.Atoi(day)
	if err1 != nil || err2 != nil || err3 != nil {
		return nil
	}
	if mo < 1 || mo > 12 || d < 1 || d > 31 {
		return nil
	}
	ts := time.Date(y, time.Month(mo), d, 0, 0, 0, 0, time.UTC)
	return &ts
}
