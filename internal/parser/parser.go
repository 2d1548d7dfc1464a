// Package parser turns a free-text utterance such as
// "Ăn sáng 20k, xăng 50k, lương 15 triệu" into transaction drafts.
//
// The parser is deliberately conservative: an utterance with no number next
// to a money unit or currency marker yields nothing, so questions like
// "summarize the last 90 days" never become transactions.
package parser

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"finflow/internal/category"
	"finflow/internal/core"
	"finflow/internal/dedup"
)

// Submatch groups of amountRe.
const (
	grpSign = iota + 1
	grpPrefixCurrency
	grpNumber
)

const (
	unitAlternatives     = `nghìn|nghin|ngàn|ngan|triệu|trieu|tr|tỷ|tỉ|ty|k|m`
	currencyAlternatives = `vnđ|vnd|usd|euro|eur|đ|₫|\$|€`
)

// suffix is one way of reading the text after a number. Group indexes are
// zero when the pattern has no such part.
type suffix struct {
	re            *regexp.Regexp
	unitGroup     int
	currencyGroup int
}

var (
	// amountRe matches the number with an optional sign and currency symbol
	// touching it. Word edges are checked in findAmounts because RE2 has no
	// lookaround and a consumed separator would hide the next amount.
	amountRe = regexp.MustCompile(`([+-])?(?:([$€₫])\s*)?(\d+(?:[.,]\d+)*)`)

	// suffixes are tried in order; the first one ending on a word edge wins.
	suffixes = []suffix{
		{regexp.MustCompile(`(?i)^\s*(` + unitAlternatives + `)\s*(` + currencyAlternatives + `)`), 1, 2},
		{regexp.MustCompile(`(?i)^\s*(` + unitAlternatives + `)`), 1, 0},
		{regexp.MustCompile(`(?i)^\s*(` + currencyAlternatives + `)`), 0, 1},
	}

	explicitDateRe = regexp.MustCompile(`(?:^|[^\p{N}])(\d{1,2})[/-](\d{1,2})[/-](\d{4}|\d{2})(?:$|[^\p{N}])`)

	relativeDates = []struct {
		pattern *regexp.Regexp
		offset  int
	}{
		{category.Keywords("hôm kia", "hom kia", "day before yesterday"), -2},
		{category.Keywords("hôm qua", "hom qua", "yesterday"), -1},
		{category.Keywords("hôm nay", "hom nay", "today"), 0},
	}

	incomeRe = category.Keywords(
		"thu", "thu nhập", "thu nhap", "nhận", "nhan", "nhận được", "lương", "luong",
		"thưởng", "thuong", "được tặng", "được cho", "được lì xì", "hoàn tiền", "hoan tien",
		"salary", "income", "bonus", "received", "receive", "refund",
	)
)

// Parser extracts drafts from free text.
type Parser struct {
	classifier *category.Classifier
	currency   string
}

// New creates a parser. A nil classifier selects the default rules and an
// empty currency selects core.DefaultCurrency.
func New(classifier *category.Classifier, defaultCurrency string) *Parser {
	if classifier == nil {
		classifier = category.NewClassifier(nil)
	}
	if defaultCurrency == "" {
		defaultCurrency = core.DefaultCurrency
	}
	return &Parser{classifier: classifier, currency: defaultCurrency}
}

// Parse extracts drafts from text and merges same-category siblings.
// ref is the caller's "today".
func (p *Parser) Parse(text string, ref core.Date) []core.TransactionDraft {
	return dedup.Group(p.ParseFragments(text, ref))
}

// ParseFragments returns one draft per surviving fragment, before grouping.
func (p *Parser) ParseFragments(text string, ref core.Date) []core.TransactionDraft {
	text = core.ComposeText(text)
	if !HasMoneySignal(text) {
		return nil
	}

	date := ResolveDate(text, ref)

	var drafts []core.TransactionDraft
	for _, fragment := range SplitFragments(text) {
		if d, ok := p.parseFragment(fragment, date); ok {
			drafts = append(drafts, d)
		}
	}
	return drafts
}

func (p *Parser) parseFragment(fragment string, date core.Date) (core.TransactionDraft, bool) {
	cleaned := stripDateMarkers(fragment)

	matches := findAmounts(cleaned)
	m, ok := bestAmount(matches)
	if !ok {
		return core.TransactionDraft{}, false
	}
	value, err := core.ParseAmount(m.token)
	if err != nil {
		return core.TransactionDraft{}, false
	}

	cat := p.classifier.Infer(fragment)
	if !m.hasUnit && cat == category.Other {
		return core.TransactionDraft{}, false
	}

	currency := p.currency
	if m.currency != "" {
		if code, ok := core.CurrencyOf(m.currency); ok {
			currency = code
		}
	} else {
		currency = core.DetectCurrency(cleaned, p.currency)
	}

	desc := describe(cutAmounts(cleaned, matches, m))
	if desc == "" {
		desc = cat
	}

	d := core.TransactionDraft{
		Amount:      core.Money{Value: value, Currency: currency},
		Description: desc,
		Category:    cat,
		Date:        date,
		Type:        InferType(m.sign, fragment),
	}
	d.DedupHash = dedup.HashDraft(d)
	return d, true
}

type amountMatch struct {
	start, end int
	token      string
	sign       string
	currency   string
	hasUnit    bool
}

func findAmounts(s string) []amountMatch {
	var out []amountMatch
	for _, idx := range amountRe.FindAllStringSubmatchIndex(s, -1) {
		group := func(g int) string {
			if idx[2*g] < 0 {
				return ""
			}
			return s[idx[2*g]:idx[2*g+1]]
		}

		m := amountMatch{
			sign:     group(grpSign),
			currency: group(grpPrefixCurrency),
			start:    idx[0],
		}
		if !leadingEdge(s, m.start) {
			// A sign or symbol glued to a word is a separator, not part of
			// the amount: "x-20k" reads as 20k.
			switch {
			case m.sign != "":
				m.sign = ""
				m.start = idx[2*grpSign+1]
			case m.currency != "":
				m.currency = ""
				m.start = idx[2*grpNumber]
			default:
				continue
			}
		}

		numberEnd := idx[2*grpNumber+1]
		unit, currency, end, ok := readSuffix(s, numberEnd)
		if !ok {
			continue
		}
		m.token = group(grpNumber) + unit
		m.currency += currency
		m.end = end
		m.hasUnit = unit != "" || m.currency != ""
		out = append(out, m)
	}
	return out
}

// readSuffix reads an optional unit and currency after a number ending at
// i. It reports false when no reading ends on a word edge.
func readSuffix(s string, i int) (unit, currency string, end int, ok bool) {
	rest := s[i:]
	for _, sfx := range suffixes {
		loc := sfx.re.FindStringSubmatchIndex(rest)
		if loc == nil || !trailingEdge(s, i+loc[1]) {
			continue
		}
		if g := sfx.unitGroup; g > 0 {
			unit = rest[loc[2*g]:loc[2*g+1]]
		}
		if g := sfx.currencyGroup; g > 0 {
			currency = rest[loc[2*g]:loc[2*g+1]]
		}
		return unit, currency, i + loc[1], true
	}
	if !trailingEdge(s, i) {
		return "", "", 0, false
	}
	return "", "", i, true
}

// leadingEdge reports whether an amount may start at i: it must not continue
// a word or another number.
func leadingEdge(s string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '.' && r != ','
}

// trailingEdge reports whether an amount may end at i.
func trailingEdge(s string, i int) bool {
	if i >= len(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return !unicode.IsLetter(r) && !unicode.IsNumber(r)
}

// cutAmounts removes the chosen amount and every other amount carrying a
// unit, leaving bare numbers such as quantities in place.
func cutAmounts(s string, matches []amountMatch, chosen amountMatch) string {
	var b strings.Builder
	last := 0
	for _, m := range matches {
		if m.start != chosen.start && !m.hasUnit {
			continue
		}
		b.WriteString(s[last:m.start])
		b.WriteByte(' ')
		last = m.end
	}
	b.WriteString(s[last:])
	return b.String()
}

// bestAmount prefers the first number carrying a unit or currency, falling
// back to the first bare number.
func bestAmount(matches []amountMatch) (amountMatch, bool) {
	if len(matches) == 0 {
		return amountMatch{}, false
	}
	for _, m := range matches {
		if m.hasUnit {
			return m, true
		}
	}
	return matches[0], true
}

// HasMoneySignal reports whether text contains a number adjacent to a money
// unit or currency marker.
func HasMoneySignal(text string) bool {
	for _, m := range findAmounts(stripDateMarkers(core.ComposeText(text))) {
		if m.hasUnit {
			return true
		}
	}
	return false
}

// ResolveDate picks the transaction date for an utterance: an explicit
// d/m/y date wins, then a relative marker, then ref.
func ResolveDate(text string, ref core.Date) core.Date {
	for _, m := range explicitDateRe.FindAllStringSubmatch(text, -1) {
		if d, ok := explicitDate(m[1], m[2], m[3]); ok {
			return d
		}
	}
	normalized := core.NormalizeText(text)
	for _, rel := range relativeDates {
		if rel.pattern.MatchString(normalized) {
			return ref.AddDays(rel.offset)
		}
	}
	return ref
}

func explicitDate(dayStr, monthStr, yearStr string) (core.Date, bool) {
	day, _ := strconv.Atoi(dayStr)
	month, _ := strconv.Atoi(monthStr)
	year, _ := strconv.Atoi(yearStr)
	if len(yearStr) == 2 {
		year += 2000
	}
	if month < 1 || month > 12 || day < 1 {
		return core.Date{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes 31/02 into March; reject instead.
	if t.Day() != day || int(t.Month()) != month {
		return core.Date{}, false
	}
	return core.DateOf(t), true
}

// SplitFragments splits on commas, semicolons and newlines. A comma between
// two digits is a decimal or grouping separator and does not split.
func SplitFragments(text string) []string {
	var (
		out   []string
		start int
		prev  rune
	)
	for i, r := range text {
		split := r == ';' || r == '\n'
		if r == ',' {
			next, _ := utf8.DecodeRuneInString(text[i+len(","):])
			split = !(unicode.IsDigit(prev) && unicode.IsDigit(next))
		}
		if split {
			if f := strings.TrimSpace(text[start:i]); f != "" {
				out = append(out, f)
			}
			start = i + utf8.RuneLen(r)
		}
		prev = r
	}
	if f := strings.TrimSpace(text[start:]); f != "" {
		out = append(out, f)
	}
	return out
}

// InferType resolves income vs expense: an explicit sign wins, then income
// keywords, otherwise expense.
func InferType(sign, fragment string) core.TransactionType {
	switch sign {
	case "+":
		return core.Income
	case "-":
		return core.Expense
	}
	if incomeRe.MatchString(core.NormalizeText(fragment)) {
		return core.Income
	}
	return core.Expense
}

// stripDateMarkers blanks explicit dates and relative day words so they
// neither look like amounts nor end up in descriptions.
func stripDateMarkers(s string) string {
	s = explicitDateRe.ReplaceAllStringFunc(s, blankDigits)
	for _, rel := range relativeDates {
		s = replaceFoldedMatches(rel.pattern, s)
	}
	return s
}

// blankDigits keeps the boundary characters of a date match but removes the date.
func blankDigits(match string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) || r == '/' || r == '-' {
			return ' '
		}
		return r
	}, match)
}

// replaceFoldedMatches blanks pattern matches. Patterns are case-insensitive,
// so they match the composed text directly without lower-casing it.
func replaceFoldedMatches(pattern *regexp.Regexp, s string) string {
	return pattern.ReplaceAllStringFunc(s, func(match string) string {
		return strings.Map(func(r rune) rune {
			if unicode.IsLetter(r) {
				return ' '
			}
			return r
		}, match)
	})
}

func describe(s string) string {
	return strings.Trim(core.CollapseSpaces(s), " -+:.,")
}
