package scraper

import (
	"regexp"
	"sort"
	"strings"

	"costbook/models"

	"github.com/shopspring/decimal"
)

// PriceParser pulls a currency-prefixed amount out of free text.
// It is safe for concurrent use and has no state besides its pattern.
type PriceParser struct {
	tokens  []string
	pattern *regexp.Regexp
}

// DefaultCurrencyTokens are accepted when no tokens are configured
var DefaultCurrencyTokens = []string{"NRs", "NPR", "Rs"}

// NewPriceParser builds a parser for the given currency tokens.
// Matching is case-insensitive and the token must start on a word boundary.
func NewPriceParser(tokens ...string) *PriceParser {
	cleaned := make([]string, 0, len(tokens))
	for _, t := range tokens {
		t = strings.TrimSuffix(strings.TrimSpace(t), ".")
		if t != "" {
			cleaned = append(cleaned, t)
		}
	}
	if len(cleaned) == 0 {
		cleaned = append(cleaned, DefaultCurrencyTokens...)
	}

	// Longest first so "NRs" is tried before "Rs"
	sort.SliceStable(cleaned, func(i, j int) bool { return len(cleaned[i]) > len(cleaned[j]) })

	quoted := make([]string, len(cleaned))
	for i, t := range cleaned {
		quoted[i] = regexp.QuoteMeta(t)
	}

	// token, optional period/whitespace, 1,234,567 | 1,29,000 | 1290, optional .50
	expr := `(?i)\b(?:` + strings.Join(quoted, "|") + `)[.\s]*` +
		`(\d{1,3}(?:,\d{3})+|\d{1,3}(?:,\d{2})+,\d{3}|\d+)(\.\d{2})?\b`

	return &PriceParser{
		tokens:  cleaned,
		pattern: regexp.MustCompile(expr),
	}
}

// Tokens returns the accepted currency tokens
func (pp *PriceParser) Tokens() []string {
	return append([]string(nil), pp.tokens...)
}

// Parse returns the first price in text. A missing pattern or a failed
// numeric parse is a soft "no match", never an error.
func (pp *PriceParser) Parse(text string) (models.Money, bool) {
	prices := pp.find(text, 1)
	if len(prices) == 0 {
		return models.Money{}, false
	}
	return prices[0], true
}

// ParseAll returns every price found in text, in order of appearance
func (pp *PriceParser) ParseAll(text string) []models.Money {
	return pp.find(text, -1)
}

// HasCurrencyToken reports whether text mentions any accepted token
// followed by an amount
func (pp *PriceParser) HasCurrencyToken(text string) bool {
	return len(pp.find(text, 1)) > 0
}

// find returns up to n prices (all when n < 0). A match whose digits carry
// on past it, as in "12,34" or "1,290.5", is malformed and skipped.
func (pp *PriceParser) find(text string, n int) []models.Money {
	var out []models.Money
	for _, loc := range pp.pattern.FindAllStringSubmatchIndex(text, -1) {
		if continuesNumber(text, loc[1]) {
			continue
		}
		fraction := ""
		if loc[4] >= 0 {
			fraction = text[loc[4]:loc[5]]
		}
		money, ok := toMoney(text[loc[2]:loc[3]], fraction)
		if !ok {
			continue
		}
		out = append(out, money)
		if n > 0 && len(out) >= n {
			break
		}
	}
	return out
}

func continuesNumber(text string, end int) bool {
	if end+1 >= len(text) {
		return false
	}
	sep, next := text[end], text[end+1]
	return (sep == ',' || sep == '.') && next >= '0' && next <= '9'
}

func toMoney(whole, fraction string) (models.Money, bool) {
	number := strings.ReplaceAll(whole, ",", "") + fraction
	value, err := decimal.NewFromString(number)
	if err != nil || value.IsNegative() {
		return models.Money{}, false
	}
	return models.NewMoney(value), true
}
