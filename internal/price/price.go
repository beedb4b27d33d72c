// Package price condenses free-text price phrases into a display string.
package price

import (
	"regexp"
	"strings"
)

// Display labels
const (
	Free          = "Free"
	PayWhatYouCan = "Pay what you can"
	SeeVenue      = "See venue for admission"
	SeeWebsite    = "See website for details"
)

// amount is a dollar figure with optional thousands separators and cents
const amount = `\$\s?(?:\d{1,3}(?:,\d{3})+|\d+)(?:\.\d{1,2})?`

var (
	freePattern   = regexp.MustCompile(`(?i)\b(?:free|no charge|complimentary)\b`)
	rangePattern  = regexp.MustCompile(amount + `\s*(?:-|–|—|to)\s*` + amount)
	amountPattern = regexp.MustCompile(amount)
	pwycPattern   = regexp.MustCompile(`(?i)\bpay[\s-]+what[\s-]+you[\s-]+can\b|\bpwyc\b`)
	admitPattern  = regexp.MustCompile(`(?i)\b(?:admission|tickets?)\b`)
)

// Extract applies the cascade to priceText, then to fallbackText, and
// returns SeeWebsite when neither yields anything
func Extract(priceText, fallbackText string) string {
	if p, ok := match(priceText); ok {
		return p
	}
	if p, ok := match(fallbackText); ok {
		return p
	}
	return SeeWebsite
}

func match(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", false
	}

	switch {
	case freePattern.MatchString(text):
		return Free, true
	case rangePattern.MatchString(text):
		return rangePattern.FindString(text), true
	case amountPattern.MatchString(text):
		return amountPattern.FindString(text), true
	case pwycPattern.MatchString(text):
		return PayWhatYouCan, true
	case admitPattern.MatchString(text):
		return SeeVenue, true
	}
	return "", false
}
