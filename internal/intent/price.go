package intent

import (
	"regexp"
	"strconv"
	"strings"
)

// number accepts "8", "8.5" and the comma decimal "8,5".
const number = `(\d+(?:[.,]\d+)?)`

// unit is an optional currency unit suffix.
const unit = `\s*(triệu|tr|k|nghìn|ngàn|vnđ|vnd|đ|đồng|dong)?`

// conditionSpec pairs a price condition with its keyword spellings and a
// regexp extracting the number that follows the keyword.
type conditionSpec struct {
	cond    PriceCondition
	matches func(text string) bool
	after   *regexp.Regexp
}

var (
	reTu  = regexp.MustCompile(`\btu\b`)
	reTam = regexp.MustCompile(`\btam\b`)

	// Bare amount with an explicit unit, used when no condition keyword
	// matched anywhere in the message.
	reBareAmount = regexp.MustCompile(number + unit)
)

// conditionSpecs is checked in fixed precedence order regardless of keyword
// position in the sentence. Each set carries both diacritic and
// non-diacritic spellings.
var conditionSpecs = []conditionSpec{
	{
		cond: CondUnder,
		matches: func(t string) bool {
			return strings.Contains(t, "dưới") || strings.Contains(t, "duoi")
		},
		after: regexp.MustCompile(`(?:dưới|duoi)\s*` + number + unit),
	},
	{
		cond: CondFrom,
		matches: func(t string) bool {
			return strings.Contains(t, "từ") || reTu.MatchString(t)
		},
		after: regexp.MustCompile(`(?:từ|\btu\b)\s*` + number + unit),
	},
	{
		cond: CondAbove,
		matches: func(t string) bool {
			return strings.Contains(t, "trên") || strings.Contains(t, "tren")
		},
		after: regexp.MustCompile(`(?:trên|tren)\s*` + number + unit),
	},
	{
		cond: CondAround,
		matches: func(t string) bool {
			return strings.Contains(t, "khoảng") || strings.Contains(t, "khoang") ||
				strings.Contains(t, "tầm") || reTam.MatchString(t)
		},
		after: regexp.MustCompile(`(?:khoảng|khoang|tầm|\btam\b)\s*` + number + unit),
	},
}

// ExtractPrice parses a price condition and target value in VND from a
// lowercased message.
//
// Condition keywords are checked in fixed precedence order under, from,
// above, around; the number is taken immediately after the matched keyword.
// A bare amount with no condition keyword defaults to around. A condition
// keyword with no parseable amount yields no constraint at all.
func ExtractPrice(lower string) (PriceCondition, int64) {
	text := strings.TrimSpace(lower)
	if text == "" {
		return CondNone, 0
	}

	for _, spec := range conditionSpecs {
		if !spec.matches(text) {
			continue
		}
		if m := spec.after.FindStringSubmatch(text); m != nil {
			value := normalizeAmount(m[1], m[2], text)
			if value > 0 {
				return spec.cond, value
			}
		}
		return CondNone, 0
	}

	// A model number like "iphone 15" must not read as a price, so only a
	// number with an explicit unit counts here.
	for _, m := range reBareAmount.FindAllStringSubmatch(text, -1) {
		if m[2] == "" {
			continue
		}
		if value := normalizeAmount(m[1], m[2], text); value > 0 {
			return CondAround, value
		}
	}

	return CondNone, 0
}

// millionHint reports whether the surrounding text suggests an amount is
// denominated in millions even without a unit on the number itself.
var millionHintRe = regexp.MustCompile(`\btr\b`)

func hasMillionHint(text string) bool {
	return strings.Contains(text, "triệu") || millionHintRe.MatchString(text) ||
		strings.Contains(text, "tầm") || strings.Contains(text, "khoảng") ||
		strings.Contains(text, "khoang")
}

// normalizeAmount converts a raw number and optional unit into VND.
// An amount already in full currency units must not be re-multiplied, so
// the no-unit million heuristic only fires for small magnitudes.
func normalizeAmount(raw, unit, text string) int64 {
	amount, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
	if err != nil {
		return 0
	}

	switch unit {
	case "triệu", "tr":
		return int64(amount * 1_000_000)
	case "k", "nghìn", "ngàn":
		return int64(amount * 1_000)
	case "vnđ", "vnd", "đ", "đồng", "dong":
		return int64(amount)
	}

	if amount < 1000 && hasMillionHint(text) {
		return int64(amount * 1_000_000)
	}
	return int64(amount)
}
