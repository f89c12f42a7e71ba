package intent

import (
	"strings"
	"unicode"
)

// brandVocabulary lists the phone brands the scanner recognizes, checked in
// order. The first brand occurring in the message wins; a second brand later
// in the message is ignored on purpose.
var brandVocabulary = []string{
	"iphone", "samsung", "oppo", "xiaomi", "vivo", "realme",
	"huawei", "honor", "nokia", "sony", "google", "pixel",
	"oneplus", "asus", "lg", "motorola",
}

// priceStopWords end the brand phrase: once the sentence turns to price or
// condition talk, everything after belongs to the price, not the model name.
var priceStopWords = map[string]bool{
	"duoi": true, "dưới": true, "tren": true, "trên": true,
	"tu": true, "từ": true, "den": true, "đến": true,
	"khoang": true, "khoảng": true, "gia": true, "giá": true,
	"tam": true, "tầm": true, "bao": true, "nhieu": true,
	"nhiêu": true, "la": true, "là": true, "co": true, "có": true,
}

// priceUnits mark a preceding number as a price amount rather than a model
// number.
var priceUnits = map[string]bool{
	"trieu": true, "triệu": true, "tr": true, "k": true,
	"nghin": true, "nghìn": true, "ngan": true, "ngàn": true,
	"vnđ": true, "vnd": true, "đ": true, "dong": true, "đồng": true,
}

// maxPhraseTokens caps the brand phrase length.
const maxPhraseTokens = 3

type scanState int

const (
	seekingBrand scanState = iota
	inPhrase
	stopped
)

// scanBrandPhrase extracts a brand/model phrase from a lowercased message.
//
// A single greedy pass from the first brand occurrence accumulates tokens
// with precedence brand-keep > price-stop > generic-stop: the brand token is
// always kept, a price or condition word ends the phrase, a numeric token
// adjacent to a price unit or price stop word is a price and ends the
// phrase, and any other alphanumeric token (a model number or suffix) is
// kept. The scanner prefers truncating the model phrase over misreading a
// price digit as part of the model name.
func scanBrandPhrase(lower string) string {
	state := seekingBrand

	// With multiple brands in one message the first occurrence wins.
	var brand string
	brandIdx := -1
	for _, b := range brandVocabulary {
		if idx := strings.Index(lower, b); idx >= 0 && (brandIdx < 0 || idx < brandIdx) {
			brand, brandIdx = b, idx
			state = inPhrase
		}
	}
	if state == seekingBrand {
		return ""
	}

	tokens := strings.Fields(lower[brandIdx:])
	var phrase []string

	for i := 0; i < len(tokens) && state == inPhrase; i++ {
		tok := normalizeToken(tokens[i])

		var next, prev string
		if i+1 < len(tokens) {
			next = normalizeToken(tokens[i+1])
		}
		if i > 0 {
			prev = normalizeToken(tokens[i-1])
		}

		switch {
		case priceStopWords[tok]:
			state = stopped

		case strings.Contains(tok, brand):
			phrase = append(phrase, tokens[i])

		case isNumeric(tok) && (priceUnits[next] || priceStopWords[prev]):
			// A price amount, not a model number.
			state = stopped

		case genericStopWords[tok]:
			state = stopped

		case isAlphanumeric(tok):
			phrase = append(phrase, tokens[i])

		default:
			state = stopped
		}

		if len(phrase) == maxPhraseTokens {
			state = stopped
		}
	}

	return strings.Join(phrase, " ")
}

// normalizeToken strips punctuation, keeping letters and digits.
func normalizeToken(tok string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return -1
	}, tok)
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func isAlphanumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
