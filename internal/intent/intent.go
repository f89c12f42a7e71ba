// Package intent parses free-text Vietnamese customer messages into a
// structured purchase intent: a brand/model phrase plus an optional price
// condition and target value.
//
// All matching is case-insensitive substring matching. Vietnamese signal
// words are not reliably whitespace-delimited, so the vocabulary carries
// both diacritic and non-diacritic spellings.
package intent

import "strings"

// PriceCondition constrains how a price value filters acceptable products.
type PriceCondition int

const (
	// CondNone means no price constraint was expressed.
	CondNone PriceCondition = iota
	// CondUnder keeps products priced at or below the value.
	CondUnder
	// CondFrom keeps products priced at or above the value.
	CondFrom
	// CondAbove keeps products priced at or above the value.
	CondAbove
	// CondAround keeps products within a band around the value.
	CondAround
)

// String returns the condition name.
func (c PriceCondition) String() string {
	switch c {
	case CondUnder:
		return "under"
	case CondFrom:
		return "from"
	case CondAbove:
		return "above"
	case CondAround:
		return "around"
	default:
		return "none"
	}
}

// PurchaseIntent is the structured interpretation of a customer message.
//
// Invariant: PriceCondition != CondNone implies PriceValue > 0, and a
// non-zero PriceValue with no recognized condition keyword is CondAround.
type PurchaseIntent struct {
	IsPurchase     bool
	BrandPhrase    string // at most 3 tokens, empty when no brand matched
	PriceCondition PriceCondition
	PriceValue     int64 // VND, 0 when absent
}

// purchaseKeywords signal buying, pricing, or product inquiry.
var purchaseKeywords = []string{
	"mua", "tìm", "có", "bán", "giá", "bao nhiêu", "bao tiền",
	"điện thoại", "phone", "smartphone", "đt", "sdt",
}

// productKeywords gate whether a message warrants a catalog search at all.
var productKeywords = []string{
	"sản phẩm", "điện thoại", "phone", "iphone", "samsung", "xiaomi", "oppo", "vivo",
	"giá", "giá bao nhiêu", "tồn kho", "còn hàng", "hết hàng", "mua", "bán",
	"tìm", "có", "nào", "loại", "dòng", "mẫu", "model", "shop", "cửa hàng",
	"triệu", "tr", "nghìn", "k", "vnd", "đồng", "sp", "hàng", "giới thiệu", "tư vấn",
	"galaxy", "pixel", "google",
	"mô tả", "tóm tắt", "review", "đáng mua", "chi tiết", "thông số",
}

// policyKeywords gate whether a message warrants a policy document lookup.
var policyKeywords = []string{
	"chính sách", "bảo hành", "đổi trả", "giao hàng",
	"vào nước", "rơi vỡ", "hỏng", "sửa", "chi phí", "máy bị",
}

// featureKeywords are salient feature phrases used when no brand is present.
var featureKeywords = []string{
	"chụp hình", "chụp ảnh", "camera", "pin", "màn hình", "ram", "rom",
	"xuyên màn", "night mode", "zoom", "selfie", "5g", "4g",
	"pro", "max", "ultra", "plus", "mini", "se",
}

// genericStopWords are filler words excluded from search terms and keywords.
var genericStopWords = map[string]bool{
	"có": true, "không": true, "là": true, "của": true, "và": true,
	"với": true, "cho": true, "từ": true, "đến": true, "về": true,
	"nào": true, "gì": true, "máy": true,
}

// ExtractIntent parses a customer message into a PurchaseIntent.
func ExtractIntent(message string) PurchaseIntent {
	lower := strings.ToLower(strings.TrimSpace(message))

	var out PurchaseIntent
	if lower == "" {
		return out
	}

	for _, kw := range purchaseKeywords {
		if strings.Contains(lower, kw) {
			out.IsPurchase = true
			break
		}
	}
	if !out.IsPurchase {
		return out
	}

	out.BrandPhrase = scanBrandPhrase(lower)
	out.PriceCondition, out.PriceValue = ExtractPrice(lower)
	return out
}

// ShouldSearchProducts reports whether the message warrants a catalog search.
func ShouldSearchProducts(message string) bool {
	lower := strings.ToLower(strings.TrimSpace(message))
	if len([]rune(lower)) < 2 {
		return false
	}
	for _, kw := range productKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// ShouldSearchPolicies reports whether the message touches store policies
// such as warranty, returns, damage, or shipping.
func ShouldSearchPolicies(message string) bool {
	lower := strings.ToLower(message)
	for _, kw := range policyKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// ResolveSearchTerm picks the catalog search term for a message.
// Priority: brand name, then a salient feature phrase, then empty for a
// broad generic phone query, then the first meaningful non-stopword tokens.
func ResolveSearchTerm(message string) string {
	lower := strings.ToLower(strings.TrimSpace(message))

	for _, brand := range brandVocabulary {
		if strings.Contains(lower, brand) {
			return brand
		}
	}

	for _, feature := range featureKeywords {
		idx := strings.Index(lower, feature)
		if idx < 0 {
			continue
		}
		// Take the surrounding meaningful words, up to 3.
		runes := []rune(lower)
		start := len([]rune(lower[:idx]))
		lo := start - 10
		if lo < 0 {
			lo = 0
		}
		hi := start + len([]rune(feature)) + 10
		if hi > len(runes) {
			hi = len(runes)
		}
		var meaningful []string
		for _, w := range strings.Fields(string(runes[lo:hi])) {
			if len([]rune(w)) > 2 && !genericStopWords[w] {
				meaningful = append(meaningful, w)
			}
		}
		if len(meaningful) > 3 {
			meaningful = meaningful[:3]
		}
		if len(meaningful) > 0 {
			return strings.Join(meaningful, " ")
		}
	}

	// Generic phone query with no brand or feature: search broad.
	if strings.Contains(lower, "điện thoại") || strings.Contains(lower, "phone") {
		return ""
	}

	var words []string
	for _, w := range strings.Fields(lower) {
		if len([]rune(w)) > 2 && !genericStopWords[w] {
			words = append(words, w)
		}
	}
	if len(words) > 3 {
		words = words[:3]
	}
	return strings.Join(words, " ")
}

// Keywords extracts up to five content words from a query, for review search
// and keyword fallbacks.
func Keywords(query string) []string {
	var out []string
	for _, w := range strings.Fields(strings.ToLower(query)) {
		if len([]rune(w)) > 2 && !genericStopWords[w] {
			out = append(out, w)
		}
		if len(out) == 5 {
			break
		}
	}
	return out
}
