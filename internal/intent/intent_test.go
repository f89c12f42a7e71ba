package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractPrice(t *testing.T) {
	tests := []struct {
		name    string
		message string
		cond    PriceCondition
		value   int64
	}{
		{"under with unit", "điện thoại dưới 15 triệu", CondUnder, 15_000_000},
		{"under no diacritics", "dien thoai duoi 15 trieu", CondUnder, 15_000_000},
		{"around decimal tr", "tìm máy khoảng 8.5tr", CondAround, 8_500_000},
		{"around comma decimal", "khoảng 8,5 triệu", CondAround, 8_500_000},
		{"from with tr", "từ 20tr trở lên", CondFrom, 20_000_000},
		{"above", "trên 10 triệu", CondAbove, 10_000_000},
		{"tam as around", "tầm 7 triệu thôi", CondAround, 7_000_000},
		{"bare amount defaults to around", "điện thoại 10 triệu", CondAround, 10_000_000},
		{"thousand unit", "tai nghe dưới 500k", CondUnder, 500_000},
		{"explicit vnd not remultiplied", "dưới 15000000 vnd", CondUnder, 15_000_000},
		{"no unit and no hint passes through", "dưới 15 nha shop", CondUnder, 15},
		{"no price at all", "shop có bán ốp lưng không", CondNone, 0},
		{"bare number without unit ignored", "iphone 15 có tốt không", CondNone, 0},
		{"empty", "", CondNone, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cond, value := ExtractPrice(tt.message)
			assert.Equal(t, tt.cond, cond, "condition")
			assert.Equal(t, tt.value, value, "value")
		})
	}
}

func TestExtractPrice_PrecedenceOrder(t *testing.T) {
	// Both keywords present: the fixed check order wins, not sentence order.
	cond, value := ExtractPrice("từ 10 triệu nhưng dưới 20 triệu")
	assert.Equal(t, CondUnder, cond)
	assert.Equal(t, int64(20_000_000), value)
}

func TestExtractPrice_NoUnitHeuristic(t *testing.T) {
	// Small number, million hint elsewhere: read as millions.
	cond, value := ExtractPrice("tầm 8 là được")
	assert.Equal(t, CondAround, cond)
	assert.Equal(t, int64(8_000_000), value)

	// Large number with no hint stays in plain currency units.
	cond, value = ExtractPrice("dưới 15000000")
	assert.Equal(t, CondUnder, cond)
	assert.Equal(t, int64(15_000_000), value)
}

func TestScanBrandPhrase(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    string
	}{
		{"brand with model and suffixes", "mua iphone 15 pro max dưới 20 triệu", "iphone 15 pro"},
		{"price digit never joins phrase", "iphone 15 dưới 20 triệu", "iphone 15"},
		{"stops at price word", "samsung giá bao nhiêu", "samsung"},
		{"brand only", "có bán oppo không", "oppo"},
		{"no brand", "điện thoại nào pin trâu", ""},
		{"first brand wins", "so sánh samsung với iphone", "samsung"},
		{"galaxy model", "samsung galaxy s24 còn hàng không", "samsung galaxy s24"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, scanBrandPhrase(tt.message))
		})
	}
}

func TestExtractIntent(t *testing.T) {
	got := ExtractIntent("Tôi muốn mua iPhone 15 Pro Max dưới 20 triệu")

	assert.True(t, got.IsPurchase)
	assert.Equal(t, "iphone 15 pro", got.BrandPhrase)
	assert.Equal(t, CondUnder, got.PriceCondition)
	assert.Equal(t, int64(20_000_000), got.PriceValue)
	assert.NotContains(t, got.BrandPhrase, "20")
}

func TestExtractIntent_NotAPurchase(t *testing.T) {
	got := ExtractIntent("xin chào")

	assert.False(t, got.IsPurchase)
	assert.Empty(t, got.BrandPhrase)
	assert.Equal(t, CondNone, got.PriceCondition)
	assert.Zero(t, got.PriceValue)
}

func TestExtractIntent_InvariantConditionImpliesValue(t *testing.T) {
	messages := []string{
		"mua iphone dưới 20 triệu",
		"tìm samsung khoảng 10tr",
		"có điện thoại nào không",
		"mua điện thoại dưới giá tốt", // condition word, no number
	}

	for _, msg := range messages {
		got := ExtractIntent(msg)
		if got.PriceCondition != CondNone {
			assert.Positive(t, got.PriceValue, "message %q", msg)
		}
	}
}

func TestShouldSearchProducts(t *testing.T) {
	assert.True(t, ShouldSearchProducts("shop có điện thoại nào tốt"))
	assert.True(t, ShouldSearchProducts("iphone giá bao nhiêu"))
	assert.False(t, ShouldSearchProducts("ư"))
	assert.False(t, ShouldSearchProducts(""))
}

func TestShouldSearchPolicies(t *testing.T) {
	assert.True(t, ShouldSearchPolicies("chính sách bảo hành thế nào"))
	assert.True(t, ShouldSearchPolicies("máy bị vào nước có sửa được không"))
	assert.False(t, ShouldSearchPolicies("mua iphone 15"))
}

func TestResolveSearchTerm(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    string
	}{
		{"brand beats everything", "điện thoại iphone giá rẻ", "iphone"},
		{"broad phone query searches wide", "điện thoại nào tốt", ""},
		{"feature phrase", "máy chụp hình xuyên màn đêm", "chụp hình xuyên"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveSearchTerm(tt.message))
		})
	}
}

func TestKeywords(t *testing.T) {
	got := Keywords("có điện thoại pin trâu màn đẹp giá rẻ chụp tốt")

	assert.LessOrEqual(t, len(got), 5)
	assert.NotContains(t, got, "có")
	assert.Contains(t, got, "điện")
}
