package faq

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog_Lookup(t *testing.T) {
	c := NewCatalog(nil, 3)

	got := c.Lookup("cho hỏi chính sách đổi trả thế nào")

	require.Len(t, got, 1)
	assert.Contains(t, got[0].Answer, "7 ngày")
}

func TestCatalog_LookupCaseInsensitive(t *testing.T) {
	c := NewCatalog(nil, 3)

	got := c.Lookup("shop có ship COD không")

	require.Len(t, got, 1)
	assert.Contains(t, got[0].Answer, "COD")
}

func TestCatalog_LookupCapped(t *testing.T) {
	c := NewCatalog(nil, 2)

	got := c.Lookup("đổi trả, bảo hành và giao hàng thế nào")

	assert.Len(t, got, 2)
}

func TestCatalog_ExtraEntries(t *testing.T) {
	c := NewCatalog([]Entry{{Question: "xuất hóa đơn", Answer: "Shop xuất hóa đơn VAT theo yêu cầu."}}, 3)

	got := c.Lookup("có xuất hóa đơn công ty không")

	require.Len(t, got, 1)
	assert.Equal(t, "Shop xuất hóa đơn VAT theo yêu cầu.", got[0].Answer)
}

func TestCatalog_NoMatch(t *testing.T) {
	c := NewCatalog(nil, 3)

	assert.Empty(t, c.Lookup("mua iphone 15"))
	assert.Empty(t, c.Lookup(""))
}
