// Package faq answers common store questions from a small built-in set of
// question/answer pairs, optionally extended through configuration.
package faq

import "strings"

// Entry is a question/answer pair.
type Entry struct {
	Question string
	Answer   string
}

// DefaultMaxResults caps how many FAQ entries a lookup returns.
const DefaultMaxResults = 3

// builtin covers the questions customers ask most. Keys are matched as
// case-insensitive substrings in both directions, so a short message like
// "ship COD" still hits the delivery entry.
var builtin = []Entry{
	{
		Question: "đổi trả",
		Answer:   "Quý khách được đổi trả sản phẩm trong vòng 7 ngày kể từ ngày nhận hàng nếu sản phẩm còn nguyên vẹn, đầy đủ hộp và phụ kiện.",
	},
	{
		Question: "bảo hành",
		Answer:   "Tất cả sản phẩm chính hãng được bảo hành 12 tháng tại trung tâm bảo hành ủy quyền trên toàn quốc.",
	},
	{
		Question: "cod",
		Answer:   "Shop hỗ trợ thanh toán COD (nhận hàng rồi trả tiền) trên toàn quốc.",
	},
	{
		Question: "giao hàng",
		Answer:   "Miễn phí giao hàng toàn quốc cho đơn hàng từ 2 triệu đồng, giao nhanh trong 2-4 ngày làm việc.",
	},
	{
		Question: "trả góp",
		Answer:   "Shop hỗ trợ trả góp 0% qua thẻ tín dụng hoặc qua các công ty tài chính với thủ tục đơn giản.",
	},
}

// Catalog is the FAQ lookup table.
type Catalog struct {
	entries    []Entry
	maxResults int
}

// NewCatalog builds a catalog from the built-in set plus any extra entries.
func NewCatalog(extra []Entry, maxResults int) *Catalog {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	entries := make([]Entry, 0, len(builtin)+len(extra))
	entries = append(entries, builtin...)
	entries = append(entries, extra...)
	return &Catalog{entries: entries, maxResults: maxResults}
}

// Lookup returns entries whose question appears in the message or vice
// versa, capped to the configured maximum.
func (c *Catalog) Lookup(message string) []Entry {
	lower := strings.ToLower(strings.TrimSpace(message))
	if lower == "" {
		return nil
	}

	var out []Entry
	for _, e := range c.entries {
		q := strings.ToLower(e.Question)
		if strings.Contains(lower, q) || strings.Contains(q, lower) {
			out = append(out, e)
			if len(out) == c.maxResults {
				break
			}
		}
	}
	return out
}
