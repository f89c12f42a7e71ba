// Package retrieval composes intent extraction, catalog fetches, semantic
// ranking, price filtering, and policy lookup into one fallback chain that
// produces the context handed to the language model.
package retrieval

import (
	"fmt"
	"strings"

	"github.com/phonify-ai/retrieval-engine/internal/backend"
	"github.com/phonify-ai/retrieval-engine/internal/faq"
	"github.com/phonify-ai/retrieval-engine/internal/intent"
	"github.com/phonify-ai/retrieval-engine/internal/policy"
)

// Context aggregates everything retrieved for one customer message.
// Created per request and discarded after the caller consumes it.
type Context struct {
	Query              string
	ResolvedSearchTerm string
	Intent             intent.PurchaseIntent
	Products           []backend.Product // relevance-ordered, not price-ordered
	Reviews            []backend.Review
	FAQs               []faq.Entry
	Policies           []policy.ScoredChunk
}

// Empty reports whether nothing at all was retrieved.
func (c *Context) Empty() bool {
	return len(c.Products) == 0 && len(c.Reviews) == 0 && len(c.FAQs) == 0 && len(c.Policies) == 0
}

// Format renders the context as the structured text block appended to the
// user message for the language model. Pure transform, no side effects.
func (c *Context) Format() string {
	var b strings.Builder

	if len(c.Products) > 0 {
		b.WriteString("=== SẢN PHẨM PHÙ HỢP ===\n")
		for i, p := range c.Products {
			fmt.Fprintf(&b, "%d. %s\n", i+1, p.Name)
			fmt.Fprintf(&b, "   - Giá: %s VNĐ (%.1f triệu đồng)\n", formatThousands(int64(p.Price)), p.Price/1_000_000)
			if p.StockQuantity > 0 {
				fmt.Fprintf(&b, "   - Tồn kho: %d\n", p.StockQuantity)
			} else {
				b.WriteString("   - Tồn kho: hết hàng\n")
			}
			if p.Category != "" {
				fmt.Fprintf(&b, "   - Danh mục: %s\n", p.Category)
			}
			if p.Description != "" {
				fmt.Fprintf(&b, "   - Mô tả: %s\n", truncateRunes(p.Description, 150))
			}
		}
		b.WriteString("\n")
	}

	if len(c.Policies) > 0 {
		b.WriteString("=== CHÍNH SÁCH CỬA HÀNG ===\n")
		for _, pc := range c.Policies {
			fmt.Fprintf(&b, "[%s] %s\n", pc.Chunk.Source, pc.Chunk.Content)
		}
		b.WriteString("\n")
	}

	if len(c.Reviews) > 0 {
		b.WriteString("=== ĐÁNH GIÁ KHÁCH HÀNG ===\n")
		for _, r := range c.Reviews {
			fmt.Fprintf(&b, "- (%.1f/5) %s\n", r.Rating, r.Comment)
		}
		b.WriteString("\n")
	}

	if len(c.FAQs) > 0 {
		b.WriteString("=== CÂU HỎI THƯỜNG GẶP ===\n")
		for _, f := range c.FAQs {
			fmt.Fprintf(&b, "Hỏi: %s\nĐáp: %s\n", f.Question, f.Answer)
		}
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

// truncateRunes caps s at limit runes, appending an ellipsis when cut.
func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return strings.TrimSpace(string(runes[:limit])) + "..."
}

// formatThousands renders 22000000 as "22,000,000".
func formatThousands(n int64) string {
	if n < 0 {
		return "-" + formatThousands(-n)
	}
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}

	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	return strings.Join(parts, ",")
}
