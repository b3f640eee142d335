// Package notify renders per-group outage digests and fans them out through
// the transport.
package notify

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"

	"github.com/couchcryptid/outage-alert-service/internal/domain"
)

// DefaultMessageLimit keeps digests below the Telegram 4096 character cap.
const DefaultMessageLimit = 3500

// maxFieldRunes is the default cap on each rendered field.
const maxFieldRunes = 600

const header = "<b>⚠️ Utility outages detected:</b>\n\n"

// Message is the digest for one group.
type Message struct {
	GroupID string
	Text    string
	// Included lists the outages rendered in Text, in order.
	Included []int64
	// Omitted counts outages summarised by the overflow line.
	Omitted int
}

// Formatter renders outages as Telegram HTML.
type Formatter struct {
	limit int
}

// NewFormatter creates a Formatter with the given message budget in runes.
// A non-positive limit selects DefaultMessageLimit.
func NewFormatter(limit int) *Formatter {
	if limit <= 0 {
		limit = DefaultMessageLimit
	}
	return &Formatter{limit: limit}
}

// Format builds the group's digest. Outages are rendered in order until the
// next block would exceed the budget; the rest are counted in a trailing
// "...and N more outages" line whose room is reserved up front. The first
// outage is always rendered so every non-empty digest makes progress; its
// fields are shortened until it fits. An empty outage list yields an empty
// Message.
func (f *Formatter) Format(group domain.Group, outages []domain.Outage) Message {
	msg := Message{GroupID: group.GroupID}
	if len(outages) == 0 {
		return msg
	}

	var b strings.Builder
	b.WriteString(header)
	length := utf8.RuneCountInString(header)

	for i, o := range outages {
		reserve := 0
		if rest := len(outages) - i - 1; rest > 0 {
			reserve = utf8.RuneCountInString(overflowLine(rest))
		}

		var block string
		if i == 0 {
			block = fitBlock(group, o, f.limit-length-reserve)
		} else {
			block = formatBlock(group, o, maxFieldRunes)
		}
		blockLen := utf8.RuneCountInString(block)
		if i > 0 && length+blockLen+reserve > f.limit {
			msg.Omitted = len(outages) - i
			b.WriteString(overflowLine(msg.Omitted))
			break
		}
		b.WriteString(block)
		length += blockLen
		msg.Included = append(msg.Included, o.ID)
	}

	msg.Text = b.String()
	return msg
}

func overflowLine(n int) string {
	return fmt.Sprintf("...and %d more outages\n", n)
}

// fitBlock renders o within budget runes by shrinking the per-field cap. A
// budget smaller than the field labels themselves cannot be met; the block
// is then rendered with one rune per field.
func fitBlock(group domain.Group, o domain.Outage, budget int) string {
	fieldCap := maxFieldRunes
	block := formatBlock(group, o, fieldCap)
	for n := utf8.RuneCountInString(block); n > budget && fieldCap > 1; n = utf8.RuneCountInString(block) {
		next := fieldCap * max(budget, 0) / n
		if next >= fieldCap {
			next = fieldCap - 1
		}
		fieldCap = max(next, 1)
		block = formatBlock(group, o, fieldCap)
	}
	return block
}

func formatBlock(group domain.Group, o domain.Outage, fieldCap int) string {
	var b strings.Builder
	field := func(label, value string) {
		if value == "" {
			return
		}
		fmt.Fprintf(&b, "<b>%s:</b> %s\n", label, html.EscapeString(truncate(value, fieldCap)))
	}

	field("🏢 District", o.District)
	field("💡 Resource", o.Resource)
	field("🏢 Organization", o.Organization)
	field("📞 Phone", o.Phone)
	field("📍 Addresses", displayAddresses(group, o.Addresses))
	field("📝 Reason", o.Reason)
	field("⏰ Time", timeWindow(o))
	b.WriteString("\n")
	return b.String()
}

// displayAddresses shows a filtered group only the address that concerns it.
func displayAddresses(group domain.Group, addresses []domain.AddressBlock) string {
	if group.Unfiltered() {
		return domain.FormatAddresses(addresses)
	}
	if block, ok := domain.FindMatchedAddress(group.Addresses, addresses); ok {
		return domain.FormatAddress(block)
	}
	return ""
}

func timeWindow(o domain.Outage) string {
	switch {
	case o.Cancelled():
		return domain.TimeCancelled
	case o.StartTime != "" && o.EndTime != "":
		return o.StartTime + " - " + o.EndTime
	default:
		return o.StartTime
	}
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n-1]) + "…"
}
