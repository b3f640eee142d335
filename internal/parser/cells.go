package parser

import (
	"errors"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/couchcryptid/outage-alert-service/internal/domain"
)

var (
	// phoneRe matches a phone-like run of at least nine characters, optionally
	// introduced by a "phone" abbreviation.
	phoneRe = regexp.MustCompile(`(?i)(?:^|\s)(?:(?:т|тел|tel)\.\s*)?([+(]?\d[\d\s\-().]{8,})`)

	// inlineReasonRe finds a "reason:" label inside an address line.
	inlineReasonRe = regexp.MustCompile(`(?i)(?:^|;)\s*(?:reason|причина)\s*:\s*`)
)

// reasonKeywords open the reason part of the address cell when a line
// starts with one of them.
var reasonKeywords = []string{"аварийное", "плановое", "emergency", "planned", "unplanned"}

// reasonLabels open the reason part and are dropped from the text.
var reasonLabels = []string{"reason:", "причина:"}

var cancelKeywords = []string{"отмена", "cancel"}

var errEmptyRow = errors.New("data row has neither resource nor addresses")

type resourceInfo struct {
	resource     string
	organization string
	phone        string
}

// parseResourceCell splits the first cell into resource, organization and
// phone. The first text run is the resource; the phone is cut out of the rest.
func parseResourceCell(cell *html.Node) resourceInfo {
	parts := strippedStrings(cell)
	if len(parts) == 0 {
		return resourceInfo{}
	}

	info := resourceInfo{resource: domain.CollapseSpaces(parts[0])}
	rest := domain.CollapseSpaces(strings.Join(parts[1:], " "))
	info.organization = rest

	if loc := phoneRe.FindStringSubmatchIndex(rest); loc != nil {
		info.phone = domain.CollapseSpaces(rest[loc[2]:loc[3]])
		info.organization = domain.CollapseSpaces(rest[:loc[0]] + " " + rest[loc[1]:])
	}
	return info
}

// parseAddressCell splits the second cell into address blocks and the reason.
// Lines before the first reason line are addresses, the rest is the reason.
func parseAddressCell(cell *html.Node) ([]domain.AddressBlock, string) {
	var addressLines, reasonLines []string
	inReason := false

	for _, line := range strippedStrings(cell) {
		if !inReason {
			lower := strings.ToLower(line)
			if label, ok := hasAnyPrefix(lower, reasonLabels); ok {
				inReason = true
				line = strings.TrimSpace(line[len(label):])
			} else if _, ok := hasAnyPrefix(lower, reasonKeywords); ok {
				inReason = true
			}
		}
		if line == "" {
			continue
		}
		if inReason {
			reasonLines = append(reasonLines, line)
		} else {
			addressLines = append(addressLines, line)
		}
	}

	addressText := domain.CollapseSpaces(strings.Join(addressLines, " "))
	reason := domain.CollapseSpaces(strings.Join(reasonLines, " "))

	if loc := inlineReasonRe.FindStringIndex(addressText); loc != nil {
		inline := addressText[loc[1]:]
		addressText = addressText[:loc[0]]
		reason = domain.CollapseSpaces(inline + " " + reason)
	}

	return domain.ParseAddresses(addressText), reason
}

// parseTimeCell returns the start and end of the outage window.
func parseTimeCell(cell *html.Node) (string, string) {
	lines := strippedStrings(cell)
	switch {
	case len(lines) == 0:
		return "", ""
	case len(lines) == 1 && containsAny(strings.ToLower(lines[0]), cancelKeywords):
		return domain.TimeCancelled, domain.TimeCancelled
	case len(lines) == 1:
		return domain.CollapseSpaces(lines[0]), ""
	default:
		return domain.CollapseSpaces(lines[0]), domain.CollapseSpaces(lines[1])
	}
}

// hasAnyPrefix returns the first of prefixes that s starts with.
func hasAnyPrefix(s string, prefixes []string) (string, bool) {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return p, true
		}
	}
	return "", false
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
