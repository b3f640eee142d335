// Package dedup derives content hashes for outages and splits parsed outages
// into first-seen and already-known ones.
package dedup

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"slices"
	"strings"

	"github.com/couchcryptid/outage-alert-service/internal/domain"
)

// hashInput is the canonical form of an outage. Fields are declared in
// alphabetical order so the JSON encoding is stable.
type hashInput struct {
	Addresses    []hashAddress `json:"addresses"`
	District     string        `json:"district"`
	End          string        `json:"end"`
	Organization string        `json:"organization"`
	Phone        string        `json:"phone"`
	Reason       string        `json:"reason"`
	Resource     string        `json:"resource"`
	Start        string        `json:"start"`
}

type hashAddress struct {
	Houses []string `json:"houses"`
	Street string   `json:"street"`
}

// ComputeHash returns the hex SHA-256 of the outage's semantic fields.
// Whitespace is collapsed and address blocks are sorted by street, so the
// same outage reported with reordered blocks hashes identically. Store
// assigned fields (ID, Notified, CreatedAt) and any existing ContentHash are
// ignored.
func ComputeHash(o domain.Outage) string {
	in := hashInput{
		Addresses:    canonicalAddresses(o.Addresses),
		District:     domain.CollapseSpaces(o.District),
		End:          domain.CollapseSpaces(o.EndTime),
		Organization: domain.CollapseSpaces(o.Organization),
		Phone:        domain.CollapseSpaces(o.Phone),
		Reason:       domain.CollapseSpaces(o.Reason),
		Resource:     domain.CollapseSpaces(o.Resource),
		Start:        domain.CollapseSpaces(o.StartTime),
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// hashInput holds only strings and slices of strings; Encode cannot fail.
	_ = enc.Encode(in)

	sum := sha256.Sum256(buf.Bytes())
	return hex.EncodeToString(sum[:])
}

// WithHash returns a copy of o with ContentHash set.
func WithHash(o domain.Outage) domain.Outage {
	o.ContentHash = ComputeHash(o)
	return o
}

func canonicalAddresses(blocks []domain.AddressBlock) []hashAddress {
	out := make([]hashAddress, 0, len(blocks))
	for _, b := range blocks {
		houses := make([]string, 0, len(b.Houses))
		for _, h := range b.Houses {
			houses = append(houses, domain.CollapseSpaces(h))
		}
		out = append(out, hashAddress{Street: domain.CollapseSpaces(b.Street), Houses: houses})
	}
	// Ties on street are broken by the house list so block order never leaks
	// into the hash.
	slices.SortStableFunc(out, func(a, b hashAddress) int {
		if c := strings.Compare(a.Street, b.Street); c != 0 {
			return c
		}
		return strings.Compare(strings.Join(a.Houses, "\x00"), strings.Join(b.Houses, "\x00"))
	})
	return out
}
