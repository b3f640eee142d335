package domain

import (
	"regexp"
	"slices"
	"strings"
)

var (
	// streetTypeRe strips a trailing street-type word so "Lenina street",
	// "Ленина ул." and "Ленина" compare equal.
	streetTypeRe = regexp.MustCompile(`(?:^|\s+)(?:улица|ул\.?|проспект|пр-т|пр\.|переулок|пер\.?|площадь|пл\.?|проезд|бульвар|б-р|набережная|наб\.?|street|st\.?|avenue|ave\.?|lane|ln\.?|square|sq\.?|passage|boulevard|blvd\.?|embankment|emb\.?)\s*$`)

	// streetTypePrefixRe strips a leading abbreviated or full street type:
	// "ул. Ленина" -> "Ленина".
	streetTypePrefixRe = regexp.MustCompile(`^(?:(?:улица|проспект|переулок|площадь|проезд|бульвар|набережная|пр-т|б-р)\s+|(?:ул|пр|пер|пл|наб)\.\s*)`)

	// trailingHouseRe extracts the house number at the end of a filter:
	// "lenina 10" -> "10", "мира 7а" -> "7а".
	trailingHouseRe = regexp.MustCompile(`(\d+[a-zа-яё]?)$`)

	digitRe = regexp.MustCompile(`\d`)
)

// NormalizeStreet lowercases a street and strips a street-type word from
// either end.
func NormalizeStreet(street string) string {
	street = strings.ToLower(CollapseSpaces(street))
	street = streetTypeRe.ReplaceAllString(street, "")
	return strings.TrimSpace(streetTypePrefixRe.ReplaceAllString(street, ""))
}

// Matches reports whether a subscriber's free-text filter selects an outage
// address. Rules, first success wins:
//  1. the filter equals the street, ignoring case;
//  2. the normalized filter and street contain one another, and either the
//     outage covers the whole street, the filter names no house at all, or
//     the filter's trailing house number is in the outage's house list.
//
// This decides inclusion only; see FindMatchedAddress for display.
func Matches(filter string, address AddressBlock) bool {
	filter = strings.ToLower(CollapseSpaces(filter))
	street := strings.ToLower(CollapseSpaces(address.Street))
	if filter == "" || street == "" {
		return false
	}
	if filter == street {
		return true
	}

	normFilter := NormalizeStreet(filter)
	normStreet := NormalizeStreet(street)
	if normFilter == "" || normStreet == "" {
		return false
	}
	if !strings.Contains(normFilter, normStreet) && !strings.Contains(normStreet, normFilter) {
		return false
	}

	if len(address.Houses) == 0 {
		return true
	}
	if m := trailingHouseRe.FindStringSubmatch(filter); m != nil {
		return slices.ContainsFunc(address.Houses, func(h string) bool {
			return strings.ToLower(strings.TrimSpace(h)) == m[1]
		})
	}
	return !digitRe.MatchString(filter)
}

// MatchesAny reports whether any filter selects any of the addresses.
func MatchesAny(filters []string, addresses []AddressBlock) bool {
	_, ok := firstMatch(filters, addresses)
	return ok
}

// FindMatchedAddress picks the address to show a group: the first outage
// address selected by any filter, falling back to the first address. It
// returns false only when the outage has no addresses. Never use it to
// decide whether the outage belongs to the group.
func FindMatchedAddress(filters []string, addresses []AddressBlock) (AddressBlock, bool) {
	if block, ok := firstMatch(filters, addresses); ok {
		return block, true
	}
	if len(addresses) == 0 {
		return AddressBlock{}, false
	}
	return addresses[0], true
}

// FilterForGroup returns the outages a group should receive, preserving order.
// A group without filters receives everything.
func FilterForGroup(group Group, outages []Outage) []Outage {
	if group.Unfiltered() {
		return outages
	}
	var selected []Outage
	for _, o := range outages {
		if MatchesAny(group.Addresses, o.Addresses) {
			selected = append(selected, o)
		}
	}
	return selected
}

func firstMatch(filters []string, addresses []AddressBlock) (AddressBlock, bool) {
	for _, address := range addresses {
		for _, filter := range filters {
			if Matches(filter, address) {
				return address, true
			}
		}
	}
	return AddressBlock{}, false
}
