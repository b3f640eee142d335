package domain

import (
	"regexp"
	"strings"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)

	// houseSplitRe separates house identifiers: "10, 12;14" -> 10 | 12 | 14.
	houseSplitRe = regexp.MustCompile(`[,;]\s*`)

	// addressBlockSplitRe separates street blocks in an address cell.
	addressBlockSplitRe = regexp.MustCompile(`;\s*`)
)

// CollapseSpaces replaces whitespace runs with a single space and trims the ends.
func CollapseSpaces(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// ParseAddresses splits an address cell on semicolons and parses each block.
// Blocks without a street are dropped.
func ParseAddresses(text string) []AddressBlock {
	var blocks []AddressBlock
	for _, fragment := range addressBlockSplitRe.Split(CollapseSpaces(text), -1) {
		block := ParseAddressBlock(fragment)
		if block.Street == "" {
			continue
		}
		blocks = append(blocks, block)
	}
	return blocks
}

// ParseAddressBlock parses one address fragment into a street and its houses.
//
//	"Lenina: 10, 12"   -> {Lenina [10 12]}
//	"ул. Мира 5, 7а"   -> {ул. Мира [5 7а]}
//	"Pushkina"         -> {Pushkina []}
func ParseAddressBlock(fragment string) AddressBlock {
	fragment = CollapseSpaces(fragment)
	if fragment == "" {
		return AddressBlock{Houses: []string{}}
	}

	if street, houses, ok := strings.Cut(fragment, ":"); ok {
		return AddressBlock{
			Street: CollapseSpaces(street),
			Houses: splitHouses(houses),
		}
	}

	tokens := strings.Fields(fragment)
	boundary := len(tokens)
	for i, token := range tokens {
		if startsWithDigit(strings.TrimRight(token, ",;")) {
			boundary = i
			break
		}
	}

	return AddressBlock{
		Street: strings.Join(tokens[:boundary], " "),
		Houses: splitHouses(strings.Join(tokens[boundary:], " ")),
	}
}

// FormatAddress renders a block as "street (h1, h2)" or just the street.
func FormatAddress(block AddressBlock) string {
	if len(block.Houses) == 0 {
		return block.Street
	}
	return block.Street + " (" + strings.Join(block.Houses, ", ") + ")"
}

// FormatAddresses renders every block, separated by "; ".
func FormatAddresses(blocks []AddressBlock) string {
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		parts = append(parts, FormatAddress(b))
	}
	return strings.Join(parts, "; ")
}

func splitHouses(text string) []string {
	houses := []string{}
	for _, h := range houseSplitRe.Split(text, -1) {
		h = strings.TrimRight(strings.TrimSpace(h), ",;.")
		if h != "" {
			houses = append(houses, h)
		}
	}
	return houses
}

func startsWithDigit(s string) bool {
	return s != "" && s[0] >= '0' && s[0] <= '9'
}
