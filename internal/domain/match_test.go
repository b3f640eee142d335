package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const (
	testStreetLenina   = "Lenina"
	testStreetPushkina = "Pushkina"
)

func TestMatches(t *testing.T) {
	lenina := AddressBlock{Street: testStreetLenina, Houses: []string{"10", "12"}}

	cases := []struct {
		name    string
		filter  string
		address AddressBlock
		want    bool
	}{
		{"house in list", "Lenina 10", lenina, true},
		{"house not in list", "Lenina 10", AddressBlock{Street: testStreetLenina, Houses: []string{"14"}}, false},
		{"exact street ignoring case", "lenina", lenina, true},
		{"whole street filter", testStreetPushkina, AddressBlock{Street: testStreetPushkina, Houses: []string{"1", "3"}}, true},
		{"whole street filter with type suffix", "Pushkina street", AddressBlock{Street: testStreetPushkina, Houses: []string{"1"}}, true},
		{"whole street outage matches any house", "Lenina 99", AddressBlock{Street: "Lenina st.", Houses: []string{}}, true},
		{"russian suffix normalized", "Ленина ул.", AddressBlock{Street: "Ленина", Houses: []string{"5"}}, true},
		{"russian prefix normalized", "Ленина 5", AddressBlock{Street: "ул. Ленина", Houses: []string{"5", "7"}}, true},
		{"house with letter", "Мира 7а", AddressBlock{Street: "Мира", Houses: []string{"5", "7А"}}, true},
		{"house letter mismatch", "Мира 7б", AddressBlock{Street: "Мира", Houses: []string{"7а"}}, false},
		{"digits not at end and no trailing house", "Lenina 10 corp", lenina, false},
		{"different street", "Gorkogo 10", lenina, false},
		{"empty filter", "", lenina, false},
		{"street type only", "ул.", AddressBlock{Street: "ул. Ленина", Houses: []string{"1"}}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Matches(tc.filter, tc.address))
		})
	}
}

func TestNormalizeStreet(t *testing.T) {
	assert.Equal(t, "lenina", NormalizeStreet("Lenina Street"))
	assert.Equal(t, "ленина", NormalizeStreet("ул. Ленина"))
	assert.Equal(t, "мира", NormalizeStreet("Мира пр-т"))
	assert.Equal(t, "караул", NormalizeStreet("Караул"))
	assert.Equal(t, "east", NormalizeStreet("East"))
}

func TestFindMatchedAddress(t *testing.T) {
	addresses := []AddressBlock{
		{Street: "Gorkogo", Houses: []string{"1"}},
		{Street: testStreetLenina, Houses: []string{"10"}},
	}

	t.Run("returns matching block", func(t *testing.T) {
		got, ok := FindMatchedAddress([]string{"Lenina 10"}, addresses)
		assert.True(t, ok)
		assert.Equal(t, testStreetLenina, got.Street)
	})

	t.Run("falls back to first address for display", func(t *testing.T) {
		got, ok := FindMatchedAddress([]string{"Pushkina"}, addresses)
		assert.True(t, ok)
		assert.Equal(t, "Gorkogo", got.Street)
		assert.False(t, MatchesAny([]string{"Pushkina"}, addresses), "fallback must not imply inclusion")
	})

	t.Run("no addresses", func(t *testing.T) {
		_, ok := FindMatchedAddress([]string{"Lenina"}, nil)
		assert.False(t, ok)
	})
}

func TestFilterForGroup(t *testing.T) {
	outages := []Outage{
		{ID: 1, Addresses: []AddressBlock{{Street: testStreetLenina, Houses: []string{"10", "12"}}}},
		{ID: 2, Addresses: []AddressBlock{{Street: testStreetLenina, Houses: []string{"14"}}}},
		{ID: 3, Addresses: []AddressBlock{{Street: testStreetPushkina, Houses: []string{"2"}}}},
		{ID: 4},
	}

	t.Run("unfiltered group receives everything", func(t *testing.T) {
		got := FilterForGroup(Group{GroupID: "g1"}, outages)
		assert.Equal(t, outages, got)
	})

	t.Run("filtered group keeps order", func(t *testing.T) {
		got := FilterForGroup(Group{GroupID: "g2", Addresses: []string{testStreetPushkina, "Lenina 10"}}, outages)
		ids := make([]int64, 0, len(got))
		for _, o := range got {
			ids = append(ids, o.ID)
		}
		assert.Equal(t, []int64{1, 3}, ids)
	})

	t.Run("no matches", func(t *testing.T) {
		assert.Empty(t, FilterForGroup(Group{GroupID: "g3", Addresses: []string{"Gorkogo"}}, outages))
	})
}
