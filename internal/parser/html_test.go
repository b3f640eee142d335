package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func TestNormalizeColor(t *testing.T) {
	cases := map[string]string{
		"#0069D2":          "#0069d2",
		" #ddebf7 ":        "#ddebf7",
		"rgb(0, 105, 210)": "#0069d2",
		"rgb(255,255,255)": "#ffffff",
		"rgb(300, 0, 0)":   "",
		"red":              "",
		"":                 "",
		"#fff":             "",
	}
	for in, want := range cases {
		assert.Equal(t, want, normalizeColor(in), "normalizeColor(%q)", in)
	}
}

func firstCell(t *testing.T, markup string) *html.Node {
	t.Helper()
	root, err := html.Parse(strings.NewReader("<table><tr>" + markup + "</tr></table>"))
	require.NoError(t, err)
	cell := findFirst(root, "td")
	require.NotNil(t, cell)
	return cell
}

func TestBackgroundColor(t *testing.T) {
	cases := []struct {
		markup string
		want   string
	}{
		{`<td style="background:#0069D2">x</td>`, "#0069d2"},
		{`<td style="color:#000; background-color: rgb(0, 88, 179)">x</td>`, "#0058b3"},
		{`<td style="mso-pattern:#DDEBF7 none">x</td>`, "#ddebf7"},
		{`<td bgcolor="#FFFFFF">x</td>`, "#ffffff"},
		{`<td style="background:#0069d2" bgcolor="#ffffff">x</td>`, "#0069d2"},
		{`<td>x</td>`, ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, backgroundColor(firstCell(t, tc.markup)), tc.markup)
	}
}

func TestStrippedStrings(t *testing.T) {
	cell := firstCell(t, "<td> Lenina: 10 <br/>\n <b>planned</b> <!-- note --> </td>")
	assert.Equal(t, []string{"Lenina: 10", "planned"}, strippedStrings(cell))
}

func TestParseResourceCell(t *testing.T) {
	cases := []struct {
		markup string
		want   resourceInfo
	}{
		{
			markup: "<td>Вода<br>МУП Водоканал тел. 8-800-100-20-30 круглосуточно</td>",
			want:   resourceInfo{resource: "Вода", organization: "МУП Водоканал круглосуточно", phone: "8-800-100-20-30"},
		},
		{
			markup: "<td>Gas<br>GasCo tel. +7 (3532) 11-22-33</td>",
			want:   resourceInfo{resource: "Gas", organization: "GasCo", phone: "+7 (3532) 11-22-33"},
		},
		{
			markup: "<td>Heat<br>ЖЭУ-12</td>",
			want:   resourceInfo{resource: "Heat", organization: "ЖЭУ-12"},
		},
		{
			markup: "<td></td>",
			want:   resourceInfo{},
		},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, parseResourceCell(firstCell(t, tc.markup)), tc.markup)
	}
}
