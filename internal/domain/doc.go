// Package domain models utility outage reports and subscriber address filters.
//
// # Data Source
//
// The city dispatch service publishes planned and emergency outages as a single
// HTML page encoded in windows-1251. The page holds one table; its rows are
// either district headings or outage rows, distinguished only by background
// colour (see package parser).
//
// # Address Conventions
//
// An address cell lists street blocks separated by semicolons. Each block is
// either "street: house, house" or a bare "street house, house" where the
// first token starting with a digit opens the house list:
//
//	"ул. Ленина: 10, 12; Мира 5, 7а; пер. Тихий"
//	-> {ул. Ленина [10 12]} {Мира [5 7а]} {пер. Тихий []}
//
// A block without houses covers the whole street.
//
// Time cells hold the start on the first line and the end on the second.
// A lone "отмена" (cancel) line marks the outage as called off; both ends
// become [TimeCancelled].
//
// # Address Matching
//
// Subscriber groups list free-text filters such as "Ленина 10" or "Pushkina".
// [Matches] is a recall-oriented heuristic, not an address parser: it
// compares normalized street names by containment and only then looks at a
// trailing house number. [FindMatchedAddress] only picks what to display.
//
// # Identity
//
// Outages carry no identifier in the source. The dedup package derives a
// content hash from the semantic fields; stores treat it as a unique key.
package domain
