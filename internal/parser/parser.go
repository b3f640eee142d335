// Package parser turns the outage source page into outage records.
//
// The page is a single HTML table. Rows whose first cell carries a district
// colour set the running district; rows coloured as data carry one outage in
// three cells: resource/organization/phone, addresses/reason, time window.
// Everything else (hidden rows, banners, unknown colours) is skipped.
package parser

import (
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/net/html"

	"github.com/couchcryptid/outage-alert-service/internal/domain"
)

var (
	districtColors = map[string]bool{"#0069d2": true, "#0058b3": true}
	dataColors     = map[string]bool{"": true, "#ddebf7": true, "#ffffff": true}
)

// districtMarkers must appear in a district heading's text.
var districtMarkers = []string{"район", "district"}

// bannerMarkers identify informational rows that span the table.
var bannerMarkers = []string{
	"Запланированные отключения",
	"Плановые отключения на",
	"Scheduled outages",
}

const minCells = 3

// Parser extracts outages from the source page.
type Parser struct {
	logger     *slog.Logger
	onRowError func(*domain.RowParseError)
}

// Option configures a Parser.
type Option func(*Parser)

// WithRowErrorHook registers a callback for every skipped malformed row.
func WithRowErrorHook(fn func(*domain.RowParseError)) Option {
	return func(p *Parser) { p.onRowError = fn }
}

// New creates a Parser.
func New(logger *slog.Logger, opts ...Option) *Parser {
	p := &Parser{logger: logger}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse returns the outages of the first table in doc, in table order.
// It fails with domain.ErrMalformedSource when doc has no table and with
// domain.ErrNoData when the table yields no outages.
func (p *Parser) Parse(doc string) ([]domain.Outage, error) {
	root, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrMalformedSource, err)
	}

	table := findFirst(root, "table")
	if table == nil {
		return nil, domain.ErrMalformedSource
	}

	rows := findAll(table, "tr")
	p.logger.Debug("outage table found", "rows", len(rows))

	var (
		outages  []domain.Outage
		district string
	)
	for i, row := range rows {
		if hidden(row) {
			continue
		}
		cells := findAll(row, "td")
		if len(cells) == 0 {
			// Header rows use <th> only.
			continue
		}
		if len(cells) < minCells {
			p.rowError(i, fmt.Errorf("expected %d cells, got %d", minCells, len(cells)))
			continue
		}

		firstColor := backgroundColor(cells[0])
		if districtColors[firstColor] {
			text := domain.CollapseSpaces(strings.Join(strippedStrings(cells[1]), " "))
			if containsAny(strings.ToLower(text), districtMarkers) {
				district = text
				p.logger.Debug("district heading", "row", i, "district", district)
			}
			continue
		}

		if isBanner(cells[1]) {
			continue
		}
		if !dataColors[firstColor] || !dataColors[backgroundColor(cells[1])] {
			continue
		}

		outage, err := parseDataRow(district, cells)
		if err != nil {
			p.rowError(i, err)
			continue
		}
		outages = append(outages, outage)
	}

	if len(outages) == 0 {
		return nil, fmt.Errorf("%w: %d rows scanned", domain.ErrNoData, len(rows))
	}

	p.logger.Info("outage table parsed", "rows", len(rows), "outages", len(outages))
	return outages, nil
}

// Parse parses doc with a Parser that logs to logger.
func Parse(doc string, logger *slog.Logger) ([]domain.Outage, error) {
	return New(logger).Parse(doc)
}

func (p *Parser) rowError(row int, err error) {
	rowErr := &domain.RowParseError{Row: row, Err: err}
	p.logger.Warn("skipping malformed row", "row", row, "error", err)
	if p.onRowError != nil {
		p.onRowError(rowErr)
	}
}

func parseDataRow(district string, cells []*html.Node) (domain.Outage, error) {
	info := parseResourceCell(cells[0])
	addresses, reason := parseAddressCell(cells[1])
	if info.resource == "" && len(addresses) == 0 {
		return domain.Outage{}, errEmptyRow
	}
	start, end := parseTimeCell(cells[2])

	return domain.Outage{
		District:     district,
		Resource:     info.resource,
		Organization: info.organization,
		Phone:        info.phone,
		Addresses:    addresses,
		Reason:       reason,
		StartTime:    start,
		EndTime:      end,
	}, nil
}

func isBanner(cell *html.Node) bool {
	text := strings.Join(strippedStrings(cell), " ")
	for _, marker := range bannerMarkers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}
