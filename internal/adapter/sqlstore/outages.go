package sqlstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/couchcryptid/outage-alert-service/internal/domain"
)

const outageColumns = `id, content_hash, district, resource, organization, phone, addresses,
	reason, start_time, end_time, notified, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

// SaveOutages inserts outages with unknown hashes inside one transaction.
// A known hash bumps the row's seen counter and returns the stored row.
func (s *Store) SaveOutages(ctx context.Context, outages []domain.Outage) ([]domain.SaveResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, persistErr("begin save outages", err)
	}
	defer func() { _ = tx.Rollback() }()

	insert := s.rebind(`
		INSERT INTO outages (content_hash, district, resource, organization, phone, addresses,
			reason, start_time, end_time, notified, seen_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?)
		ON CONFLICT (content_hash) DO NOTHING
		RETURNING id`)
	bump := s.rebind(`UPDATE outages SET seen_count = seen_count + 1 WHERE content_hash = ?`)
	selectByHash := s.rebind(`SELECT ` + outageColumns + ` FROM outages WHERE content_hash = ?`)

	results := make([]domain.SaveResult, 0, len(outages))
	for _, o := range outages {
		if o.ContentHash == "" {
			return nil, fmt.Errorf("%w: outage without content hash", domain.ErrPersistence)
		}
		addresses, err := encodeAddresses(o.Addresses)
		if err != nil {
			return nil, persistErr("encode addresses", err)
		}

		now := s.clock.Now().UTC()
		var id int64
		err = tx.QueryRowContext(ctx, insert,
			o.ContentHash, o.District, o.Resource, o.Organization, o.Phone, addresses,
			o.Reason, o.StartTime, o.EndTime, false, now,
		).Scan(&id)
		switch {
		case err == nil:
			o.ID = id
			o.Notified = false
			o.CreatedAt = now
			results = append(results, domain.SaveResult{Outage: o, Created: true})
			continue
		case !isNoRows(err):
			return nil, persistErr("insert outage", err)
		}

		if _, err := tx.ExecContext(ctx, bump, o.ContentHash); err != nil {
			return nil, persistErr("bump outage seen count", err)
		}
		existing, err := scanOutage(tx.QueryRowContext(ctx, selectByHash, o.ContentHash))
		if err != nil {
			return nil, persistErr("select existing outage", err)
		}
		results = append(results, domain.SaveResult{Outage: existing})
	}

	if err := tx.Commit(); err != nil {
		return nil, persistErr("commit save outages", err)
	}
	return results, nil
}

// UnnotifiedOutages returns pending outages in insertion order.
func (s *Store) UnnotifiedOutages(ctx context.Context) ([]domain.Outage, error) {
	rows, err := s.db.QueryContext(ctx,
		s.rebind(`SELECT `+outageColumns+` FROM outages WHERE notified = ? ORDER BY id`), false)
	if err != nil {
		return nil, persistErr("query unnotified outages", err)
	}
	defer rows.Close()

	var out []domain.Outage
	for rows.Next() {
		o, err := scanOutage(rows)
		if err != nil {
			return nil, persistErr("scan outage", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr("iterate outages", err)
	}
	return out, nil
}

// MarkNotified flags the given outages as notified.
func (s *Store) MarkNotified(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	args := make([]any, 0, len(ids)+1)
	args = append(args, true)
	for _, id := range ids {
		args = append(args, id)
	}
	query := s.rebind(`UPDATE outages SET notified = ? WHERE id IN (` + placeholders(len(ids)) + `)`)
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return persistErr("mark notified", err)
	}
	return nil
}

func scanOutage(row rowScanner) (domain.Outage, error) {
	var (
		o         domain.Outage
		addresses string
		createdAt time.Time
	)
	if err := row.Scan(&o.ID, &o.ContentHash, &o.District, &o.Resource, &o.Organization, &o.Phone,
		&addresses, &o.Reason, &o.StartTime, &o.EndTime, &o.Notified, &createdAt); err != nil {
		return domain.Outage{}, err
	}
	blocks, err := decodeAddresses(addresses)
	if err != nil {
		return domain.Outage{}, fmt.Errorf("decode addresses of outage %d: %w", o.ID, err)
	}
	o.Addresses = blocks
	o.CreatedAt = createdAt.UTC()
	return o, nil
}

func encodeAddresses(blocks []domain.AddressBlock) (string, error) {
	normalized := make([]domain.AddressBlock, len(blocks))
	for i, b := range blocks {
		if b.Houses == nil {
			b.Houses = []string{}
		}
		normalized[i] = b
	}
	return encodeJSON(normalized)
}

func decodeAddresses(raw string) ([]domain.AddressBlock, error) {
	var blocks []domain.AddressBlock
	if raw == "" {
		return blocks, nil
	}
	if err := json.Unmarshal([]byte(raw), &blocks); err != nil {
		return nil, err
	}
	for i := range blocks {
		if blocks[i].Houses == nil {
			blocks[i].Houses = []string{}
		}
	}
	return blocks, nil
}
