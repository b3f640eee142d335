package sqlstore

import (
	"context"
	"time"

	"github.com/couchcryptid/outage-alert-service/internal/domain"
)

const groupColumns = `group_id, name, addresses, is_active, created_at`

// ActiveGroups returns active groups ordered by id.
func (s *Store) ActiveGroups(ctx context.Context) ([]domain.Group, error) {
	return s.queryGroups(ctx,
		`SELECT `+groupColumns+` FROM subscriber_groups WHERE is_active = ? ORDER BY group_id`, true)
}

// GroupsByIDs returns the active groups among ids, in the order given.
func (s *Store) GroupsByIDs(ctx context.Context, ids []string) ([]domain.Group, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := make([]any, 0, len(ids)+1)
	args = append(args, true)
	for _, id := range ids {
		args = append(args, id)
	}
	found, err := s.queryGroups(ctx,
		`SELECT `+groupColumns+` FROM subscriber_groups WHERE is_active = ? AND group_id IN (`+placeholders(len(ids))+`)`,
		args...)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]domain.Group, len(found))
	for _, g := range found {
		byID[g.GroupID] = g
	}
	var out []domain.Group
	for _, id := range ids {
		if g, ok := byID[id]; ok {
			out = append(out, g)
			delete(byID, id)
		}
	}
	return out, nil
}

// UpsertGroup creates the group or replaces its name, filters and state.
func (s *Store) UpsertGroup(ctx context.Context, g domain.Group) error {
	if g.GroupID == "" {
		return persistErr("upsert group", errEmptyGroupID)
	}
	addresses := g.Addresses
	if addresses == nil {
		addresses = []string{}
	}
	encoded, err := encodeJSON(addresses)
	if err != nil {
		return persistErr("encode group addresses", err)
	}
	_, err = s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO subscriber_groups (group_id, name, addresses, is_active, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (group_id) DO UPDATE SET
			name = excluded.name,
			addresses = excluded.addresses,
			is_active = excluded.is_active`),
		g.GroupID, g.Name, encoded, g.IsActive, s.clock.Now().UTC())
	if err != nil {
		return persistErr("upsert group", err)
	}
	return nil
}

func (s *Store) queryGroups(ctx context.Context, query string, args ...any) ([]domain.Group, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, persistErr("query groups", err)
	}
	defer rows.Close()

	var out []domain.Group
	for rows.Next() {
		var (
			g         domain.Group
			addresses string
			createdAt time.Time
		)
		if err := rows.Scan(&g.GroupID, &g.Name, &addresses, &g.IsActive, &createdAt); err != nil {
			return nil, persistErr("scan group", err)
		}
		if g.Addresses, err = decodeStrings(addresses); err != nil {
			return nil, persistErr("decode group addresses", err)
		}
		if len(g.Addresses) == 0 {
			g.Addresses = nil
		}
		g.CreatedAt = createdAt.UTC()
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr("iterate groups", err)
	}
	return out, nil
}
