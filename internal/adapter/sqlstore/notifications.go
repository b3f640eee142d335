package sqlstore

import (
	"context"
	"math"
	"time"

	"github.com/couchcryptid/outage-alert-service/internal/domain"
)

const defaultRecentLimit = 100

// RecordNotification appends a history entry. A zero SentAt is set to now.
func (s *Store) RecordNotification(ctx context.Context, n domain.Notification) (domain.Notification, error) {
	if n.SentAt.IsZero() {
		n.SentAt = s.clock.Now()
	}
	n.SentAt = n.SentAt.UTC()

	err := s.db.QueryRowContext(ctx, s.rebind(`
		INSERT INTO notifications (event_type, event_id, group_id, message, sent_at, is_duplicate)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id`),
		n.EventType, n.EventID, n.GroupID, n.Message, n.SentAt, n.IsDuplicate,
	).Scan(&n.ID)
	if err != nil {
		return domain.Notification{}, persistErr("insert notification", err)
	}
	return n, nil
}

// RecentNotifications returns up to limit entries, newest first.
func (s *Store) RecentNotifications(ctx context.Context, limit int, groupID string) ([]domain.Notification, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	query := `SELECT id, event_type, event_id, group_id, message, sent_at, is_duplicate FROM notifications`
	var args []any
	if groupID != "" {
		query += ` WHERE group_id = ?`
		args = append(args, groupID)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, persistErr("query notifications", err)
	}
	defer rows.Close()

	var out []domain.Notification
	for rows.Next() {
		var (
			n      domain.Notification
			sentAt time.Time
		)
		if err := rows.Scan(&n.ID, &n.EventType, &n.EventID, &n.GroupID, &n.Message, &sentAt, &n.IsDuplicate); err != nil {
			return nil, persistErr("scan notification", err)
		}
		n.SentAt = sentAt.UTC()
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr("iterate notifications", err)
	}
	return out, nil
}

// Stats returns system counts and how many re-ingested outages were absorbed
// by the content hash.
func (s *Store) Stats(ctx context.Context) (domain.Stats, error) {
	var st domain.Stats
	err := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT
			COUNT(*),
			COALESCE(SUM(seen_count), 0),
			COALESCE(SUM(CASE WHEN notified = ? THEN 0 ELSE 1 END), 0),
			COALESCE(SUM(seen_count - 1), 0)
		FROM outages`), true,
	).Scan(&st.Outages, &st.Ingested, &st.UnnotifiedOutages, &st.DuplicatesPrevented)
	if err != nil {
		return domain.Stats{}, persistErr("outage stats", err)
	}

	if err := s.db.QueryRowContext(ctx,
		s.rebind(`SELECT COUNT(*) FROM subscriber_groups WHERE is_active = ?`), true,
	).Scan(&st.ActiveGroups); err != nil {
		return domain.Stats{}, persistErr("group stats", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM notifications`).Scan(&st.Notifications); err != nil {
		return domain.Stats{}, persistErr("notification stats", err)
	}

	if st.Ingested > 0 {
		st.DuplicatePercentage = math.Round(float64(st.DuplicatesPrevented)/float64(st.Ingested)*10000) / 100
	}
	return st, nil
}
