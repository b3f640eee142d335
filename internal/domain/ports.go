package domain

//go:generate mockgen -destination=mocks/mocks.go -package=mocks github.com/couchcryptid/outage-alert-service/internal/domain Fetcher,Transport,OutagePublisher

import (
	"context"
	"time"
)

// Fetcher retrieves the raw outage report. Implementations must bound the
// call with a timeout and wrap failures with ErrFetch.
type Fetcher interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// Transport delivers one message to one group.
type Transport interface {
	SendMessage(ctx context.Context, groupID, text string) error
}

// OutageStore persists outages keyed by content hash.
type OutageStore interface {
	// SaveOutages inserts outages whose hash is unknown and returns the stored
	// row for every input, in input order.
	SaveOutages(ctx context.Context, outages []Outage) ([]SaveResult, error)
	// UnnotifiedOutages returns outages with Notified=false in insertion order.
	UnnotifiedOutages(ctx context.Context) ([]Outage, error)
	MarkNotified(ctx context.Context, ids []int64) error
}

// GroupStore reads subscriber groups.
type GroupStore interface {
	ActiveGroups(ctx context.Context) ([]Group, error)
	// GroupsByIDs returns the active groups among ids.
	GroupsByIDs(ctx context.Context, ids []string) ([]Group, error)
}

// NotificationStore appends notification history.
type NotificationStore interface {
	RecordNotification(ctx context.Context, n Notification) (Notification, error)
}

// TaskStore reads tasks and records their last run.
type TaskStore interface {
	TaskByID(ctx context.Context, id int64) (Task, error)
	UpdateTaskLastRun(ctx context.Context, id int64, at time.Time) error
}

// Store is everything the task engine needs from persistence.
type Store interface {
	OutageStore
	GroupStore
	NotificationStore
	TaskStore
}

// OutagePublisher receives first-seen outages. It is optional.
type OutagePublisher interface {
	PublishOutages(ctx context.Context, outages []Outage) error
}

// TaskLister lists tasks for the scheduler.
type TaskLister interface {
	ActiveTasks(ctx context.Context) ([]Task, error)
}

// SeedWriter creates or replaces groups and tasks declared in the seed file.
type SeedWriter interface {
	UpsertGroup(ctx context.Context, g Group) error
	UpsertTask(ctx context.Context, t Task) error
}

// StatsReader serves operator views.
type StatsReader interface {
	Stats(ctx context.Context) (Stats, error)
	// RecentNotifications returns the newest entries first. An empty groupID
	// means every group.
	RecentNotifications(ctx context.Context, limit int, groupID string) ([]Notification, error)
}

// Backend is a complete persistence implementation.
type Backend interface {
	Store
	TaskLister
	SeedWriter
	StatsReader
	Ping(ctx context.Context) error
	Close() error
}
