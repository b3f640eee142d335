package domain

import "time"

// TimeCancelled replaces both ends of the time window when the source marks
// an outage as called off.
const TimeCancelled = "cancelled"

// EventTypeOutage is the event type written to notification history for
// outage digests.
const EventTypeOutage = "outage"

// AddressBlock is one street with the affected houses. An empty house list
// means the whole street is affected.
type AddressBlock struct {
	Street string   `json:"street"`
	Houses []string `json:"houses"`
}

// Outage is one row of the source table after parsing. ID, Notified and
// CreatedAt are assigned by the store; ContentHash by the dedup package.
type Outage struct {
	ID           int64          `json:"id,omitempty"`
	District     string         `json:"district"`
	Resource     string         `json:"resource"`
	Organization string         `json:"organization"`
	Phone        string         `json:"phone"`
	Addresses    []AddressBlock `json:"addresses"`
	Reason       string         `json:"reason"`
	StartTime    string         `json:"start"`
	EndTime      string         `json:"end"`
	ContentHash  string         `json:"content_hash,omitempty"`
	Notified     bool           `json:"notified"`
	CreatedAt    time.Time      `json:"created_at,omitzero"`
}

// Cancelled reports whether the source marked the outage as called off.
func (o Outage) Cancelled() bool {
	return o.StartTime == TimeCancelled && o.EndTime == TimeCancelled
}

// SaveResult pairs a stored outage with whether this call created it.
type SaveResult struct {
	Outage  Outage
	Created bool
}

// Group is a subscriber group. GroupID is the transport-level chat identifier.
// An empty Addresses list subscribes the group to every outage.
type Group struct {
	GroupID   string    `json:"group_id"`
	Name      string    `json:"name"`
	Addresses []string  `json:"addresses"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}

// Unfiltered reports whether the group receives every outage.
func (g Group) Unfiltered() bool {
	return len(g.Addresses) == 0
}

// IntervalType names the unit of a task's interval.
type IntervalType string

const (
	IntervalMinutely IntervalType = "minutely"
	IntervalHourly   IntervalType = "hourly"
	IntervalDaily    IntervalType = "daily"
	IntervalWeekly   IntervalType = "weekly"
)

// Interval describes how often a task runs. TimeOfDay ("HH:MM") anchors daily
// and weekly tasks; it is ignored for minutely and hourly ones.
type Interval struct {
	Type      IntervalType `json:"type" toml:"type"`
	Value     int          `json:"value" toml:"value"`
	TimeOfDay string       `json:"time_of_day,omitempty" toml:"time_of_day"`
}

// Task is a scheduled unit of work. Kinds name the handlers to run; an empty
// TargetGroups list means every active group.
type Task struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Kinds        []string  `json:"kinds"`
	Interval     Interval  `json:"interval"`
	TargetGroups []string  `json:"target_groups"`
	IsActive     bool      `json:"is_active"`
	LastRun      time.Time `json:"last_run,omitzero"`
}

// Notification is an append-only history entry for one delivered message.
type Notification struct {
	ID          int64     `json:"id,omitempty"`
	EventType   string    `json:"event_type"`
	EventID     string    `json:"event_id"`
	GroupID     string    `json:"group_id"`
	Message     string    `json:"message"`
	SentAt      time.Time `json:"sent_at"`
	IsDuplicate bool      `json:"is_duplicate"`
}

// Stats summarises store contents for operators.
type Stats struct {
	ActiveGroups        int     `json:"active_groups"`
	Outages             int     `json:"outages"`
	// Ingested counts every sighting of an outage, re-ingestions included.
	Ingested            int     `json:"ingested"`
	UnnotifiedOutages   int     `json:"unnotified_outages"`
	Notifications       int     `json:"notifications"`
	DuplicatesPrevented int     `json:"duplicates_prevented"`
	DuplicatePercentage float64 `json:"duplicate_percentage"`
}
