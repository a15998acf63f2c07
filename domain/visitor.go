package domain

import (
	"errors"
	"time"

	"gorm.io/datatypes"
)

var ErrVisitorNotFound = errors.New("visitor not found")

// Visitor is one browsing identity scoped to a customer. Data holds the latest
// behavioural snapshot; the full history lives in VisitorEvent rows.
type Visitor struct {
	ID          string            `gorm:"primaryKey;column:visitor_id" json:"id"`
	CustomerID  string            `gorm:"primaryKey;column:customer_id" json:"customer_id"`
	EventCount  int               `gorm:"column:event_count;not null;default:0" json:"event_count"`
	Data        datatypes.JSONMap `gorm:"column:data;type:jsonb" json:"data"`
	FirstSeenAt time.Time         `gorm:"column:first_seen_at" json:"first_seen_at"`
	LastSeenAt  time.Time         `gorm:"column:last_seen_at" json:"last_seen_at"`
}

func (Visitor) TableName() string {
	return "visitors"
}

// DataID is the key of the visitor's behavioural record.
func (v Visitor) DataID() string {
	return v.CustomerID + "-" + v.ID
}

type VisitorEvent struct {
	ID         string            `gorm:"primaryKey;column:event_id" json:"id"`
	CustomerID string            `gorm:"column:customer_id;not null;index:idx_visitor_events_key" json:"customer_id"`
	VisitorID  string            `gorm:"column:visitor_id;not null;index:idx_visitor_events_key" json:"visitor_id"`
	EventName  string            `gorm:"column:event_name" json:"event_name"`
	PageURL    string            `gorm:"column:page_url" json:"page_url"`
	OccurredAt time.Time         `gorm:"column:occurred_at" json:"occurred_at"`
	Payload    datatypes.JSONMap `gorm:"column:payload;type:jsonb" json:"payload"`
	CreatedAt  time.Time         `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (VisitorEvent) TableName() string {
	return "visitor_events"
}

// NewVisitorEvent builds the event row for one beacon call. The id is
// assigned by the store.
func NewVisitorEvent(v Visitor, req BeaconRequest) VisitorEvent {
	return VisitorEvent{
		CustomerID: v.CustomerID,
		VisitorID:  v.ID,
		EventName:  req.EventName,
		PageURL:    req.PageURL,
		OccurredAt: req.EventTime.UTC(),
		Payload:    datatypes.JSONMap(req.EventData()),
	}
}

// ApplyEvent folds an event into the visitor snapshot.
func (v *Visitor) ApplyEvent(ev VisitorEvent, now time.Time) {
	v.EventCount++
	v.LastSeenAt = now
	if v.FirstSeenAt.IsZero() {
		v.FirstSeenAt = now
	}
	data := datatypes.JSONMap{}
	for k, val := range ev.Payload {
		data[k] = val
	}
	v.Data = data
}
