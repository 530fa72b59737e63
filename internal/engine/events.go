package engine

import "time"

// EventKind is the closed enumeration of outbound notification events.
type EventKind string

const (
	EventTaskCompleted  EventKind = "task_completed"
	EventBonusCompleted EventKind = "bonus_completed"
	EventTaskApproved   EventKind = "task_approved"
	EventBonusApproved  EventKind = "bonus_approved"
	EventPurchase       EventKind = "purchase"
)

// Event is a plain description of something that happened, handed to the
// notification collaborator after the state change committed. Formatting,
// localization and delivery are entirely the consumer's concern.
type Event struct {
	Kind EventKind `json:"kind"`

	TaskID    string `json:"task_id,omitempty"`
	TaskTitle string `json:"task_title,omitempty"`
	ChildID   string `json:"child_id,omitempty"`
	ChildName string `json:"child_name,omitempty"`
	Points    int    `json:"points,omitempty"`

	SkipApproval bool   `json:"skip_approval,omitempty"`
	BonusEnabled bool   `json:"bonus_enabled,omitempty"`
	BonusTitle   string `json:"bonus_title,omitempty"`
	BonusDone    bool   `json:"bonus_done,omitempty"`

	ItemID    string `json:"item_id,omitempty"`
	ItemTitle string `json:"item_title,omitempty"`
	Price     int    `json:"price,omitempty"`
	Image     string `json:"image,omitempty"`

	TS time.Time `json:"ts"`
}

// Notifier receives events after a mutation commits. Implementations must be
// best-effort and non-blocking; the engine never learns about delivery
// failures and never rolls back on them.
type Notifier interface {
	Notify(Event)
}

// NopNotifier discards all events.
type NopNotifier struct{}

func (NopNotifier) Notify(Event) {}
