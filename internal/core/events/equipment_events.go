package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeStatusChanged    = "equipment.status_changed"
	EventTypeEquipmentDeleted = "equipment.deleted"
	EventTypeRenewalResolved  = "renewal.resolved"
)

type StatusChangedEvent struct {
	BaseEvent
	Tag    string `json:"tag"`
	From   string `json:"from"`
	To     string `json:"to"`
	Action string `json:"action"`
	Actor  string `json:"actor"`
}

func NewStatusChangedEvent(tag, from, to, action, actor string) *StatusChangedEvent {
	return &StatusChangedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeStatusChanged,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"tag":    tag,
				"from":   from,
				"to":     to,
				"action": action,
				"actor":  actor,
			},
		},
		Tag:    tag,
		From:   from,
		To:     to,
		Action: action,
		Actor:  actor,
	}
}

type EquipmentDeletedEvent struct {
	BaseEvent
	Tag   string `json:"tag"`
	Actor string `json:"actor"`
}

func NewEquipmentDeletedEvent(tag, actor string) *EquipmentDeletedEvent {
	return &EquipmentDeletedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeEquipmentDeleted,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"tag":   tag,
				"actor": actor,
			},
		},
		Tag:   tag,
		Actor: actor,
	}
}

type RenewalResolvedEvent struct {
	BaseEvent
	OldTag   string `json:"old_tag"`
	NewTag   string `json:"new_tag"`
	Approved bool   `json:"approved"`
	Actor    string `json:"actor"`
}

func NewRenewalResolvedEvent(oldTag, newTag string, approved bool, actor string) *RenewalResolvedEvent {
	return &RenewalResolvedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeRenewalResolved,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"old_tag":  oldTag,
				"new_tag":  newTag,
				"approved": approved,
				"actor":    actor,
			},
		},
		OldTag:   oldTag,
		NewTag:   newTag,
		Approved: approved,
		Actor:    actor,
	}
}
