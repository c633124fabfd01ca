package services

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vnkhanh/learnhub-backend/logger"
)

type AuditEvent struct {
	Actor    uuid.UUID `json:"actor"`
	Action   string    `json:"action"` // lesson.create | lesson.update | lesson.delete | lesson.reorder
	EntityID uuid.UUID `json:"entity_id"`
	Detail   string    `json:"detail,omitempty"`
	At       time.Time `json:"at"`
}

// AuditEmitter đẩy sự kiện qua channel có buffer; caller không bao giờ bị
// block hay nhận lỗi từ audit. Worker ghi log và fan-out (ws hub) phía sau.
type AuditEmitter struct {
	events chan AuditEvent
	notify func(payload []byte) // nil nếu không cần fan-out
	log    *logger.Logger

	closeOnce sync.Once
	done      chan struct{}
}

func NewAuditEmitter(log *logger.Logger, notify func(payload []byte)) *AuditEmitter {
	e := &AuditEmitter{
		events: make(chan AuditEvent, 128),
		notify: notify,
		log:    log.With("component", "audit"),
		done:   make(chan struct{}),
	}
	go e.run()
	return e
}

// Emit không chặn: buffer đầy thì bỏ sự kiện và ghi warn.
func (e *AuditEmitter) Emit(ev AuditEvent) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	select {
	case e.events <- ev:
	default:
		e.log.Warn("audit buffer đầy, bỏ sự kiện", "action", ev.Action, "entity_id", ev.EntityID)
	}
}

func (e *AuditEmitter) run() {
	defer close(e.done)
	for ev := range e.events {
		e.log.Info("audit",
			"action", ev.Action,
			"actor", ev.Actor,
			"entity_id", ev.EntityID,
			"detail", ev.Detail,
			"at", ev.At.Format(time.RFC3339),
		)
		if e.notify != nil {
			payload, err := json.Marshal(map[string]interface{}{
				"type":  "audit_event",
				"event": ev,
			})
			if err != nil {
				e.log.Warn("marshal audit event thất bại", "error", err)
				continue
			}
			e.notify(payload)
		}
	}
}

// Close xử lý nốt các sự kiện còn trong buffer rồi dừng worker.
func (e *AuditEmitter) Close() {
	e.closeOnce.Do(func() {
		close(e.events)
		<-e.done
	})
}
