package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// DeliveryState — состояние доставки сообщения с точки зрения клиента.
type DeliveryState string

const (
	// StatePending — локальное сообщение, ещё не подтверждённое сервером
	StatePending DeliveryState = "pending"
	// StateConfirmed — сообщение пришло от сервера (история или live-событие)
	StateConfirmed DeliveryState = "confirmed"
	// StateFailed — отправка отклонена сервером
	StateFailed DeliveryState = "failed"
)

// ProvisionalPrefix — префикс временных id, которые клиент выдаёт
// сообщению до того, как сервер назначит постоянный id.
const ProvisionalPrefix = "temp-"

type Message struct {
	ID        string        `json:"_id"`
	RoomID    string        `json:"roomId"`
	Content   string        `json:"content"`
	Sender    User          `json:"sender"`
	ReplyToID string        `json:"replyToId,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
	State     DeliveryState `json:"-"`
}

// NewProvisionalID генерирует временный id, уникальный в пределах сессии.
// Постоянные id сервера никогда не начинаются с ProvisionalPrefix,
// поэтому коллизии исключены.
func NewProvisionalID() string {
	return ProvisionalPrefix + uuid.NewString()
}

// IsProvisionalID сообщает, локальный ли это id
func IsProvisionalID(id string) bool {
	return strings.HasPrefix(id, ProvisionalPrefix)
}
