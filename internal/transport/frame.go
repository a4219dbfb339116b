package transport

import (
	"encoding/json"
	"time"

	"github.com/thereayou/voxus-client/internal/models"
)

// EventType определяет типы кадров протокола
type EventType string

const (
	// Системные типы
	TypeConnect    EventType = "connect"
	TypeDisconnect EventType = "disconnect"
	TypePing       EventType = "ping"
	TypePong       EventType = "pong"

	// Типы сообщений
	TypeMessage EventType = "message"

	// Типы комнат
	TypeRoomJoin  EventType = "room_join"
	TypeRoomLeave EventType = "room_leave"

	// Социальные события
	TypeNotification  EventType = "notification"
	TypeFriendRequest EventType = "friend_request"
	TypeFriendAccept  EventType = "friend_accept"

	TypeError EventType = "error"
)

// Frame — кадр, которым обменивается клиент с сервером
type Frame struct {
	Type      EventType       `json:"type"`
	RoomID    string          `json:"room_id,omitempty"`
	UserID    string          `json:"user_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// MessagePayload — исходящее сообщение. Временный id не передаётся:
// постоянный id назначает сервер.
type MessagePayload struct {
	Content   string `json:"content"`
	ReplyToID string `json:"replyToId,omitempty"`
}

// Notification — push-уведомление вне комнат (заявки в друзья и т.п.)
type Notification struct {
	Type    string      `json:"type"`
	From    models.User `json:"from"`
	Message string      `json:"message"`
}
