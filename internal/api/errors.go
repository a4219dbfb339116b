package api

import (
	"errors"
	"fmt"
)

// ErrUnauthorized возвращается на 401: сессия истекла, нужен повторный вход.
var ErrUnauthorized = errors.New("unauthorized")

// StatusError — любой другой не-2xx ответ сервера.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server returned %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("server returned %d", e.Code)
}
