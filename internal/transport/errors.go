package transport

import "errors"

var (
	ErrNotConnected  = errors.New("transport is not connected")
	ErrSendQueueFull = errors.New("send queue is full")
	ErrClosed        = errors.New("transport is closed")
	ErrInvalidFrame  = errors.New("invalid frame format")
)
