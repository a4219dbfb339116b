package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/thereayou/voxus-client/internal/models"
)

const (
	// Время ожидания записи
	writeWait = 10 * time.Second

	// Время ожидания pong от сервера
	pongWait = 60 * time.Second

	// Интервал отправки ping
	pingPeriod = (pongWait * 9) / 10

	// Максимальный размер кадра
	maxMessageSize = 512 * 1024 // 512KB

	sendQueueSize = 256
)

// TokenSource отдаёт токен для рукопожатия; пустая строка — без авторизации.
type TokenSource interface {
	Token() string
}

// Handler получает входящее сообщение комнаты
type Handler = func(models.Message)

type Options struct {
	ReconnectAttempts int
	ReconnectDelay    time.Duration
	HandshakeTimeout  time.Duration
}

// Channel — одно физическое websocket-соединение с бэкендом, через которое
// мультиплексируются подписки на комнаты. Владелец соединения — Channel;
// подписчики владеют только своей подпиской и отписываются через
// функцию, возвращённую Subscribe.
type Channel struct {
	url    string
	tokens TokenSource
	opts   Options

	mu        sync.RWMutex
	conn      *websocket.Conn
	send      chan []byte
	stop      chan struct{}
	connected bool
	closed    bool

	subs    map[string]map[uuid.UUID]Handler
	notifs  map[uuid.UUID]func(Notification)
	stateFn func(connected bool)
}

func NewChannel(rawURL string, tokens TokenSource, opts Options) *Channel {
	if opts.ReconnectAttempts == 0 {
		opts.ReconnectAttempts = 5
	}
	if opts.ReconnectDelay == 0 {
		opts.ReconnectDelay = 2 * time.Second
	}
	if opts.HandshakeTimeout == 0 {
		opts.HandshakeTimeout = 10 * time.Second
	}
	return &Channel{
		url:    rawURL,
		tokens: tokens,
		opts:   opts,
		subs:   make(map[string]map[uuid.UUID]Handler),
		notifs: make(map[uuid.UUID]func(Notification)),
	}
}

// Dial устанавливает соединение и запускает читающую и пишущую горутины.
// Повторный вызов на живом соединении — no-op. После переподключения
// заново входит во все комнаты с активными подписками.
func (c *Channel) Dial(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.connected {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	dialer := websocket.Dialer{HandshakeTimeout: c.opts.HandshakeTimeout}
	conn, resp, err := dialer.DialContext(ctx, c.dialURL(), nil)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return fmt.Errorf("dial %s: %w", c.url, err)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		conn.Close()
		return ErrClosed
	}
	c.conn = conn
	c.send = make(chan []byte, sendQueueSize)
	c.stop = make(chan struct{})
	c.connected = true
	send, stop := c.send, c.stop
	rooms := make([]string, 0, len(c.subs))
	for roomID := range c.subs {
		rooms = append(rooms, roomID)
	}
	stateFn := c.stateFn
	c.mu.Unlock()

	go c.writePump(conn, send, stop)
	go c.readPump(conn, stop)

	if stateFn != nil {
		stateFn(true)
	}

	for _, roomID := range rooms {
		if err := c.JoinRoom(roomID); err != nil {
			log.Printf("[WARN] rejoin room %s: %v", roomID, err)
		}
	}
	return nil
}

// Токен передаётся query-параметром: такой контракт у рукопожатия бэкенда.
func (c *Channel) dialURL() string {
	token := c.tokens.Token()
	if token == "" {
		return c.url
	}
	sep := "?"
	if strings.Contains(c.url, "?") {
		sep = "&"
	}
	return c.url + sep + "token=" + url.QueryEscape(token)
}

// readPump читает кадры до обрыва соединения
func (c *Channel) readPump(conn *websocket.Conn, stop chan struct{}) {
	defer conn.Close()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var frame Frame
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[WARN] websocket read: %v", err)
			}
			break
		}
		c.dispatch(&frame)
	}

	close(stop)
	c.handleDisconnect()
}

// writePump отправляет кадры и периодические ping
func (c *Channel) writePump(conn *websocket.Conn, send chan []byte, stop chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case message := <-send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-stop:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

func (c *Channel) dispatch(frame *Frame) {
	switch frame.Type {
	case TypePing:
		if err := c.emit(&Frame{Type: TypePong, Timestamp: time.Now()}); err != nil {
			log.Printf("[WARN] pong: %v", err)
		}

	case TypePong:
		// обрабатывается PongHandler

	case TypeMessage:
		var msg models.Message
		if err := json.Unmarshal(frame.Data, &msg); err != nil || msg.ID == "" {
			// один битый кадр не должен ронять поток
			log.Printf("[WARN] %v: dropping message frame: %v", ErrInvalidFrame, err)
			return
		}
		if msg.RoomID == "" {
			msg.RoomID = frame.RoomID
		}
		msg.State = models.StateConfirmed

		c.mu.RLock()
		handlers := make([]Handler, 0, len(c.subs[msg.RoomID]))
		for _, h := range c.subs[msg.RoomID] {
			handlers = append(handlers, h)
		}
		c.mu.RUnlock()

		for _, h := range handlers {
			h(msg)
		}

	case TypeNotification:
		var n Notification
		if err := json.Unmarshal(frame.Data, &n); err != nil {
			log.Printf("[WARN] dropping malformed notification: %v", err)
			return
		}

		c.mu.RLock()
		handlers := make([]func(Notification), 0, len(c.notifs))
		for _, h := range c.notifs {
			handlers = append(handlers, h)
		}
		c.mu.RUnlock()

		for _, h := range handlers {
			h(n)
		}

	case TypeRoomJoin, TypeRoomLeave, TypeConnect, TypeDisconnect:
		// статусные кадры; клиенту ничего делать не нужно

	case TypeError:
		log.Printf("[ERROR] server error frame: %s", frame.Data)

	default:
		log.Printf("[WARN] unknown frame type: %s", frame.Type)
	}
}

func (c *Channel) handleDisconnect() {
	c.mu.Lock()
	wasConnected := c.connected
	c.connected = false
	closed := c.closed
	stateFn := c.stateFn
	c.mu.Unlock()

	if closed || !wasConnected {
		return
	}
	if stateFn != nil {
		stateFn(false)
	}
	go c.reconnect()
}

func (c *Channel) reconnect() {
	for attempt := 1; attempt <= c.opts.ReconnectAttempts; attempt++ {
		time.Sleep(time.Duration(attempt) * c.opts.ReconnectDelay)

		c.mu.RLock()
		closed := c.closed
		c.mu.RUnlock()
		if closed {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), c.opts.HandshakeTimeout)
		err := c.Dial(ctx)
		cancel()
		if err == nil {
			log.Printf("reconnected after %d attempt(s)", attempt)
			return
		}
		log.Printf("[WARN] reconnect attempt %d/%d failed: %v", attempt, c.opts.ReconnectAttempts, err)
	}
	log.Printf("[ERROR] giving up after %d reconnect attempts", c.opts.ReconnectAttempts)
}

func (c *Channel) emit(frame *Frame) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return ErrClosed
	}
	if !c.connected {
		return ErrNotConnected
	}

	select {
	case c.send <- data:
		return nil
	default:
		return ErrSendQueueFull
	}
}

// Subscribe регистрирует обработчик входящих сообщений комнаты и входит
// в неё на сервере. Возвращает функцию отписки; вызывать её можно
// многократно, отписка всегда снимает ровно свой обработчик.
func (c *Channel) Subscribe(roomID string, fn Handler) func() {
	id := uuid.New()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return func() {}
	}
	if c.subs[roomID] == nil {
		c.subs[roomID] = make(map[uuid.UUID]Handler)
	}
	c.subs[roomID][id] = fn
	c.mu.Unlock()

	if err := c.JoinRoom(roomID); err != nil {
		// войдём после подключения: Dial повторяет join для живых подписок
		log.Printf("[WARN] join room %s deferred: %v", roomID, err)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			var last bool
			c.mu.Lock()
			if handlers, ok := c.subs[roomID]; ok {
				delete(handlers, id)
				if len(handlers) == 0 {
					delete(c.subs, roomID)
					last = true
				}
			}
			c.mu.Unlock()

			if last {
				if err := c.emit(&Frame{Type: TypeRoomLeave, RoomID: roomID, Timestamp: time.Now()}); err != nil {
					log.Printf("[WARN] leave room %s: %v", roomID, err)
				}
			}
		})
	}
}

// OnNotification регистрирует обработчик push-уведомлений
func (c *Channel) OnNotification(fn func(Notification)) func() {
	id := uuid.New()

	c.mu.Lock()
	c.notifs[id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.notifs, id)
			c.mu.Unlock()
		})
	}
}

// OnStateChange устанавливает обработчик смены состояния соединения
func (c *Channel) OnStateChange(fn func(connected bool)) {
	c.mu.Lock()
	c.stateFn = fn
	c.mu.Unlock()
}

func (c *Channel) JoinRoom(roomID string) error {
	return c.emit(&Frame{Type: TypeRoomJoin, RoomID: roomID, Timestamp: time.Now()})
}

// SendMessage отправляет сообщение в комнату. Отправка не ждёт
// подтверждения: оно придёт обычным входящим кадром.
func (c *Channel) SendMessage(roomID, content, replyToID string) error {
	payload, err := json.Marshal(MessagePayload{Content: content, ReplyToID: replyToID})
	if err != nil {
		return err
	}
	return c.emit(&Frame{Type: TypeMessage, RoomID: roomID, Data: payload, Timestamp: time.Now()})
}

// SendFriendRequest отправляет заявку в друзья (fire-and-forget)
func (c *Channel) SendFriendRequest(userID string) error {
	return c.emit(&Frame{Type: TypeFriendRequest, UserID: userID, Timestamp: time.Now()})
}

// AcceptFriendRequest принимает заявку в друзья (fire-and-forget)
func (c *Channel) AcceptFriendRequest(userID string) error {
	return c.emit(&Frame{Type: TypeFriendAccept, UserID: userID, Timestamp: time.Now()})
}

func (c *Channel) Connected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// Close разрывает соединение и запрещает дальнейшее использование канала
func (c *Channel) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.connected = false
	conn := c.conn
	c.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
}
