package chat

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/thereayou/voxus-client/internal/models"
)

// HistoryLoader — одноразовая загрузка сохранённой истории комнаты
type HistoryLoader interface {
	GetMessages(ctx context.Context, roomID string) ([]models.Message, error)
}

// Emitter — канал живых событий комнаты. Subscribe возвращает функцию
// отписки; SendMessage не ждёт подтверждения.
type Emitter interface {
	Subscribe(roomID string, fn func(models.Message)) func()
	SendMessage(roomID, content, replyToID string) error
}

// Identity отдаёт текущего пользователя; nil — пользователь не вошёл
type Identity interface {
	CurrentUser() *models.User
}

// Reconciler — единственный источник правды о том, какие сообщения
// сейчас показывает одна комната. Сводит три входа — историю, живые
// события и локальные оптимистичные отправки — в один упорядоченный
// список без дублей. Экземпляр привязан к одной комнате; для другой
// комнаты создаётся новый экземпляр.
type Reconciler struct {
	roomID   string
	identity Identity
	history  HistoryLoader
	channel  Emitter

	mu          sync.Mutex
	messages    []models.Message
	ready       bool
	loaded      bool
	loading     bool
	loadErr     error
	closed      bool
	unsubscribe func()
	reply       replyTracker
}

func NewReconciler(roomID string, identity Identity, history HistoryLoader, channel Emitter) *Reconciler {
	return &Reconciler{
		roomID:   roomID,
		identity: identity,
		history:  history,
		channel:  channel,
	}
}

// LoadHistory загружает историю комнаты. Выполняется один раз за время
// жизни привязки: повторные вызовы после успеха и вызовы во время
// выполняющегося запроса — no-op. После неудачи вызов повторяет попытку.
// Живые события, пришедшие во время запроса, не теряются: они заново
// прогоняются через merge поверх загруженной истории.
func (r *Reconciler) LoadHistory(ctx context.Context) error {
	r.mu.Lock()
	if r.closed || r.loading || r.loaded {
		r.mu.Unlock()
		return nil
	}
	r.loading = true
	r.mu.Unlock()

	batch, err := r.history.GetMessages(ctx, r.roomID)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.loading = false
	if r.closed {
		// владелец уже демонтирован, результат никому не нужен
		return nil
	}
	r.ready = true

	if err != nil {
		r.loadErr = err
		return fmt.Errorf("%w: %v", ErrHistoryLoad, err)
	}

	r.loaded = true
	r.loadErr = nil

	for i := range batch {
		if batch[i].State == "" {
			batch[i].State = models.StateConfirmed
		}
	}
	sort.SliceStable(batch, func(i, j int) bool {
		return batch[i].CreatedAt.Before(batch[j].CreatedAt)
	})

	arrived := r.messages
	r.messages = batch
	for _, msg := range arrived {
		r.applyLocked(msg)
	}
	return nil
}

// Subscribe подписывает комнату на живые события. Идемпотентна: повторный
// вызов при живой подписке ничего не регистрирует.
func (r *Reconciler) Subscribe() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || r.unsubscribe != nil {
		return
	}
	r.unsubscribe = r.channel.Subscribe(r.roomID, r.handleIncoming)
}

// Unsubscribe снимает все обработчики, зарегистрированные этим
// экземпляром. Список сообщений не очищается: обрыв канала не должен
// прятать уже полученные сообщения.
func (r *Reconciler) Unsubscribe() {
	r.mu.Lock()
	unsub := r.unsubscribe
	r.unsubscribe = nil
	r.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}

// Send ставит сообщение в список до подтверждения сервером и отправляет
// его в канал. Пустой после обрезки текст и отсутствие пользователя —
// тихий no-op. Активный ответ прикрепляется и сбрасывается.
func (r *Reconciler) Send(content string) {
	content = strings.TrimSpace(content)
	if content == "" {
		return
	}
	user := r.identity.CurrentUser()
	if user == nil {
		return
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}

	var replyToID string
	if target := r.reply.consume(); target != nil {
		replyToID = target.ID
	}

	msg := models.Message{
		ID:        models.NewProvisionalID(),
		RoomID:    r.roomID,
		Content:   content,
		Sender:    *user,
		ReplyToID: replyToID,
		CreatedAt: time.Now(),
		State:     models.StatePending,
	}
	r.appendSortedLocked(msg)
	r.mu.Unlock()

	if err := r.channel.SendMessage(r.roomID, content, replyToID); err != nil {
		// запись остаётся PENDING; подтверждение придёт после восстановления канала
		log.Printf("[WARN] send to room %s failed: %v", r.roomID, err)
	}
}

// handleIncoming — вход живых событий. Ошибочные кадры отбрасываются,
// чужие комнаты не пропускаются.
func (r *Reconciler) handleIncoming(msg models.Message) {
	if msg.ID == "" {
		log.Printf("[WARN] room %s: dropping message without id", r.roomID)
		return
	}
	if msg.RoomID != "" && msg.RoomID != r.roomID {
		return
	}
	msg.State = models.StateConfirmed

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.applyLocked(msg)
}

// applyLocked — merge-алгоритм, через который проходит каждое входящее
// сообщение, из истории или живого события:
//  1. дубль по постоянному id — отбросить (каналы могут доставлять повторно);
//  2. подтверждение собственной отправки — занять место самой старой
//     PENDING-записи с тем же текстом (сверка по содержимому: бэкенд не
//     возвращает клиентский корреляционный id, это осознанная эвристика);
//  3. иначе — вставить с сохранением порядка по createdAt.
func (r *Reconciler) applyLocked(msg models.Message) {
	for i := range r.messages {
		if r.messages[i].ID == msg.ID {
			return
		}
	}

	if msg.State == models.StateConfirmed && !models.IsProvisionalID(msg.ID) {
		if user := r.identity.CurrentUser(); user != nil && user.ID == msg.Sender.ID {
			for i := range r.messages {
				candidate := &r.messages[i]
				if candidate.State == models.StatePending &&
					strings.TrimSpace(candidate.Content) == strings.TrimSpace(msg.Content) {
					*candidate = msg
					if !r.orderedLocked() {
						r.resortLocked()
					}
					return
				}
			}
		}
	}

	if msg.State == models.StatePending {
		// отправка, подтверждение которой уже в списке: например, пришло
		// в составе истории во время повторной сверки после загрузки
		for i := range r.messages {
			existing := &r.messages[i]
			if existing.State == models.StateConfirmed &&
				existing.Sender.ID == msg.Sender.ID &&
				strings.TrimSpace(existing.Content) == strings.TrimSpace(msg.Content) {
				return
			}
		}
	}

	r.appendSortedLocked(msg)
}

func (r *Reconciler) appendSortedLocked(msg models.Message) {
	r.messages = append(r.messages, msg)
	if n := len(r.messages); n > 1 && r.messages[n-2].CreatedAt.After(msg.CreatedAt) {
		r.resortLocked()
	}
}

func (r *Reconciler) orderedLocked() bool {
	for i := 1; i < len(r.messages); i++ {
		if r.messages[i-1].CreatedAt.After(r.messages[i].CreatedAt) {
			return false
		}
	}
	return true
}

// Стабильная сортировка: равные createdAt сохраняют порядок вставки.
func (r *Reconciler) resortLocked() {
	sort.SliceStable(r.messages, func(i, j int) bool {
		return r.messages[i].CreatedAt.Before(r.messages[j].CreatedAt)
	})
}

// Messages возвращает копию списка: потребители никогда не видят
// внутренних мутаций.
func (r *Reconciler) Messages() []models.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Message, len(r.messages))
	copy(out, r.messages)
	return out
}

// Ready сообщает, завершилась ли загрузка истории (успехом или ошибкой)
func (r *Reconciler) Ready() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ready
}

// LoadError возвращает ошибку последней загрузки истории, если была
func (r *Reconciler) LoadError() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loadErr
}

// SetReplyTarget назначает сообщение, на которое пойдёт следующий ответ
func (r *Reconciler) SetReplyTarget(m models.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.reply.set(m)
}

func (r *Reconciler) ClearReplyTarget() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reply.clear()
}

// ReplyTarget возвращает текущую цель ответа или nil
func (r *Reconciler) ReplyTarget() *models.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reply.current()
}

// Close демонтирует привязку к комнате: синхронно отписывается от канала
// и запрещает дальнейшие мутации. Запрос истории, завершившийся после
// Close, ничего не изменит.
func (r *Reconciler) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	unsub := r.unsubscribe
	r.unsubscribe = nil
	r.reply.clear()
	r.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}
