package chat

import "github.com/thereayou/voxus-client/internal/models"

// replyTracker хранит не более одного сообщения, на которое пользователь
// сейчас отвечает. Новая цель вытесняет старую; отправка забирает цель.
// Защищается мьютексом владеющего Reconciler.
type replyTracker struct {
	target *models.Message
}

func (t *replyTracker) set(m models.Message) {
	copied := m
	t.target = &copied
}

func (t *replyTracker) clear() {
	t.target = nil
}

// consume отдаёт текущую цель и сбрасывает её: один ответ — одно сообщение
func (t *replyTracker) consume() *models.Message {
	target := t.target
	t.target = nil
	return target
}

func (t *replyTracker) current() *models.Message {
	if t.target == nil {
		return nil
	}
	copied := *t.target
	return &copied
}
