package identity

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/thereayou/voxus-client/internal/api"
	"github.com/thereayou/voxus-client/internal/models"
	"github.com/thereayou/voxus-client/pkg/auth"
)

var ErrSignedOut = errors.New("not signed in")

// Session хранит текущего пользователя и его токен на время жизни
// процесса. Постоянного хранилища нет: перезапуск клиента — новый вход.
type Session struct {
	mu    sync.RWMutex
	user  *models.User
	token string
}

func NewSession() *Session {
	return &Session{}
}

// SignIn выполняет вход и привязывает сессию к полученному токену
func (s *Session) SignIn(ctx context.Context, client *api.Client, req api.LoginRequest) error {
	resp, err := client.Login(ctx, req)
	if err != nil {
		return err
	}

	subject, err := auth.Subject(resp.Token)
	if err != nil {
		return fmt.Errorf("malformed token: %w", err)
	}
	if auth.IsExpired(resp.Token, time.Now()) {
		return fmt.Errorf("token for %s is already expired", subject)
	}

	user := resp.User
	if user.ID == "" {
		user.ID = subject
	}

	s.mu.Lock()
	s.user = &user
	s.token = resp.Token
	s.mu.Unlock()
	return nil
}

func (s *Session) SignOut() {
	s.mu.Lock()
	s.user = nil
	s.token = ""
	s.mu.Unlock()
}

// CurrentUser возвращает копию профиля или nil, если входа не было
func (s *Session) CurrentUser() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	copied := *s.user
	return &copied
}

// Token отдаёт текущий токен; пустая строка — сессии нет
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) SignedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil && s.token != ""
}

// Expired сообщает, истёк ли токен сессии
func (s *Session) Expired(now time.Time) bool {
	s.mu.RLock()
	token := s.token
	s.mu.RUnlock()
	if token == "" {
		return true
	}
	return auth.IsExpired(token, now)
}
