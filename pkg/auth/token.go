package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

var ErrNoExpiry = errors.New("token has no expiry claim")

// Claims разбирает JWT без проверки подписи. Подпись проверяет сервер;
// клиенту нужны только subject и срок действия токена.
func Claims(accessToken string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(accessToken, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// Subject возвращает идентификатор пользователя из токена
func Subject(accessToken string) (string, error) {
	claims, err := Claims(accessToken)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// Expiry возвращает время истечения токена
func Expiry(accessToken string) (time.Time, error) {
	claims, err := Claims(accessToken)
	if err != nil {
		return time.Time{}, err
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, ErrNoExpiry
	}
	return claims.ExpiresAt.Time, nil
}

// IsExpired сообщает, истёк ли токен к моменту now.
// Токен без exp считается истёкшим: сервер такие не выдаёт.
func IsExpired(accessToken string, now time.Time) bool {
	exp, err := Expiry(accessToken)
	if err != nil {
		return true
	}
	return !now.Before(exp)
}

// BearerHeader формирует значение заголовка Authorization
func BearerHeader(accessToken string) string {
	return "Bearer " + accessToken
}
