package identity_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"

	"github.com/thereayou/voxus-client/internal/api"
	"github.com/thereayou/voxus-client/internal/identity"
	"github.com/thereayou/voxus-client/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func issueToken(t *testing.T, subject string, expiresAt time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("server-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func newLoginServer(t *testing.T, session *identity.Session, token string, user models.User) *api.Client {
	t.Helper()
	router := gin.New()
	router.POST("/auth/login", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return api.NewClient(srv.URL, session)
}

func TestSignInBindsSession(t *testing.T) {
	session := identity.NewSession()
	token := issueToken(t, "u1", time.Now().Add(time.Hour))
	client := newLoginServer(t, session, token, models.User{ID: "u1", Username: "alice"})

	if session.CurrentUser() != nil {
		t.Fatal("fresh session has a user")
	}
	if session.SignedIn() {
		t.Fatal("fresh session reports signed in")
	}

	if err := session.SignIn(context.Background(), client, api.LoginRequest{Email: "a@b.c", Password: "x"}); err != nil {
		t.Fatalf("SignIn: %v", err)
	}

	user := session.CurrentUser()
	if user == nil || user.ID != "u1" {
		t.Fatalf("unexpected user: %+v", user)
	}
	if session.Token() != token {
		t.Fatal("token not stored")
	}
	if session.Expired(time.Now()) {
		t.Fatal("live session reports expired")
	}
}

func TestSignInRejectsExpiredToken(t *testing.T) {
	session := identity.NewSession()
	token := issueToken(t, "u1", time.Now().Add(-time.Hour))
	client := newLoginServer(t, session, token, models.User{ID: "u1"})

	if err := session.SignIn(context.Background(), client, api.LoginRequest{}); err == nil {
		t.Fatal("expired token accepted")
	}
	if session.SignedIn() {
		t.Fatal("session bound despite rejected token")
	}
}

func TestSignInFillsUserIDFromToken(t *testing.T) {
	session := identity.NewSession()
	token := issueToken(t, "u42", time.Now().Add(time.Hour))
	client := newLoginServer(t, session, token, models.User{Username: "alice"})

	if err := session.SignIn(context.Background(), client, api.LoginRequest{}); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if user := session.CurrentUser(); user == nil || user.ID != "u42" {
		t.Fatalf("subject not used as fallback id: %+v", user)
	}
}

func TestSignOut(t *testing.T) {
	session := identity.NewSession()
	token := issueToken(t, "u1", time.Now().Add(time.Hour))
	client := newLoginServer(t, session, token, models.User{ID: "u1"})

	if err := session.SignIn(context.Background(), client, api.LoginRequest{}); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	session.SignOut()

	if session.CurrentUser() != nil {
		t.Fatal("user survives sign out")
	}
	if session.Token() != "" {
		t.Fatal("token survives sign out")
	}
	if !session.Expired(time.Now()) {
		t.Fatal("signed-out session must report expired")
	}
}
