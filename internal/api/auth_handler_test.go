package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"poovi/internal/database"
)

// 测试里用指向不存在地址的客户端：速率限制与锁定在 Redis
// 不可达时按放行处理，认证主流程不依赖它。
func newDeadRedis() *redis.Client {
	return redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
}

func newAuthHandlerUnderTest(t *testing.T) *AuthHandler {
	t.Helper()
	db := newTestDB(t, &database.User{})
	return NewAuthHandler(db, newTestAuthService(t), newDeadRedis(), nil, 10, 5, 15*time.Minute, "")
}

func doAuthRequest(t *testing.T, handle gin.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/v1/auth", bytes.NewReader([]byte(body)))
	c.Request.Header.Set("Content-Type", "application/json")

	handle(c)
	// 直接调用 handler 时没有 gin 引擎兜底刷新,纯状态码响应需要手动落盘。
	c.Writer.WriteHeaderNow()
	return w
}

func TestRegister(t *testing.T) {
	h := newAuthHandlerUnderTest(t)

	w := doAuthRequest(t, h.Register, `{"email":"priya@example.com","password":"correct-horse"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", w.Code, w.Body.String())
	}

	// 重复邮箱冲突。
	w = doAuthRequest(t, h.Register, `{"email":"PRIYA@example.com","password":"correct-horse"}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate email, got %d", w.Code)
	}
}

func TestRegisterValidation(t *testing.T) {
	h := newAuthHandlerUnderTest(t)

	cases := []string{
		`{"email":"not-an-email","password":"correct-horse"}`,
		`{"email":"priya@example.com","password":"short"}`,
		`{}`,
	}
	for _, body := range cases {
		w := doAuthRequest(t, h.Register, body)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for %s, got %d", body, w.Code)
		}
	}
}

func TestLogin(t *testing.T) {
	h := newAuthHandlerUnderTest(t)

	w := doAuthRequest(t, h.Register, `{"email":"priya@example.com","password":"correct-horse"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("register: %d", w.Code)
	}

	w = doAuthRequest(t, h.Login, `{"email":"priya@example.com","password":"correct-horse"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", w.Code, w.Body.String())
	}

	var resp tokenResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.AccessToken == "" || resp.TokenType != "Bearer" || resp.ExpiresIn <= 0 {
		t.Fatalf("token response incomplete: %+v", resp)
	}

	claims, err := h.authService.ValidateToken(resp.AccessToken)
	if err != nil || claims.TokenType != "access" {
		t.Fatalf("issued token invalid: %v", err)
	}

	var sawRefreshCookie bool
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == refreshTokenCookieName && cookie.Value != "" && cookie.HttpOnly {
			sawRefreshCookie = true
		}
	}
	if !sawRefreshCookie {
		t.Fatalf("refresh cookie not set")
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	h := newAuthHandlerUnderTest(t)

	w := doAuthRequest(t, h.Register, `{"email":"priya@example.com","password":"correct-horse"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("register: %d", w.Code)
	}

	w = doAuthRequest(t, h.Login, `{"email":"priya@example.com","password":"wrong-password"}`)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong password, got %d", w.Code)
	}

	w = doAuthRequest(t, h.Login, `{"email":"nobody@example.com","password":"correct-horse"}`)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unknown user, got %d", w.Code)
	}
}

func TestRefreshRejectsGarbage(t *testing.T) {
	h := newAuthHandlerUnderTest(t)

	w := doAuthRequest(t, h.Refresh, `{}`)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a token, got %d", w.Code)
	}

	w = doAuthRequest(t, h.Refresh, `{"refresh_token":"not-a-jwt"}`)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for malformed token, got %d", w.Code)
	}
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	h := newAuthHandlerUnderTest(t)

	pair, err := h.authService.GenerateTokenPair(1)
	if err != nil {
		t.Fatalf("generate pair: %v", err)
	}
	// 访问令牌不能当刷新令牌用。
	w := doAuthRequest(t, h.Refresh, `{"refresh_token":"`+pair.AccessToken+`"}`)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for access token, got %d", w.Code)
	}
}
