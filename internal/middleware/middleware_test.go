package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fooddash/internal/models"
	"fooddash/internal/utils"
	"fooddash/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	testSecret = "test-secret"
	testIssuer = "fooddash-test"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func token(t *testing.T, userID primitive.ObjectID, role models.Role) string {
	t.Helper()
	tok, err := utils.GenerateToken(userID, string(role), testIssuer, testSecret, time.Hour)
	require.NoError(t, err)
	return tok
}

func newAuthRouter(roles ...models.Role) *gin.Engine {
	r := gin.New()
	handlers := []gin.HandlerFunc{AuthRequired(testSecret, testIssuer)}
	if len(roles) > 0 {
		handlers = append(handlers, RequireRoles(roles...))
	}
	handlers = append(handlers, func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		if !ok {
			c.Status(http.StatusTeapot)
			return
		}
		c.String(http.StatusOK, actor.ID.Hex()+":"+string(actor.Role))
	})
	r.GET("/me", handlers...)
	return r
}

func TestAuthRequired(t *testing.T) {
	userID := primitive.NewObjectID()
	router := newAuthRouter()

	tests := []struct {
		name   string
		header string
		query  string
		status int
	}{
		{name: "missing token", status: http.StatusUnauthorized},
		{name: "not a bearer token", header: "Basic abc", status: http.StatusUnauthorized},
		{name: "garbage token", header: "Bearer nope", status: http.StatusUnauthorized},
		{name: "valid header", header: "Bearer " + token(t, userID, models.RoleCustomer), status: http.StatusOK},
		{name: "valid query token", query: "?token=" + token(t, userID, models.RoleCustomer), status: http.StatusOK},
		{name: "unknown role", header: "Bearer " + token(t, userID, "driver"), status: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, userID.Hex()+":customer", w.Body.String())
			}
		})
	}
}

func TestAuthRequired_WrongSecret(t *testing.T) {
	userID := primitive.NewObjectID()
	forged, err := utils.GenerateToken(userID, "admin", testIssuer, "other-secret", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+forged)
	w := httptest.NewRecorder()
	newAuthRouter().ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_TOKEN")
}

func TestRequireRoles(t *testing.T) {
	router := newAuthRouter(models.RoleAdmin, models.RoleRestaurant)

	for role, status := range map[models.Role]int{
		models.RoleAdmin:      http.StatusOK,
		models.RoleRestaurant: http.StatusOK,
		models.RoleCustomer:   http.StatusForbidden,
	} {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+token(t, primitive.NewObjectID(), role))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, status, w.Code, string(role))
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(ContextRequestID)) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := w.Header().Get("X-Request-ID")
	assert.Len(t, generated, 36)
	assert.Equal(t, generated, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
}

func TestCORSMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddleware([]string{"https://app.fooddash.test"}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://app.fooddash.test")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.fooddash.test", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.test")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRecoveryMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(RecoveryMiddleware(logger.NewNop()))
	r.GET("/", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "INTERNAL_ERROR")
	assert.NotContains(t, w.Body.String(), "boom")
}

func TestTimeoutMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(TimeoutMiddleware(time.Second))
	r.GET("/", func(c *gin.Context) {
		deadline, ok := c.Request.Context().Deadline()
		if ok && time.Until(deadline) <= time.Second {
			c.Status(http.StatusOK)
			return
		}
		c.Status(http.StatusInternalServerError)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimitMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(RateLimitMiddleware(NewRateLimiter(1, 2)))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code, "limits are per client")
}
