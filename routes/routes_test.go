package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fooddash/internal/handlers"
	"fooddash/internal/models"
	"fooddash/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	testSecret = "routes-secret"
	testIssuer = "fooddash-test"
)

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	Setup(r, Handlers{Health: handlers.NewHealthHandler(nil)}, Options{JWTSecret: testSecret, JWTIssuer: testIssuer})
	return r
}

func request(t *testing.T, r *gin.Engine, method, path string, role models.Role) int {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if role != "" {
		tok, err := utils.GenerateToken(primitive.NewObjectID(), string(role), testIssuer, testSecret, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRoleGates(t *testing.T) {
	r := newRouter()

	tests := []struct {
		name   string
		method string
		path   string
		role   models.Role
		want   int
	}{
		{"anonymous user api", http.MethodGet, "/api/user/orders", "", http.StatusUnauthorized},
		{"restaurant on user api", http.MethodGet, "/api/user/orders", models.RoleRestaurant, http.StatusForbidden},
		{"customer on restaurant api", http.MethodGet, "/api/restaurant/orders", models.RoleCustomer, http.StatusForbidden},
		{"customer on admin api", http.MethodPost, "/api/admin/system/outbox/replay", models.RoleCustomer, http.StatusForbidden},
		{"restaurant on admin api", http.MethodGet, "/api/admin/coupons", models.RoleRestaurant, http.StatusForbidden},
		{"anonymous websocket", http.MethodGet, "/ws", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, request(t, r, tt.method, tt.path, tt.role))
		})
	}
}

func TestHealthIsPublic(t *testing.T) {
	assert.Equal(t, http.StatusOK, request(t, newRouter(), http.MethodGet, "/health", ""))
}
