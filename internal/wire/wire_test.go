package wire

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"rental-booking/internal/data/entity"
	"rental-booking/internal/data/repository"
	"rental-booking/internal/payment"
	"rental-booking/pkg/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type stubSessions map[uuid.UUID]*entity.Session

func (s stubSessions) FindValidSession(_ context.Context, token uuid.UUID) (*entity.Session, error) {
	return s[token], nil
}

func newTestApp(sessions stubSessions) *App {
	repo := &repository.Repository{Session: sessions}
	return Wiring(repo, payment.NewSandbox(true), nil, &utils.Config{}, zap.NewNop())
}

func session(role string) (uuid.UUID, *entity.Session) {
	token := uuid.New()
	return token, &entity.Session{
		UserID:    uuid.New(),
		Role:      role,
		Token:     token,
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

func TestHealth(t *testing.T) {
	app := newTestApp(stubSessions{})

	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())

	rec = httptest.NewRecorder()
	app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/nowhere", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Route not found")
}

func TestProtectedRoutesNeedSession(t *testing.T) {
	app := newTestApp(stubSessions{})

	tests := []struct {
		name   string
		header string
	}{
		{"missing", ""},
		{"wrong scheme", "Basic abc"},
		{"not a token", "Bearer abc"},
		{"unknown session", "Bearer " + uuid.NewString()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/user/bookings", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			app.Router.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestAdminRoutesNeedAdminRole(t *testing.T) {
	customerToken, customer := session("customer")
	adminToken, admin := session(utils.RoleAdmin)
	app := newTestApp(stubSessions{customerToken: customer, adminToken: admin})

	req := httptest.NewRequest(http.MethodPost, "/api/admin/bookings/"+uuid.NewString()+"/refund", nil)
	req.Header.Set("Authorization", "Bearer "+customerToken.String())
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// An admin gets through to the handler, which rejects the malformed id.
	req = httptest.NewRequest(http.MethodPost, "/api/admin/bookings/not-a-uuid/refund", nil)
	req.Header.Set("Authorization", "bearer "+adminToken.String())
	rec = httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	app := newTestApp(stubSessions{})

	req := httptest.NewRequest(http.MethodOptions, "/api/units/x/availability", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")
}
