package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shareloop/service-booking/internal/application"
	bookingDomain "github.com/shareloop/service-booking/internal/domain/booking"
	"github.com/shareloop/service-booking/internal/repository/memory"
	"github.com/shareloop/service-booking/pkg/auth"
	"github.com/shareloop/service-booking/pkg/response"
	"github.com/shareloop/service-booking/pkg/validation"
)

type testAPI struct {
	router *gin.Engine
	jwt    *auth.JWTManager
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	bookings := memory.NewBookingRepository()
	items := memory.NewItemRepository()
	users := memory.NewUserRepository()
	v := validation.New()
	log := zap.NewNop()

	bookingSvc := application.NewBookingService(bookings, items, users, bookingDomain.NewDailyRatePricingStrategy(), v, nil, log)
	itemSvc := application.NewItemService(items, bookings, users, v, nil, log)
	jwt := auth.NewJWTManager("test-secret", time.Hour, 24*time.Hour)

	r := gin.New()
	NewBookingHandler(bookingSvc).RegisterRoutes(&r.RouterGroup, jwt)
	NewAdminBookingHandler(bookingSvc).RegisterRoutes(&r.RouterGroup, jwt)
	NewItemHandler(itemSvc).RegisterRoutes(&r.RouterGroup, jwt)
	return &testAPI{router: r, jwt: jwt}
}

func (a *testAPI) token(t *testing.T, id uuid.UUID, role auth.Role) string {
	t.Helper()
	tok, err := a.jwt.GenerateAccessToken(id, "someone@example.com", role)
	require.NoError(t, err)
	return tok
}

func (a *testAPI) do(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, response.Envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var env response.Envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

// decode re-reads the envelope data into v.
func decode(t *testing.T, env response.Envelope, v interface{}) {
	t.Helper()
	raw, err := json.Marshal(env.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, v))
}

func TestBookingLifecycleOverHTTP(t *testing.T) {
	api := newTestAPI(t)
	ownerID, borrowerID := uuid.New(), uuid.New()
	ownerTok := api.token(t, ownerID, auth.RoleUser)
	borrowerTok := api.token(t, borrowerID, auth.RoleUser)

	w, env := api.do(t, http.MethodPost, "/api/v1/items", ownerTok, map[string]interface{}{
		"title": "Pressure washer", "daily_rate_cents": 1500,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var item application.ItemDTO
	decode(t, env, &item)

	start := time.Now().UTC().AddDate(0, 0, 2)
	w, env = api.do(t, http.MethodPost, "/api/v1/bookings", borrowerTok, map[string]interface{}{
		"item_id":    item.ID,
		"start_date": start,
		"end_date":   start.AddDate(0, 0, 3),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var booking application.BookingDTO
	decode(t, env, &booking)
	assert.Equal(t, "pending", booking.Status)
	assert.Equal(t, int64(4500), booking.TotalPriceCents)

	path := "/api/v1/bookings/" + booking.ID.String()

	w, env = api.do(t, http.MethodPost, path+"/approve", borrowerTok, map[string]bool{"approve": true})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, bookingDomain.MsgOnlyOwnerDecides, env.Error)

	w, _ = api.do(t, http.MethodPost, path+"/approve", ownerTok, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = api.do(t, http.MethodPost, path+"/approve", ownerTok, map[string]bool{"approve": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, env, &booking)
	assert.Equal(t, "approved", booking.Status)

	w, env = api.do(t, http.MethodGet, "/api/v1/items/"+item.ID.String(), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, env, &item)
	assert.False(t, item.IsAvailable)

	w, env = api.do(t, http.MethodPost, path+"/approve", ownerTok, map[string]bool{"approve": false})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "INVALID_STATE", env.Code)

	w, env = api.do(t, http.MethodPost, path+"/complete", ownerTok, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, env, &booking)
	assert.Equal(t, "completed", booking.Status)
	assert.Equal(t, booking.CompletedAt, booking.ActualReturnDate)

	w, env = api.do(t, http.MethodGet, "/api/v1/items/"+item.ID.String(), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, env, &item)
	assert.True(t, item.IsAvailable)

	w, _ = api.do(t, http.MethodDelete, "/api/v1/items/"+item.ID.String(), ownerTok, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCreateBooking_FieldErrors(t *testing.T) {
	api := newTestAPI(t)
	tok := api.token(t, uuid.New(), auth.RoleUser)
	start := time.Now().UTC().AddDate(0, 0, -2)

	w, env := api.do(t, http.MethodPost, "/api/v1/bookings", tok, map[string]interface{}{
		"item_id":    uuid.New(),
		"start_date": start,
		"end_date":   start.Add(-time.Hour),
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, []string{"must not be in the past"}, env.Fields["start_date"])
	assert.Equal(t, []string{"must be after start_date"}, env.Fields["end_date"])

	w, env = api.do(t, http.MethodPost, "/api/v1/bookings", tok, map[string]interface{}{
		"item_id":    uuid.New(),
		"start_date": time.Now().UTC().AddDate(0, 0, 1),
		"end_date":   time.Now().UTC().AddDate(0, 0, 2),
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, []string{application.MsgItemNotFound}, env.Fields["item_id"])

	w, _ = api.do(t, http.MethodPost, "/api/v1/bookings", "", map[string]interface{}{})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBookingRoutes_BadIDsAndVisibility(t *testing.T) {
	api := newTestAPI(t)
	tok := api.token(t, uuid.New(), auth.RoleUser)

	w, _ := api.do(t, http.MethodGet, "/api/v1/bookings/not-a-uuid", tok, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env := api.do(t, http.MethodGet, "/api/v1/bookings/"+uuid.NewString(), tok, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "booking not found", env.Error)

	w, env = api.do(t, http.MethodGet, "/api/v1/bookings?as=owner", tok, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, env.Meta)
	assert.Zero(t, env.Meta.Total)

	w, _ = api.do(t, http.MethodGet, "/api/v1/bookings?as=lender", tok, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminRoutes(t *testing.T) {
	api := newTestAPI(t)

	w, _ := api.do(t, http.MethodGet, "/api/v1/admin/bookings/stats", api.token(t, uuid.New(), auth.RoleUser), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	adminTok := api.token(t, uuid.New(), auth.RoleAdmin)
	w, env := api.do(t, http.MethodGet, "/api/v1/admin/bookings/stats", adminTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats application.BookingStatsDTO
	decode(t, env, &stats)
	assert.Zero(t, stats.TotalBookings)
	assert.Contains(t, stats.ByStatus, "expired")

	w, env = api.do(t, http.MethodGet, "/api/v1/admin/bookings?page=1&limit=5", adminTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5, env.Meta.Limit)
}

func TestItemRoutes(t *testing.T) {
	api := newTestAPI(t)
	ownerTok := api.token(t, uuid.New(), auth.RoleUser)

	w, env := api.do(t, http.MethodPost, "/api/v1/items", ownerTok, map[string]interface{}{"title": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, env.Fields, "title")

	w, env = api.do(t, http.MethodPost, "/api/v1/items", ownerTok, map[string]interface{}{"title": "Kayak"})
	require.Equal(t, http.StatusCreated, w.Code)
	var item application.ItemDTO
	decode(t, env, &item)

	w, _ = api.do(t, http.MethodPut, "/api/v1/items/"+item.ID.String(), api.token(t, uuid.New(), auth.RoleUser), map[string]string{"title": "Mine"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, env = api.do(t, http.MethodPut, "/api/v1/items/"+item.ID.String(), ownerTok, map[string]string{"category": "water"})
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, env, &item)
	assert.Equal(t, "water", item.Category)

	w, env = api.do(t, http.MethodGet, "/api/v1/items/mine", ownerTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(1), env.Meta.Total)

	w, env = api.do(t, http.MethodGet, "/api/v1/items?available=true", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(1), env.Meta.Total)

	w, _ = api.do(t, http.MethodDelete, "/api/v1/items/"+item.ID.String(), ownerTok, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}
