package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shareloop/service-booking/pkg/domain"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func runError(t *testing.T, err error) (*httptest.ResponseRecorder, Envelope) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	Error(c, err)

	var env Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return w, env
}

func TestError_MapsDomainCodes(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{domain.NewUnauthorizedError(), http.StatusUnauthorized},
		{domain.NewNotFoundError("Booking", "x"), http.StatusNotFound},
		{domain.NewForbiddenError("nope"), http.StatusForbidden},
		{domain.NewInvalidStateMessage("only pending bookings can be approved or rejected"), http.StatusConflict},
		{domain.NewConflictError("item has bookings"), http.StatusConflict},
		{domain.NewFieldError("item_id", "item not found"), http.StatusBadRequest},
	}

	for _, tc := range cases {
		w, env := runError(t, tc.err)
		assert.Equal(t, tc.status, w.Code, tc.err.Error())
		assert.False(t, env.Success)
	}
}

func TestError_FieldsAreExposed(t *testing.T) {
	_, env := runError(t, domain.NewFieldError("item_id", "item is not available"))

	assert.Equal(t, []string{"item is not available"}, env.Fields["item_id"])
	assert.Equal(t, string(domain.CodeValidation), env.Code)
}

func TestError_HidesInternalErrors(t *testing.T) {
	w, env := runError(t, errors.New("pq: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal server error", env.Error)
}
