package httperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{ErrBusiness("too_soon"), http.StatusBadRequest},
		{ErrNotFound("service_not_found"), http.StatusNotFound},
		{ErrConflict("slot_unavailable"), http.StatusConflict},
		{ErrUnauthorized("invalid_token"), http.StatusUnauthorized},
		{ErrUpstream("payment_gateway_error"), http.StatusBadGateway},
		{fmt.Errorf("create: %w", ErrConflict("slot_unavailable")), http.StatusConflict},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusOf(tt.err), tt.err.Error())
	}
}

func TestFromErrorHidesInternalDetail(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	FromError(c, errors.New("dial tcp 10.0.0.1:5432: connection refused"))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	var body HTTPError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "internal_error", body.Code)
	assert.NotContains(t, w.Body.String(), "10.0.0.1")
}

func TestFromErrorBusiness(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	FromError(c, ErrNotFound("staff_not_found"))

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error_code":"staff_not_found","message":"Staff member not found."}`, w.Body.String())
}

func TestIsExclusionConflict(t *testing.T) {
	err := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23P01"})
	assert.True(t, IsExclusionConflict(err))
	assert.False(t, IsExclusionConflict(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsExclusionConflict(errors.New("23P01")))
}

func TestIsBusiness(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", ErrBusiness("too_soon"))
	assert.True(t, IsBusiness(err, "too_soon"))
	assert.False(t, IsBusiness(err, "other"))
	assert.True(t, IsKind(err, KindInvalid))
}
