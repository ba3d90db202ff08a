package helpers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestErrorKindStatus(t *testing.T) {
	cases := map[ErrorKind]int{
		KindValidation:            http.StatusBadRequest,
		KindInsufficientInventory: http.StatusBadRequest,
		KindInvalidOtp:            http.StatusBadRequest,
		KindOtpExpired:            http.StatusBadRequest,
		KindNoActiveOtp:           http.StatusBadRequest,
		KindNotFound:              http.StatusNotFound,
		KindUnauthorized:          http.StatusUnauthorized,
		KindForbidden:             http.StatusForbidden,
		KindPaymentProvider:       http.StatusBadGateway,
		KindSmsDelivery:           http.StatusBadGateway,
		KindUnexpected:            http.StatusInternalServerError,
	}
	for kind, status := range cases {
		assert.Equal(t, status, kind.HTTPStatus(), kind.String())
	}
}

func TestKindOfWrapped(t *testing.T) {
	err := fmt.Errorf("outer: %w", NewError(KindNotFound, "missing"))
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Equal(t, KindUnexpected, KindOf(errors.New("boom")))

	cause := errors.New("cause")
	assert.ErrorIs(t, WrapError(KindPaymentProvider, "failed", cause), cause)
}

func performAppError(err error) (*httptest.ResponseRecorder, ErrorResponse) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	RespondWithAppError(c, zap.NewNop(), err)

	var body ErrorResponse
	json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func TestRespondWithAppError(t *testing.T) {
	w, body := performAppError(ValidationError([]string{"mobile"}, "Invalid fields: mobile"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation_error", body.Code)
	assert.Equal(t, []string{"mobile"}, body.Fields)

	w, body = performAppError(NewError(KindInsufficientInventory, "Only 2 tickets are available."))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Only 2 tickets are available.", body.Message)
}

func TestRespondWithAppErrorHidesUnexpected(t *testing.T) {
	w, body := performAppError(errors.New("pq: connection refused"))
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "unexpected", body.Code)
	assert.NotContains(t, body.Message, "pq")
}
