package helpers

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Mobile string `json:"mobile" binding:"required,mobile"`
	Slot   string `json:"slot" binding:"omitempty,timeformat"`
	Count  int    `json:"count" binding:"required,min=1"`
}

func TestValidateStruct(t *testing.T) {
	v := NewValidator()

	assert.NoError(t, ValidateStruct(v, sampleRequest{Mobile: "+919876543210", Slot: "16:00", Count: 1}))

	err := ValidateStruct(v, sampleRequest{Mobile: "123", Slot: "4pm", Count: 0})
	require.Error(t, err)

	var appErr *AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, KindValidation, appErr.Kind)
	assert.ElementsMatch(t, []string{"mobile", "slot", "count"}, appErr.Fields)
	assert.Contains(t, appErr.Message, "mobile must be a 10-digit Indian mobile number")
}

func TestBindingErrorWithoutFields(t *testing.T) {
	appErr := BindingError(errors.New("unexpected EOF"))
	assert.Equal(t, KindValidation, appErr.Kind)
	assert.Empty(t, appErr.Fields)
}

func TestHMACSigner(t *testing.T) {
	signer := NewHMACSigner("secret")
	signature := signer.Sign("a", "b")

	assert.Len(t, signature, 64)
	assert.True(t, signer.Verify(signature, "a", "b"))
	assert.False(t, signer.Verify(signature, "a", "c"))
	assert.False(t, NewHMACSigner("other").Verify(signature, "a", "b"))
}
