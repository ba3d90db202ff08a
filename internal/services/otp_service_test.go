package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/farellandr/hydrovibe/internal/helpers"
	"github.com/farellandr/hydrovibe/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCode(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := GenerateCode()
		require.NoError(t, err)
		require.Len(t, code, 6)
		assert.GreaterOrEqual(t, code, "100000")
		assert.LessOrEqual(t, code, "999999")
	}
}

func TestOTPRequestCreatesUserOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.otp.Request(ctx, "+919876543210")
	require.NoError(t, err)
	assert.True(t, first.UserCreated)
	assert.Equal(t, "9876543210", first.Mobile)
	assert.Equal(t, testNow.Add(10*time.Minute), first.ExpiresAt)

	second, err := env.otp.Request(ctx, "9876543210")
	require.NoError(t, err)
	assert.False(t, second.UserCreated)

	var users int64
	env.db.Model(&models.User{}).Count(&users)
	assert.Equal(t, int64(1), users)

	var active int64
	env.db.Model(&models.OTP{}).Where("active = ?", true).Count(&active)
	assert.Equal(t, int64(1), active, "a new code supersedes the previous one")

	require.Len(t, env.sms.messages, 2)
	assert.Equal(t, "+919876543210", env.sms.messages[1].To)
	assert.Contains(t, env.sms.messages[1].Body, "Your Hydrovibe code is ")
}

func TestOTPRequestRejectsInvalidMobile(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.otp.Request(context.Background(), "98765")
	require.Error(t, err)
	assert.Equal(t, helpers.KindValidation, helpers.KindOf(err))
	assert.Empty(t, env.sms.messages)
}

func TestOTPRequestSMSFailureKeepsCode(t *testing.T) {
	env := newTestEnv(t)
	env.sms.err = errors.New("twilio down")

	result, err := env.otp.Request(context.Background(), "9876543210")
	require.Error(t, err)
	assert.Equal(t, helpers.KindSmsDelivery, helpers.KindOf(err))
	require.NotNil(t, result)

	_, err = env.otp.Verify(context.Background(), "9876543210", env.sms.lastCode(t))
	assert.NoError(t, err)
}

func TestOTPVerifyHappyPath(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.otp.Request(ctx, "9876543210")
	require.NoError(t, err)

	result, err := env.otp.Verify(ctx, "919876543210", env.sms.lastCode(t))
	require.NoError(t, err)
	require.NotNil(t, result.Tokens)
	assert.NotEmpty(t, result.Tokens.AccessToken)
	assert.NotEmpty(t, result.Tokens.RefreshToken)
	assert.Empty(t, result.Ticket)

	claims, err := env.tokens.VerifyAccess(ctx, result.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, result.UserID.String(), claims.Subject)

	var otp models.OTP
	require.NoError(t, env.db.First(&otp).Error)
	assert.False(t, otp.Active)
}

func TestOTPVerifyReplayFails(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.otp.Request(ctx, "9876543210")
	require.NoError(t, err)
	code := env.sms.lastCode(t)

	_, err = env.otp.Verify(ctx, "9876543210", code)
	require.NoError(t, err)

	_, err = env.otp.Verify(ctx, "9876543210", code)
	assert.Equal(t, helpers.KindNoActiveOtp, helpers.KindOf(err))
}

func TestOTPVerifyWrongCodeKeepsOTPActive(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.otp.Request(ctx, "9876543210")
	require.NoError(t, err)
	code := env.sms.lastCode(t)

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	_, err = env.otp.Verify(ctx, "9876543210", wrong)
	assert.Equal(t, helpers.KindInvalidOtp, helpers.KindOf(err))

	_, err = env.otp.Verify(ctx, "9876543210", code)
	assert.NoError(t, err)
}

func TestOTPVerifyExpiredStaysActive(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.otp.Request(ctx, "9876543210")
	require.NoError(t, err)
	code := env.sms.lastCode(t)

	env.otp.now = func() time.Time { return testNow.Add(11 * time.Minute) }
	_, err = env.otp.Verify(ctx, "9876543210", code)
	assert.Equal(t, helpers.KindOtpExpired, helpers.KindOf(err))

	var otp models.OTP
	require.NoError(t, env.db.First(&otp).Error)
	assert.True(t, otp.Active)
}

func TestOTPVerifyUnknownUser(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.otp.Verify(context.Background(), "9876543210", "123456")
	assert.Equal(t, helpers.KindNotFound, helpers.KindOf(err))
}

func TestOTPVerifyWithoutActiveOTP(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "9876543210")

	_, err := env.otp.Verify(context.Background(), "9876543210", "123456")
	assert.Equal(t, helpers.KindNoActiveOtp, helpers.KindOf(err))
}

func TestOTPVerifyConcurrentSingleWinner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.otp.Request(ctx, "9876543210")
	require.NoError(t, err)
	code := env.sms.lastCode(t)

	const attempts = 4
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.otp.Verify(ctx, "9876543210", code)
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
			continue
		}
		assert.Equal(t, helpers.KindNoActiveOtp, helpers.KindOf(err))
	}
	assert.Equal(t, 1, successes)
}

func TestOTPVerifyReturnsTicketForPaidBooking(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := env.createUser(t, "9876543210")
	event, ticketType := env.createEvent(t, 500, 10)
	paidAt := testNow
	require.NoError(t, env.db.Create(&models.Booking{
		UserID:             user.ID,
		EventID:            event.ID,
		TicketTypeID:       ticketType.ID,
		Quantity:           1,
		AttendingTime:      models.AttendingEvening,
		PaymentReference:   "ref-paid",
		PaymentAmount:      500,
		PaymentLink:        "https://pay.example.com/x",
		PaymentCompleted:   true,
		PaymentCompletedAt: &paidAt,
	}).Error)

	_, err := env.otp.Request(ctx, "9876543210")
	require.NoError(t, err)

	result, err := env.otp.Verify(ctx, "9876543210", env.sms.lastCode(t))
	require.NoError(t, err)
	assert.NotEmpty(t, result.Ticket)
}
