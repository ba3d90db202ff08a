package services

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/farellandr/hydrovibe/internal/helpers"
	"github.com/farellandr/hydrovibe/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	otpMin     = 100000
	otpSpan    = 900000
	otpSMSBody = "Your Hydrovibe code is %s"
)

type OTPRequestResult struct {
	Mobile      string    `json:"mobile"`
	UserCreated bool      `json:"user_created"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type OTPVerifyResult struct {
	UserID uuid.UUID  `json:"user_id"`
	Mobile string     `json:"mobile"`
	Tokens *TokenPair `json:"tokens"`
	Ticket string     `json:"ticket,omitempty"`
}

type OTPService struct {
	db         *gorm.DB
	sms        SMSSender
	tokens     *TokenService
	renderer   *TicketRenderer
	logger     *zap.Logger
	ttl        time.Duration
	smsTimeout time.Duration
	now        func() time.Time
}

func NewOTPService(db *gorm.DB, sms SMSSender, tokens *TokenService, renderer *TicketRenderer, ttl time.Duration, logger *zap.Logger) *OTPService {
	return &OTPService{
		db:         db,
		sms:        sms,
		tokens:     tokens,
		renderer:   renderer,
		logger:     logger,
		ttl:        ttl,
		smsTimeout: 10 * time.Second,
		now:        time.Now,
	}
}

// GenerateCode returns a uniformly random six digit code.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(otpSpan))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+otpMin), nil
}

func unusablePassword() (string, error) {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(hex.EncodeToString(secret)), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return "!" + string(hash), nil
}

// getOrCreateUser inserts the user unless the mobile is taken, falling back to
// a read on conflict. created reports whether this call inserted it.
func (s *OTPService) getOrCreateUser(ctx context.Context, mobile string) (*models.User, bool, error) {
	var existing models.User
	err := s.db.WithContext(ctx).Where("mobile = ?", mobile).First(&existing).Error
	if err == nil {
		return &existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	password, err := unusablePassword()
	if err != nil {
		return nil, false, err
	}

	user := models.User{
		Mobile:     mobile,
		Password:   password,
		IsActive:   true,
		DateJoined: s.now().UTC(),
	}
	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "mobile"}}, DoNothing: true}).
		Create(&user)
	if result.Error != nil {
		return nil, false, result.Error
	}
	if result.RowsAffected == 1 {
		return &user, true, nil
	}

	if err := s.db.WithContext(ctx).Where("mobile = ?", mobile).First(&existing).Error; err != nil {
		return nil, false, err
	}
	return &existing, false, nil
}

// Request issues a fresh code for mobile, superseding any active one. When the
// SMS cannot be delivered the result is still returned with a SmsDelivery error;
// the code stays valid.
func (s *OTPService) Request(ctx context.Context, mobile string) (*OTPRequestResult, error) {
	canonical, err := helpers.NormalizeMobile(mobile)
	if err != nil {
		return nil, helpers.ValidationError([]string{"mobile"}, err.Error())
	}

	user, created, err := s.getOrCreateUser(ctx, canonical)
	if err != nil {
		return nil, fmt.Errorf("get or create user: %w", err)
	}

	code, err := GenerateCode()
	if err != nil {
		return nil, fmt.Errorf("generate otp: %w", err)
	}

	issuedAt := s.now().UTC()
	otp := models.OTP{
		UserID:    user.ID,
		Code:      code,
		CreatedAt: issuedAt,
		ExpiresAt: issuedAt.Add(s.ttl),
		Active:    true,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.OTP{}).
			Where("user_id = ? AND active = ?", user.ID, true).
			Update("active", false).Error; err != nil {
			return err
		}
		return tx.Create(&otp).Error
	})
	if err != nil {
		return nil, fmt.Errorf("store otp: %w", err)
	}

	result := &OTPRequestResult{
		Mobile:      canonical,
		UserCreated: created,
		ExpiresAt:   otp.ExpiresAt,
	}

	smsCtx, cancel := context.WithTimeout(ctx, s.smsTimeout)
	defer cancel()
	if err := s.sms.Send(smsCtx, helpers.InternationalMobile(canonical), fmt.Sprintf(otpSMSBody, code)); err != nil {
		s.logger.Warn("otp sms delivery failed",
			zap.String("user_id", user.ID.String()),
			zap.Error(err),
		)
		return result, helpers.WrapError(helpers.KindSmsDelivery, "OTP could not be delivered. Please try again.", err)
	}

	s.logger.Info("otp issued",
		zap.String("user_id", user.ID.String()),
		zap.Bool("user_created", created),
	)
	return result, nil
}

// Verify consumes the newest active code for mobile. Only a matching,
// unexpired code is consumed; concurrent verifies of the same code race on
// the active flag and exactly one wins.
func (s *OTPService) Verify(ctx context.Context, mobile, code string) (*OTPVerifyResult, error) {
	canonical, err := helpers.NormalizeMobile(mobile)
	if err != nil {
		return nil, helpers.ValidationError([]string{"mobile"}, err.Error())
	}

	var user models.User
	if err := s.db.WithContext(ctx).Where("mobile = ?", canonical).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, helpers.NewError(helpers.KindNotFound, "User does not exist.")
		}
		return nil, err
	}

	var otp models.OTP
	err = s.db.WithContext(ctx).
		Where("user_id = ? AND active = ?", user.ID, true).
		Order("created_at desc").
		First(&otp).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, helpers.NewError(helpers.KindNoActiveOtp, "No active OTP found. Please request a new one.")
		}
		return nil, err
	}

	if subtle.ConstantTimeCompare([]byte(otp.Code), []byte(code)) != 1 {
		return nil, helpers.NewError(helpers.KindInvalidOtp, "Invalid OTP.")
	}
	if otp.IsExpired(s.now().UTC()) {
		return nil, helpers.NewError(helpers.KindOtpExpired, "OTP has expired. Please request a new one.")
	}

	consumed := s.db.WithContext(ctx).
		Model(&models.OTP{}).
		Where("id = ? AND active = ?", otp.ID, true).
		Update("active", false)
	if consumed.Error != nil {
		return nil, consumed.Error
	}
	if consumed.RowsAffected == 0 {
		return nil, helpers.NewError(helpers.KindNoActiveOtp, "No active OTP found. Please request a new one.")
	}

	tokens, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}

	result := &OTPVerifyResult{
		UserID: user.ID,
		Mobile: user.Mobile,
		Tokens: tokens,
	}

	ticket, err := s.latestTicket(ctx, user.ID)
	if err != nil {
		s.logger.Error("render ticket after login", zap.String("user_id", user.ID.String()), zap.Error(err))
	} else {
		result.Ticket = ticket
	}

	return result, nil
}

func (s *OTPService) latestTicket(ctx context.Context, userID uuid.UUID) (string, error) {
	var booking models.Booking
	err := s.db.WithContext(ctx).
		Preload("User").
		Preload("TicketType").
		Where("user_id = ? AND payment_completed = ?", userID, true).
		Order("payment_completed_at desc").
		First(&booking).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return s.renderer.Render(&booking)
}
