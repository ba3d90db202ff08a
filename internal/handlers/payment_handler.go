package handlers

import (
	"net/http"

	"github.com/farellandr/hydrovibe/internal/helpers"
	"github.com/farellandr/hydrovibe/internal/payments"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func firstQuery(c *gin.Context, keys ...string) string {
	for _, key := range keys {
		if value := c.Query(key); value != "" {
			return value
		}
	}
	return ""
}

// PaymentCallback is the provider redirect target. The payer is always sent
// on to the redirect URL; only a failure to reach the provider is reported.
func PaymentCallback(c *gin.Context) {
	svc, ok := getServices(c)
	if !ok {
		return
	}

	providerPaymentID := firstQuery(c, "provider_payment_id", payments.RazorpayPaymentIDParam)
	reference := firstQuery(c, "reference", payments.RazorpayReferenceParam)
	logger := svc.Logger.With(zap.String("reference", reference), zap.String("provider_payment_id", providerPaymentID))

	if reference == "" {
		logger.Warn("payment callback without reference")
		c.Redirect(http.StatusFound, svc.PaymentRedirectURL)
		return
	}

	params := map[string]string{}
	for key := range c.Request.URL.Query() {
		params[key] = c.Query(key)
	}
	if err := svc.Payments.VerifyCallback(params); err != nil {
		logger.Warn("payment callback rejected", zap.Error(err))
		c.Redirect(http.StatusFound, svc.PaymentRedirectURL)
		return
	}

	if _, err := svc.Payments.HandleCallback(c.Request.Context(), providerPaymentID, reference); err != nil {
		helpers.RespondWithAppError(c, svc.Logger, err)
		return
	}

	c.Redirect(http.StatusFound, svc.PaymentRedirectURL)
}

func CheckPaymentStatus(c *gin.Context) {
	svc, ok := getServices(c)
	if !ok {
		return
	}

	reference := c.Query("reference")
	if reference == "" {
		helpers.RespondWithAppError(c, svc.Logger, helpers.ValidationError([]string{"reference"}, "reference is required"))
		return
	}

	status, err := svc.Payments.CheckStatus(c.Request.Context(), reference)
	if err != nil {
		helpers.RespondWithAppError(c, svc.Logger, err)
		return
	}

	c.JSON(http.StatusOK, status)
}
