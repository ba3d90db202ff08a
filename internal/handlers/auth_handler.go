package handlers

import (
	"net/http"

	"github.com/farellandr/hydrovibe/internal/helpers"
	"github.com/gin-gonic/gin"
)

type SendOTPRequest struct {
	Mobile string `json:"mobile" binding:"required"`
}

type VerifyOTPRequest struct {
	Mobile string `json:"mobile" binding:"required"`
	OTP    string `json:"otp" binding:"required,len=6,numeric"`
}

type TokenRequest struct {
	Token string `json:"token" binding:"required"`
}

type RefreshRequest struct {
	Refresh string `json:"refresh" binding:"required"`
}

func SendOTP(c *gin.Context) {
	svc, ok := getServices(c)
	if !ok {
		return
	}

	var req SendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, svc, err)
		return
	}

	result, err := svc.OTP.Request(c.Request.Context(), req.Mobile)
	if err != nil {
		helpers.RespondWithAppError(c, svc.Logger, err)
		return
	}

	status := http.StatusOK
	if result.UserCreated {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{
		"message":      "OTP sent successfully.",
		"user_created": result.UserCreated,
		"expires_at":   result.ExpiresAt,
	})
}

func VerifyOTP(c *gin.Context) {
	svc, ok := getServices(c)
	if !ok {
		return
	}

	var req VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, svc, err)
		return
	}

	result, err := svc.OTP.Verify(c.Request.Context(), req.Mobile, req.OTP)
	if err != nil {
		helpers.RespondWithAppError(c, svc.Logger, err)
		return
	}

	response := gin.H{
		"message": "OTP verified successfully.",
		"access":  result.Tokens.AccessToken,
		"refresh": result.Tokens.RefreshToken,
		"user": gin.H{
			"id":     result.UserID,
			"mobile": result.Mobile,
		},
	}
	if result.Ticket != "" {
		response["ticket"] = result.Ticket
	}
	c.JSON(http.StatusOK, response)
}

func VerifyToken(c *gin.Context) {
	svc, ok := getServices(c)
	if !ok {
		return
	}

	var req TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, svc, err)
		return
	}

	claims, err := svc.Tokens.Verify(c.Request.Context(), req.Token)
	if err != nil {
		helpers.RespondWithAppError(c, svc.Logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"valid":      true,
		"token_type": claims.TokenType,
		"user_id":    claims.Subject,
		"expires_at": claims.ExpiresAt.Time,
	})
}

func RefreshToken(c *gin.Context) {
	svc, ok := getServices(c)
	if !ok {
		return
	}

	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, svc, err)
		return
	}

	access, err := svc.Tokens.Refresh(c.Request.Context(), req.Refresh)
	if err != nil {
		helpers.RespondWithAppError(c, svc.Logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"access": access})
}

func Logout(c *gin.Context) {
	svc, ok := getServices(c)
	if !ok {
		return
	}

	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, svc, err)
		return
	}

	if err := svc.Tokens.Invalidate(c.Request.Context(), req.Refresh); err != nil {
		helpers.RespondWithAppError(c, svc.Logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully."})
}
