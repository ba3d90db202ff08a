package handlers

import (
	"net/http"

	"github.com/farellandr/hydrovibe/internal/helpers"
	"github.com/farellandr/hydrovibe/internal/middleware"
	"github.com/gin-gonic/gin"
)

func GetProfile(c *gin.Context) {
	svc, ok := getServices(c)
	if !ok {
		return
	}

	profile, err := svc.Bookings.GetProfile(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		helpers.RespondWithAppError(c, svc.Logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"profile": profile})
}
