package handlers

import (
	"net/http"

	"github.com/farellandr/hydrovibe/internal/helpers"
	"github.com/gin-gonic/gin"
)

func GetLatestEvent(c *gin.Context) {
	svc, ok := getServices(c)
	if !ok {
		return
	}

	event, err := svc.Events.LatestEvent(c.Request.Context())
	if err != nil {
		helpers.RespondWithAppError(c, svc.Logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"event": event})
}
