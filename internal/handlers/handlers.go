package handlers

import (
	"net/http"

	"github.com/farellandr/hydrovibe/internal/helpers"
	"github.com/farellandr/hydrovibe/internal/middleware"
	"github.com/farellandr/hydrovibe/internal/services"
	"github.com/gin-gonic/gin"
)

func getServices(c *gin.Context) (*services.Services, bool) {
	svc := middleware.GetServices(c)
	if svc == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Services not configured.")
		return nil, false
	}
	return svc, true
}

func respondBindingError(c *gin.Context, svc *services.Services, err error) {
	helpers.RespondWithAppError(c, svc.Logger, helpers.BindingError(err))
}
