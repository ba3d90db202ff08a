package helpers

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

func StringToInt(s string) (int, error) {
	return strconv.Atoi(s)
}

// Pagination reads page and limit query parameters, falling back to the
// defaults on missing or malformed values.
func Pagination(c *gin.Context, defaultLimit, maxLimit int) (page, limit int) {
	page, err := StringToInt(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err = StringToInt(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))
	if err != nil || limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}
