package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"micro_marketplace/internal/middleware"
)

var errNoIdentity = errors.New("user not found in context")

// Helper to get authenticated user ID from context
func getAuthUserID(c *gin.Context) (int64, error) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return 0, errNoIdentity
	}
	return user.ID, nil
}

func parseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid " + name})
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, key string) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return v
}
