package api

import (
	"net/http"
	"strconv"
	"strings"

	"coursepay-api/internal/response"
	"coursepay-api/internal/services"

	"github.com/gin-gonic/gin"
)

// CheckAccessHandler answers GET /api/access?user_id=&course_id=.
func CheckAccessHandler(access *services.AccessService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := strconv.ParseUint(c.Query("user_id"), 10, 64)
		if err != nil || userID == 0 {
			response.ErrorJSON(c, http.StatusBadRequest, "user_id is required")
			return
		}
		courseID := strings.TrimSpace(c.Query("course_id"))
		if courseID == "" {
			response.ErrorJSON(c, http.StatusBadRequest, "course_id is required")
			return
		}

		result, err := access.CheckAccess(c.Request.Context(), uint(userID), courseID)
		if err != nil {
			response.ErrorJSON(c, http.StatusInternalServerError, "Failed to check access")
			return
		}

		response.SuccessJSON(c, gin.H{
			"user_id":    userID,
			"course_id":  courseID,
			"has_access": result.HasAccess,
			"source":     result.Source,
		})
	}
}
