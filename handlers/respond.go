package handlers

import (
	"net/http"

	"logistiko-backend/service"

	"github.com/gin-gonic/gin"
)

// fail writes the error envelope shared by every endpoint
func fail(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// ok writes the success envelope
func ok(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

// failFromService maps service errors to responses. Validation errors become
// 400 with the field name; everything else is a 500 with a generic message so
// internals never leak to the client.
func failFromService(c *gin.Context, err error) {
	if vErr, isValidation := service.AsValidation(err); isValidation {
		fail(c, http.StatusBadRequest, "VALIDATION_FAILED", vErr.Error())
		return
	}
	fail(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Something went wrong")
}
