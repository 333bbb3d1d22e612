package utils

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

func Success(c *gin.Context, data gin.H) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
	})
}

func Error(c *gin.Context, code int, msg string) {
	c.JSON(code, gin.H{
		"success": false,
		"error":   msg,
	})
}

// ErrorWithKind adds a machine-readable error kind next to the message.
func ErrorWithKind(c *gin.Context, code int, kind, msg string) {
	c.JSON(code, gin.H{
		"success": false,
		"error":   msg,
		"kind":    kind,
	})
}

// Attachment sends data as a file download.
func Attachment(c *gin.Context, contentType, filename string, data []byte) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, data)
}
