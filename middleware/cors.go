package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CORS sets the permissive cross-origin headers every response carries and
// answers pre-flight requests with an empty 200. Other responses are marked
// as JSON up front so error paths keep the same content type.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}

		c.Header("Content-Type", "application/json")
		c.Next()
	}
}
