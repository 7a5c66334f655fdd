package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const allowHeaders = "authorization, x-client-info, apikey, content-type"

// CORS allows browser clients from any origin and answers preflight requests.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Headers", allowHeaders)

		if c.Request.Method == http.MethodOptions {
			c.String(http.StatusOK, "ok")
			c.Abort()
			return
		}
		c.Next()
	}
}
