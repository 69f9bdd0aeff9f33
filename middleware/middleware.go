package middleware

import (
	"net/http"
	"time"

	C "retailscope/config"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const headerRequestID = "X-Request-Id"

// RequestIdGenerator attaches a request id to every request and response.
func RequestIdGenerator() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.Request.Header.Get(headerRequestID)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Writer.Header().Set(headerRequestID, requestID)
		c.Next()
	}
}

// Logger logs one structured line per request.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.WithFields(log.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
			"request_id": c.GetString("request_id"),
		}).Info("Request processed.")
	}
}

// Recovery converts panics into a 500 without killing the process.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.WithFields(log.Fields{"panic": r,
					"path": c.Request.URL.Path}).Error("Recovered from panic on request.")
				c.AbortWithStatusJSON(http.StatusInternalServerError,
					gin.H{"error": "Internal server error."})
			}
		}()
		c.Next()
	}
}

// CustomCors allows the local dashboard frontends in development.
func CustomCors() gin.HandlerFunc {
	return func(c *gin.Context) {
		corsConfig := cors.DefaultConfig()
		if C.IsDevelopment() {
			corsConfig.AllowOrigins = []string{"http://localhost:3000", "http://localhost:8080"}
		} else {
			corsConfig.AllowAllOrigins = true
		}
		cors.New(corsConfig)(c)
	}
}
