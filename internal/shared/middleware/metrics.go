package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// RequestObserver nhận số liệu của mỗi request (pkg/metrics.Metrics)
type RequestObserver interface {
	ObserveHTTPRequest(method, path, status string, seconds float64)
}

// Metrics ghi counter + histogram theo route template, không theo raw path
func Metrics(observer RequestObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		observer.ObserveHTTPRequest(
			c.Request.Method,
			path,
			strconv.Itoa(c.Writer.Status()),
			time.Since(start).Seconds(),
		)
	}
}
