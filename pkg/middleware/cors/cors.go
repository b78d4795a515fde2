package cors

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// Options configures the CORS middleware. An empty AllowedOrigins list allows any origin.
type Options struct {
	AllowedOrigins []string
	ExposedHeaders []string
	MaxAgeSeconds  int
}

// DefaultExposedHeaders are the response headers browsers may read.
var DefaultExposedHeaders = []string{"X-Request-ID", "X-Cache", "X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"}

// New returns a CORS middleware for the given origins.
func New(allowedOrigins []string) gin.HandlerFunc {
	return WithOptions(Options{AllowedOrigins: allowedOrigins})
}

// WithOptions returns a CORS middleware. Preflight requests end with 204.
func WithOptions(opts Options) gin.HandlerFunc {
	allowAll := len(opts.AllowedOrigins) == 0
	originSet := make(map[string]struct{}, len(opts.AllowedOrigins))
	for _, origin := range opts.AllowedOrigins {
		if origin == "*" {
			allowAll = true
			continue
		}
		originSet[strings.TrimRight(origin, "/")] = struct{}{}
	}
	exposed := opts.ExposedHeaders
	if len(exposed) == 0 {
		exposed = DefaultExposedHeaders
	}
	maxAge := opts.MaxAgeSeconds
	if maxAge <= 0 {
		maxAge = 600
	}
	exposedValue := strings.Join(exposed, ", ")
	maxAgeValue := strconv.Itoa(maxAge)

	return func(c *gin.Context) {
		header := c.Writer.Header()
		header.Add("Vary", "Origin")

		origin := c.GetHeader("Origin")
		if origin != "" {
			if !allowAll {
				if _, ok := originSet[strings.TrimRight(origin, "/")]; !ok {
					if c.Request.Method == http.MethodOptions {
						c.AbortWithStatus(http.StatusForbidden)
						return
					}
					c.Next()
					return
				}
			}
			header.Set("Access-Control-Allow-Origin", origin)
			header.Set("Access-Control-Allow-Credentials", "true")
			header.Set("Access-Control-Expose-Headers", exposedValue)
		}

		if c.Request.Method == http.MethodOptions {
			header.Set("Access-Control-Allow-Headers", "Authorization, Content-Type, Idempotency-Key, X-Requested-With, X-Request-ID")
			header.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			header.Set("Access-Control-Max-Age", maxAgeValue)
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
