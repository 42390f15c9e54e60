package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/member-registry/pkg/response"
)

// Pinger is anything that can report store reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StoreAvailable pings the store once per request and answers 503 when it is
// unreachable, so every route fails the same way.
func StoreAvailable(p Pinger, timeout time.Duration, logger logrus.FieldLogger) gin.HandlerFunc {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()
		if err := p.Ping(ctx); err != nil {
			if logger != nil {
				logger.WithError(err).WithField("path", c.Request.URL.Path).Warn("store unavailable")
			}
			response.Error[any](c, http.StatusServiceUnavailable, "service unavailable", nil)
			return
		}
		c.Next()
	}
}
