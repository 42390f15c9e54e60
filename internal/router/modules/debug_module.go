package modules

import (
	"expvar"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DebugModule exposes expvar under /api/debug/vars and Prometheus metrics at
// /metrics.
type DebugModule struct {
	Limiter gin.HandlerFunc
}

func NewDebugModule(limiter gin.HandlerFunc) *DebugModule { return &DebugModule{Limiter: limiter} }

func (m *DebugModule) Register(rg *gin.RouterGroup) {
	rg.GET("/debug/vars", m.chain(gin.WrapH(expvar.Handler()))...)
}

func (m *DebugModule) RegisterRoot(e *gin.Engine) {
	e.GET("/metrics", m.chain(gin.WrapH(promhttp.Handler()))...)
}

func (m *DebugModule) chain(h gin.HandlerFunc) []gin.HandlerFunc {
	if m.Limiter == nil {
		return []gin.HandlerFunc{h}
	}
	return []gin.HandlerFunc{m.Limiter, h}
}
