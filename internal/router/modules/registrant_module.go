package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/member-registry/internal/interface/http"
)

// RegistrantModule wires the registrant routes under /api:
//
//	GET    /health                   liveness, not gated
//	POST   /records                  write
//	GET    /records                  list
//	GET    /records/filters          filter options
//	GET    /records/renewals-due     renewals report
//	GET    /records/search           full-text search
//	GET    /records/check-id/:regNo  existence
//	GET    /records/:id              fetch one
//	PUT    /records/:regNo           write
//	POST   /records/:regNo/photo     write
//	PATCH  /records/:regNo/delete    write
//
// Every /records route runs StoreCheck first; write routes then run Write.
type RegistrantModule struct {
	Handler    *handlers.RegistrantHandler
	StoreCheck gin.HandlerFunc
	Write      []gin.HandlerFunc
}

func NewRegistrantModule(h *handlers.RegistrantHandler, storeCheck gin.HandlerFunc, write ...gin.HandlerFunc) *RegistrantModule {
	return &RegistrantModule{Handler: h, StoreCheck: storeCheck, Write: write}
}

func (m *RegistrantModule) Register(rg *gin.RouterGroup) {
	rg.GET("/health", m.Handler.Health)

	rec := rg.Group("/records")
	if m.StoreCheck != nil {
		rec.Use(m.StoreCheck)
	}
	rec.GET("", m.Handler.List)
	rec.GET("/filters", m.Handler.FilterOptions)
	rec.GET("/renewals-due", m.Handler.RenewalsDue)
	rec.GET("/search", m.Handler.Search)
	rec.GET("/check-id/:regNo", m.Handler.Exists)
	rec.GET("/:id", m.Handler.GetByID)

	w := rec.Group("", m.Write...)
	{
		w.POST("", m.Handler.Create)
		w.PUT("/:regNo", m.Handler.Update)
		w.POST("/:regNo/photo", m.Handler.UploadPhoto)
		w.PATCH("/:regNo/delete", m.Handler.SoftDelete)
	}
}
