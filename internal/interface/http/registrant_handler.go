package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/member-registry/internal/application"
	"github.com/oksasatya/member-registry/internal/domain/entity"
	"github.com/oksasatya/member-registry/internal/interface/middleware"
	"github.com/oksasatya/member-registry/pkg/response"
	"github.com/oksasatya/member-registry/pkg/validation"
)

const maxPhotoBytes = 5 << 20

type RegistrantHandler struct {
	Svc    *application.RegistrantService
	Logger logrus.FieldLogger
}

func NewRegistrantHandler(svc *application.RegistrantService, logger logrus.FieldLogger) *RegistrantHandler {
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	return &RegistrantHandler{Svc: svc, Logger: logger}
}

type listQuery struct {
	Q      string `form:"q"`
	Status string `form:"status" binding:"omitempty,planstatus"`
	Page   int    `form:"page" binding:"omitempty,page"`
	Limit  int    `form:"limit" binding:"omitempty,min=1"`
}

type renewalsQuery struct {
	Days *int `form:"days" binding:"omitempty,horizon"`
}

type searchQuery struct {
	Q    string `form:"q" binding:"required"`
	Size int    `form:"size" binding:"omitempty,min=1,max=50"`
}

type deleteRequest struct {
	DeletedBy string `json:"deletedBy" binding:"omitempty,actor"`
}

type listData struct {
	Items      []map[string]any `json:"items"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
	TotalPages int              `json:"totalPages"`
}

func (h *RegistrantHandler) Create(c *gin.Context) {
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	rec, err := h.Svc.Create(c.Request.Context(), body, middleware.Actor(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, rec.ToMap(), "registrant created", nil)
}

func (h *RegistrantHandler) List(c *gin.Context) {
	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid query", validation.ToDetails(err))
		return
	}
	filters := make(map[string]any)
	for _, key := range entity.ListFilters.Keys() {
		if v, ok := c.GetQuery(key); ok {
			filters[key] = v
		}
	}
	res, err := h.Svc.List(c.Request.Context(), application.ListQuery{
		Q:       q.Q,
		Status:  q.Status,
		Page:    q.Page,
		Limit:   q.Limit,
		Filters: filters,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	items := make([]map[string]any, 0, len(res.Items))
	for _, r := range res.Items {
		items = append(items, r.ToMap())
	}
	response.Success(c, http.StatusOK, listData{
		Items:      items,
		Total:      res.Total,
		Page:       res.Page,
		Limit:      res.Limit,
		TotalPages: res.TotalPages,
	}, "registrants", nil)
}

func (h *RegistrantHandler) FilterOptions(c *gin.Context) {
	opts, err := h.Svc.FilterOptions(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, opts, "filter options", nil)
}

func (h *RegistrantHandler) RenewalsDue(c *gin.Context) {
	var q renewalsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid query", validation.ToDetails(err))
		return
	}
	days := h.Svc.RenewalHorizon
	if q.Days != nil {
		days = *q.Days
	}
	due, err := h.Svc.RenewalsDue(c.Request.Context(), days)
	if err != nil {
		h.fail(c, err)
		return
	}
	items := make([]map[string]any, 0, len(due))
	for _, r := range due {
		items = append(items, r.ToMap())
	}
	response.Success(c, http.StatusOK, items, "renewals due", gin.H{"days": days, "count": len(items)})
}

func (h *RegistrantHandler) Search(c *gin.Context) {
	var q searchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid query", validation.ToDetails(err))
		return
	}
	hits, err := h.Svc.Search(c.Request.Context(), q.Q, q.Size)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, hits, "search results", gin.H{"count": len(hits)})
}

func (h *RegistrantHandler) Exists(c *gin.Context) {
	ok, err := h.Svc.Exists(c.Request.Context(), c.Param("regNo"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"exists": ok}, "existence check", nil)
}

func (h *RegistrantHandler) GetByID(c *gin.Context) {
	id, err := strconv.ParseInt(strings.TrimSpace(c.Param("id")), 10, 64)
	if err != nil {
		h.fail(c, application.ErrInvalidID)
		return
	}
	rec, err := h.Svc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, rec.ToMap(), "registrant", nil)
}

func (h *RegistrantHandler) Update(c *gin.Context) {
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	rec, err := h.Svc.Update(c.Request.Context(), c.Param("regNo"), body, middleware.Actor(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, rec.ToMap(), "registrant updated", nil)
}

func (h *RegistrantHandler) UploadPhoto(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxPhotoBytes)
	fh, err := c.FormFile("photo")
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", map[string]string{"photo": "is required"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		h.fail(c, err)
		return
	}
	defer f.Close()

	rec, err := h.Svc.UploadPhoto(c.Request.Context(), c.Param("regNo"), f, fh.Filename, fh.Header.Get("Content-Type"), middleware.Actor(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, rec.ToMap(), "photo uploaded", nil)
}

func (h *RegistrantHandler) SoftDelete(c *gin.Context) {
	var req deleteRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
			return
		}
	}
	regNo := c.Param("regNo")
	if err := h.Svc.SoftDelete(c.Request.Context(), regNo, req.DeletedBy, middleware.Actor(c)); err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"regNo": strings.TrimSpace(regNo), "deleted": true}, "registrant deleted", nil)
}

func (h *RegistrantHandler) Health(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{"status": "ok"}, "healthy", nil)
}

// fail maps service errors to HTTP statuses. Unrecognized errors are logged
// and reported without detail.
func (h *RegistrantHandler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, application.ErrValidation):
		response.Error[any](c, http.StatusBadRequest, "validation failed", err.Error())
	case errors.Is(err, application.ErrNoFields), errors.Is(err, application.ErrInvalidID):
		response.Error[any](c, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, application.ErrNotFound):
		response.Error[any](c, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, application.ErrConflict), errors.Is(err, application.ErrAlreadyDeleted):
		response.Error[any](c, http.StatusConflict, err.Error(), nil)
	case errors.Is(err, application.ErrUnavailable):
		h.Logger.WithError(err).WithField("path", c.FullPath()).Warn("dependency unavailable")
		response.Error[any](c, http.StatusServiceUnavailable, "service unavailable", nil)
	default:
		h.Logger.WithError(err).WithFields(logrus.Fields{
			"path":       c.FullPath(),
			"request_id": c.GetString(middleware.CtxRequestIDKey),
		}).Error("request failed")
		response.Error[any](c, http.StatusInternalServerError, "internal server error", nil)
	}
}
