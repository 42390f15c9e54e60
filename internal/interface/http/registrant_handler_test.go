package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/member-registry/internal/application"
	"github.com/oksasatya/member-registry/internal/domain/entity"
	"github.com/oksasatya/member-registry/internal/domain/membership"
	"github.com/oksasatya/member-registry/internal/interface/middleware"
	"github.com/oksasatya/member-registry/internal/testutil/memstore"
	"github.com/oksasatya/member-registry/pkg/validation"
)

const apiKey = "test-key"

var ist = time.FixedZone("IST", 5*3600+1800)

type envelope struct {
	Status  int             `json:"status"`
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Meta    map[string]any  `json:"meta"`
	Error   any             `json:"error"`
}

type server struct {
	engine *gin.Engine
	repo   *memstore.Registrants
	svc    *application.RegistrantService
}

func newServer(t *testing.T) *server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validation.Init()

	repo := memstore.New(ist)
	clock := time.Date(2024, 3, 1, 10, 0, 0, 0, ist)
	calc := membership.NewCalculator(membership.DefaultRules(), membership.NewDates(func() time.Time { return clock }, ist))
	svc := application.NewRegistrantService(repo, calc, nil)
	h := NewRegistrantHandler(svc, nil)

	r := gin.New()
	r.Use(middleware.RequestID())
	api := r.Group("/api")
	api.GET("/health", h.Health)

	rec := api.Group("/records", middleware.StoreAvailable(repo, time.Second, nil))
	gate := middleware.WriteGate(middleware.GateConfig{APIKey: apiKey})
	rec.POST("", gate, h.Create)
	rec.GET("", h.List)
	rec.GET("/filters", h.FilterOptions)
	rec.GET("/renewals-due", h.RenewalsDue)
	rec.GET("/search", h.Search)
	rec.GET("/check-id/:regNo", h.Exists)
	rec.GET("/:id", h.GetByID)
	rec.PUT("/:regNo", gate, h.Update)
	rec.POST("/:regNo/photo", gate, h.UploadPhoto)
	rec.PATCH("/:regNo/delete", gate, h.SoftDelete)

	return &server{engine: r, repo: repo, svc: svc}
}

func (s *server) do(t *testing.T, method, path string, body any, headers map[string]string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func authed(extra ...string) map[string]string {
	h := map[string]string{middleware.HeaderAPIKey: apiKey}
	for i := 0; i+1 < len(extra); i += 2 {
		h[extra[i]] = extra[i+1]
	}
	return h
}

func dataMap(t *testing.T, env envelope) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &m))
	return m
}

func TestCreate(t *testing.T) {
	s := newServer(t)

	w, env := s.do(t, http.MethodPost, "/api/records", map[string]any{
		"plan":      "Silver",
		"regDate":   "01/02/2024",
		"name":      "Asha",
		"amount":    1,
		"isDeleted": true,
	}, authed(middleware.HeaderActor, "desk-1"))

	require.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, env.Success)
	d := dataMap(t, env)
	assert.Equal(t, "silver", d["plan"])
	assert.Equal(t, "2024-02-01", d["regDate"])
	assert.Equal(t, "2024-05-31", d["expiryDate"])
	assert.EqualValues(t, 1770, d["amount"])
	assert.EqualValues(t, 120, d["validDays"])
	assert.Equal(t, "active", d["status"])
	assert.Equal(t, false, d["isDeleted"])
	assert.Equal(t, "desk-1", d["createdBy"])
	assert.Equal(t, "Asha", d["name"])
}

func TestCreate_Errors(t *testing.T) {
	s := newServer(t)
	_, _ = s.do(t, http.MethodPost, "/api/records", map[string]any{"regNo": "REG1", "plan": "gold"}, authed())

	tests := []struct {
		name    string
		body    any
		headers map[string]string
		want    int
	}{
		{"no credentials", map[string]any{"plan": "gold"}, nil, http.StatusUnauthorized},
		{"wrong key", map[string]any{"plan": "gold"}, map[string]string{middleware.HeaderAPIKey: "nope"}, http.StatusUnauthorized},
		{"no recognized fields", map[string]any{"bogus": 1}, authed(), http.StatusBadRequest},
		{"duplicate regNo", map[string]any{"regNo": "REG1", "plan": "entry"}, authed(), http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := s.do(t, http.MethodPost, "/api/records", tt.body, tt.headers)
			assert.Equal(t, tt.want, w.Code)
			assert.False(t, env.Success)
		})
	}
}

func TestList(t *testing.T) {
	s := newServer(t)
	for i := 0; i < 3; i++ {
		s.repo.Put(map[string]any{entity.ColExpiryDate: time.Date(2024, 1, 1, 0, 0, 0, 0, ist), entity.ColStatus: "active"})
	}

	w, env := s.do(t, http.MethodGet, "/api/records?page=2&limit=2&city=Pune&status=expired", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var d listData
	require.NoError(t, json.Unmarshal(env.Data, &d))
	assert.EqualValues(t, 3, d.Total)
	assert.Equal(t, 2, d.Page)
	assert.Equal(t, 2, d.Limit)
	assert.Equal(t, 2, d.TotalPages)
	require.Len(t, d.Items, 1)
	assert.Equal(t, "expired", d.Items[0]["status"])

	v, ok := s.repo.LastFilter.Equals.Value("city")
	assert.True(t, ok)
	assert.Equal(t, "Pune", v)
	assert.Equal(t, "expired", s.repo.LastFilter.Status)
}

func TestList_BadQuery(t *testing.T) {
	s := newServer(t)
	for _, q := range []string{"page=-2", "page=abc", "status=pending", "limit=-1"} {
		w, _ := s.do(t, http.MethodGet, "/api/records?"+q, nil, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
	}
}

func TestGetByID(t *testing.T) {
	s := newServer(t)
	id := s.repo.Put(map[string]any{entity.ColRegNo: "REG9", "name": "Ravi"})
	gone := s.repo.Put(map[string]any{entity.ColIsDeleted: true})

	w, env := s.do(t, http.MethodGet, "/api/records/1", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, id, dataMap(t, env)["id"])

	w, _ = s.do(t, http.MethodGet, "/api/records/abc", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(t, http.MethodGet, "/api/records/"+strconv.FormatInt(gone, 10), nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = s.do(t, http.MethodGet, "/api/records/999", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExists(t *testing.T) {
	s := newServer(t)
	s.repo.Put(map[string]any{entity.ColRegNo: "REG1"})
	s.repo.Put(map[string]any{entity.ColRegNo: "REG2", entity.ColIsDeleted: true})

	for regNo, want := range map[string]bool{"REG1": true, "REG2": false, "REG3": false} {
		w, env := s.do(t, http.MethodGet, "/api/records/check-id/"+regNo, nil, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, want, dataMap(t, env)["exists"], regNo)
	}
}

func TestUpdate_RecomputesFromStoredPlan(t *testing.T) {
	s := newServer(t)
	_, _ = s.do(t, http.MethodPost, "/api/records", map[string]any{"regNo": "REG7", "plan": "gold", "regDate": "2024-01-01"}, authed())

	w, env := s.do(t, http.MethodPut, "/api/records/REG7", map[string]any{"regDate": "2024-02-01", "createdBy": "x"}, authed())
	require.Equal(t, http.StatusOK, w.Code)
	d := dataMap(t, env)
	assert.Equal(t, "gold", d["plan"])
	assert.Equal(t, "2024-07-30", d["expiryDate"])
	assert.Equal(t, "api", d["modifiedBy"])
	assert.Equal(t, "api", d["createdBy"])

	w, _ = s.do(t, http.MethodPut, "/api/records/REG8", map[string]any{"name": "x"}, authed())
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = s.do(t, http.MethodPut, "/api/records/REG7", map[string]any{"regNo": "REG9"}, authed())
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSoftDelete(t *testing.T) {
	s := newServer(t)
	id := s.repo.Put(map[string]any{entity.ColRegNo: "REG1"})

	w, _ := s.do(t, http.MethodPatch, "/api/records/REG1/delete", map[string]any{"deletedBy": "admin"}, authed())
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, s.repo.Rows[id][entity.ColIsDeleted])
	assert.Equal(t, "admin", s.repo.Rows[id][entity.ColDeletedBy])

	w, _ = s.do(t, http.MethodPatch, "/api/records/REG1/delete", nil, authed())
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = s.do(t, http.MethodPatch, "/api/records/NOPE/delete", nil, authed())
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSoftDelete_DefaultsToActor(t *testing.T) {
	s := newServer(t)
	id := s.repo.Put(map[string]any{entity.ColRegNo: "REG1"})

	w, _ := s.do(t, http.MethodPatch, "/api/records/REG1/delete", nil, authed(middleware.HeaderActor, "clerk"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "clerk", s.repo.Rows[id][entity.ColDeletedBy])
}

func TestRenewalsDue(t *testing.T) {
	s := newServer(t)
	s.repo.Put(map[string]any{entity.ColExpiryDate: time.Date(2024, 3, 5, 0, 0, 0, 0, ist)})
	s.repo.Put(map[string]any{entity.ColExpiryDate: time.Date(2024, 3, 20, 0, 0, 0, 0, ist)})

	w, env := s.do(t, http.MethodGet, "/api/records/renewals-due", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var items []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &items))
	require.Len(t, items, 1)
	assert.EqualValues(t, 4, items[0]["daysLeft"])
	assert.EqualValues(t, 10, env.Meta["days"])

	w, env = s.do(t, http.MethodGet, "/api/records/renewals-due?days=30", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &items))
	assert.Len(t, items, 2)

	w, _ = s.do(t, http.MethodGet, "/api/records/renewals-due?days=-1", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFilterOptions(t *testing.T) {
	s := newServer(t)
	s.repo.Put(map[string]any{"city": "Pune", entity.ColPlan: "gold"})
	s.repo.Put(map[string]any{"city": "Agra"})

	w, env := s.do(t, http.MethodGet, "/api/records/filters", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	d := dataMap(t, env)
	assert.Equal(t, []any{"Agra", "Pune"}, d["city"])
	assert.Equal(t, []any{"gold"}, d["plan"])
	assert.Equal(t, []any{}, d["religion"])
}

func TestSearch_WithoutIndex(t *testing.T) {
	s := newServer(t)

	w, _ := s.do(t, http.MethodGet, "/api/records/search", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env := s.do(t, http.MethodGet, "/api/records/search?q=asha", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, string(env.Data))
}

func TestUploadPhoto_NotConfigured(t *testing.T) {
	s := newServer(t)
	s.repo.Put(map[string]any{entity.ColRegNo: "REG1"})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("photo", "me.png")
	require.NoError(t, err)
	_, _ = part.Write([]byte("png"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/records/REG1/photo", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set(middleware.HeaderAPIKey, apiKey)
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestStoreUnavailable(t *testing.T) {
	s := newServer(t)
	s.repo.PingErr = errors.New("dial tcp: connection refused")

	for _, path := range []string{"/api/records", "/api/records/filters", "/api/records/1", "/api/records/check-id/REG1"} {
		w, env := s.do(t, http.MethodGet, path, nil, nil)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code, path)
		assert.False(t, env.Success)
	}
	w, _ := s.do(t, http.MethodPost, "/api/records", map[string]any{"plan": "gold"}, authed())
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w, _ = s.do(t, http.MethodGet, "/api/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
