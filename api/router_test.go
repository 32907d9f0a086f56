package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/shelfprice/config"
	"github.com/use-agent/shelfprice/models"
	"github.com/use-agent/shelfprice/scraper"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type fakeService struct {
	compared int
	active   int
}

func (f *fakeService) Compare(_ context.Context, terms []string) []models.ResultRecord {
	f.compared++
	out := make([]models.ResultRecord, 0, len(terms))
	for _, term := range terms {
		out = append(out, models.ResultRecord{Name: term, Price: "1.00", Store: "ASDA"})
	}
	return out
}

func (f *fakeService) Stats() models.SessionStats { return models.SessionStats{Active: f.active} }
func (f *fakeService) Stores() []string           { return []string{"ASDA"} }
func (f *fakeService) Renderer() string           { return "fake" }
func (f *fakeService) Uptime() time.Duration      { return time.Minute }

func setupTestRouter(t *testing.T, svc Service, mutate ...func(*config.Config)) *gin.Engine {
	t.Helper()
	cfg := config.Load()
	cfg.Server.Mode = gin.TestMode
	cfg.Server.AllowedOrigins = []string{"http://localhost:5173"}
	cfg.RateLimit.RequestsPerSecond = 100
	cfg.RateLimit.Burst = 100
	for _, m := range mutate {
		m(cfg)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return NewRouter(ctx, svc, scraper.NewMetrics().Registry, cfg)
}

func TestRouterScrape(t *testing.T) {
	svc := &fakeService{}
	r := setupTestRouter(t, svc)

	req := httptest.NewRequest(http.MethodPost, "/api/scrape", strings.NewReader(`{"items":[{"name":"milk"}]}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "http://localhost:5173")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"name":"milk","price":"1.00","store":"ASDA"}]`, w.Body.String())
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, 1, svc.compared)
}

func TestRouterRejectsMalformedBeforeScraping(t *testing.T) {
	svc := &fakeService{}
	r := setupTestRouter(t, svc)

	req := httptest.NewRequest(http.MethodPost, "/api/scrape", strings.NewReader(`{"items":"not-an-array"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, svc.compared)
}

func TestRouterHealth(t *testing.T) {
	r := setupTestRouter(t, &fakeService{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var resp models.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, []string{"ASDA"}, resp.Stores)
}

func TestRouterHealthDegradedThreshold(t *testing.T) {
	tests := []struct {
		name      string
		active    int
		threshold int
		want      string
	}{
		{"two batches under default", 2, 4, "healthy"},
		{"at threshold", 3, 3, "healthy"},
		{"over threshold", 3, 2, "degraded"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := setupTestRouter(t, &fakeService{active: tt.active}, func(c *config.Config) {
				c.Server.DegradedSessions = tt.threshold
			})

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))

			var resp models.HealthResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.want, resp.Status)
		})
	}
}

func TestRouterMetrics(t *testing.T) {
	r := setupTestRouter(t, &fakeService{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "shelfprice_batches_total")
}

func TestRouterMethodsAndPaths(t *testing.T) {
	r := setupTestRouter(t, &fakeService{})

	tests := []struct {
		method, path string
	}{
		{http.MethodGet, "/api/scrape"},
		{http.MethodPost, "/api/health"},
		{http.MethodPost, "/scrape"},
		{http.MethodPost, "/api/v1/scrape"},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
		assert.Equal(t, http.StatusNotFound, w.Code, "%s %s", tt.method, tt.path)
	}
}
