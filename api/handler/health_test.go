package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/shelfprice/models"
)

func TestHealth(t *testing.T) {
	r := gin.New()
	r.GET("/api/health", Health(&stubComparer{stores: []string{"ASDA", "Morrisons"}}, 1))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var resp models.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "1m30s", resp.Uptime)
	assert.Equal(t, "stub", resp.Renderer)
	assert.Equal(t, []string{"ASDA", "Morrisons"}, resp.Stores)
	assert.Equal(t, int64(7), resp.SessionStats.Total)
	assert.Equal(t, Version, resp.Version)
}

type busyReporter struct{ stubComparer }

func (*busyReporter) Stats() models.SessionStats { return models.SessionStats{Active: 3, Total: 10} }

func TestHealthDegraded(t *testing.T) {
	r := gin.New()
	r.GET("/api/health", Health(&busyReporter{}, 1))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	var resp models.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp.Status)
}
