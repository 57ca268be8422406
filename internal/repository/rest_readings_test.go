package repository

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRestReadingsSource_ListBySession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/sensor_readings", r.URL.Path)
		assert.Equal(t, "eq.session-1", r.URL.Query().Get("session_id"))
		assert.Equal(t, "timestamp", r.URL.Query().Get("order"))
		assert.Equal(t, "test-key", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]map[string]interface{}{
			{"timestamp": "2026-03-01T22:00:00Z", "ppg": 0.82},
			{"timestamp": "2026-03-01T22:00:01Z", "acc_x": 0.1, "acc_y": 0.2, "acc_z": 0.98},
		})
	}))
	defer server.Close()

	source := NewRestReadingsSource(server.URL, "test-key", zap.NewNop())
	samples, err := source.ListBySession(context.Background(), "session-1")
	require.NoError(t, err)
	require.Len(t, samples, 2)

	assert.True(t, samples[0].HasPPG())
	assert.Equal(t, 0.82, *samples[0].PPG)
	assert.True(t, samples[1].HasAccelerometer())
}

func TestRestReadingsSource_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "permission denied", http.StatusUnauthorized)
	}))
	defer server.Close()

	source := NewRestReadingsSource(server.URL, "bad-key", zap.NewNop())
	_, err := source.ListBySession(context.Background(), "session-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}
