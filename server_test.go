package main

import (
	"bytes"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aldien03/OBN-Source-Planner-QGIS-Plugin/internal/geom"
)

func regularPolygon(cx, cy, radius float64, vertices int) geom.Polygon {
	pts := make([]geom.Point, vertices)
	for i := range pts {
		ang := 2 * math.Pi * float64(i) / float64(vertices)
		pts[i] = geom.Point{X: cx + radius*math.Cos(ang), Y: cy + radius*math.Sin(ang)}
	}
	return geom.Polygon{Vertices: pts}
}

func postJSON(t *testing.T, handler http.HandlerFunc, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestHealthHandler(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	healthHandler(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ready", body["status"])
}

func TestCORSMiddleware(t *testing.T) {
	handler := corsMiddleware(healthHandler)

	req := httptest.NewRequest(http.MethodOptions, "/health", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, rec.Body.Bytes(), "preflight must not reach the handler")
}

func TestPlanDeviationHandler(t *testing.T) {
	t.Run("clear line succeeds without a detour", func(t *testing.T) {
		req := DeviationRequest{
			Line:   LineRequest{Number: 1, Start: geom.Point{X: 0, Y: 0}, End: geom.Point{X: 1000, Y: 0}},
			Params: PlannerParams{TurnRadius: 150},
		}
		rec := postJSON(t, planDeviationHandler, "/planDeviation", req)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp DeviationResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Equal(t, "Success", resp.Status)
		assert.Equal(t, "none", resp.Tier)
		assert.Len(t, resp.Path, 2)
		assert.InDelta(t, 1000, resp.Length, 1e-9)
		assert.NotEmpty(t, resp.RequestID)
	})

	t.Run("blocked line returns a detour", func(t *testing.T) {
		req := DeviationRequest{
			Line:      LineRequest{Number: 1, Start: geom.Point{X: 0, Y: 0}, End: geom.Point{X: 1000, Y: 0}},
			Obstacles: []geom.Polygon{regularPolygon(500, 0, 100, 24)},
			Params:    PlannerParams{TurnRadius: 150, Buffer: 10, Seed: 1},
		}
		rec := postJSON(t, planDeviationHandler, "/planDeviation", req)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp DeviationResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.True(t, resp.Success, "message: %s", resp.Message)
		assert.NotEmpty(t, resp.Path)
		assert.Positive(t, resp.Length)
		assert.NotEqual(t, "none", resp.Tier)
	})

	t.Run("zone blocks even with the default zero buffer", func(t *testing.T) {
		req := DeviationRequest{
			Line:      LineRequest{Number: 1, Start: geom.Point{X: 0, Y: 0}, End: geom.Point{X: 1000, Y: 0}},
			Obstacles: []geom.Polygon{regularPolygon(500, 0, 100, 24)},
			Params:    PlannerParams{TurnRadius: 150, Seed: 1},
		}
		rec := postJSON(t, planDeviationHandler, "/planDeviation", req)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp DeviationResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.True(t, resp.Success, "message: %s", resp.Message)
		assert.NotEqual(t, "none", resp.Tier)
	})

	t.Run("invalid input is reported not fatal", func(t *testing.T) {
		req := DeviationRequest{
			Line:   LineRequest{Number: 1, Start: geom.Point{X: 5, Y: 5}, End: geom.Point{X: 5, Y: 5}},
			Params: PlannerParams{TurnRadius: 150},
		}
		rec := postJSON(t, planDeviationHandler, "/planDeviation", req)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp DeviationResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.False(t, resp.Success)
		assert.NotEmpty(t, resp.Message)
	})

	t.Run("malformed body is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/planDeviation", bytes.NewBufferString("{"))
		rec := httptest.NewRecorder()
		planDeviationHandler(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("GET is not allowed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/planDeviation", nil)
		rec := httptest.NewRecorder()
		planDeviationHandler(rec, req)
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestPlanSequenceHandler(t *testing.T) {
	t.Run("two clear lines make a racetrack", func(t *testing.T) {
		req := SequenceRequest{
			Lines: []LineRequest{
				{Number: 1, Start: geom.Point{X: 0, Y: 0}, End: geom.Point{X: 1000, Y: 0}},
				{Number: 2, Start: geom.Point{X: 0, Y: 300}, End: geom.Point{X: 1000, Y: 300}},
			},
			Params:    PlannerParams{TurnRadius: 150},
			Pattern:   "Racetrack",
			FirstLine: 1,
		}
		rec := postJSON(t, planSequenceHandler, "/planSequence", req)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp SequenceResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.True(t, resp.Success, "message: %s", resp.Message)
		require.NotNil(t, resp.Plan)
		assert.Equal(t, []int{1, 2}, resp.Plan.Order)
		assert.Len(t, resp.Plan.Legs, 3)
		assert.Positive(t, resp.Plan.TotalLength)
	})

	t.Run("unknown pattern fails cleanly", func(t *testing.T) {
		req := SequenceRequest{
			Lines:   []LineRequest{{Number: 1, Start: geom.Point{X: 0, Y: 0}, End: geom.Point{X: 100, Y: 0}}},
			Params:  PlannerParams{TurnRadius: 150},
			Pattern: "spiral",
		}
		rec := postJSON(t, planSequenceHandler, "/planSequence", req)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp SequenceResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.False(t, resp.Success)
		assert.Contains(t, resp.Message, "pattern")
	})
}
