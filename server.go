package main

import (
	"encoding/json"
	"log"
	"math/rand"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/aldien03/OBN-Source-Planner-QGIS-Plugin/internal/geom"
	"github.com/aldien03/OBN-Source-Planner-QGIS-Plugin/internal/obstacle"
	"github.com/aldien03/OBN-Source-Planner-QGIS-Plugin/internal/planner"
	"github.com/aldien03/OBN-Source-Planner-QGIS-Plugin/internal/sequence"
)

// LineRequest is one survey line in planning requests.
type LineRequest struct {
	Number  int        `json:"number"`
	Start   geom.Point `json:"start"`
	End     geom.Point `json:"end"`
	Heading float64    `json:"heading"`
}

// PlannerParams carries the recognized tree-search options; zero values
// take the defaults.
type PlannerParams struct {
	TurnRadius    float64 `json:"turnRadius"`
	Speed         float64 `json:"speed"`
	StepSize      float64 `json:"stepSize,omitempty"`
	MaxIterations int     `json:"maxIterations,omitempty"`
	GoalBias      float64 `json:"goalBias,omitempty"`
	GoalTolerance float64 `json:"goalTolerance,omitempty"`
	Seed          int64   `json:"seed,omitempty"`
	Buffer        float64 `json:"buffer,omitempty"`
}

func (p PlannerParams) constraints() planner.VesselConstraints {
	c := planner.VesselConstraints{
		TurnRadius: p.TurnRadius,
		StepSize:   p.StepSize,
		Speed:      p.Speed,
	}
	if c.StepSize == 0 {
		c.StepSize = planner.DefaultStepSize
	}
	if c.Speed == 0 {
		c.Speed = 2.5 // typical survey speed, m/s
	}
	return c
}

func (p PlannerParams) options() planner.Options {
	opts := planner.DefaultOptions(rand.New(rand.NewSource(p.Seed)))
	if p.StepSize > 0 {
		opts.StepSize = p.StepSize
	}
	if p.MaxIterations > 0 {
		opts.MaxIterations = p.MaxIterations
	}
	if p.GoalBias > 0 {
		opts.GoalBias = p.GoalBias
	}
	if p.GoalTolerance > 0 {
		opts.GoalTolerance = p.GoalTolerance
	}
	return opts
}

// DeviationRequest asks for a detour for a single blocked line.
type DeviationRequest struct {
	Line      LineRequest    `json:"line"`
	Obstacles []geom.Polygon `json:"obstacles"`
	Params    PlannerParams  `json:"params"`
}

// DeviationResponse reports the planned detour and per-call diagnostics.
type DeviationResponse struct {
	RequestID   string              `json:"requestId"`
	Success     bool                `json:"success"`
	Status      string              `json:"status"`
	Tier        string              `json:"tier,omitempty"`
	Path        []geom.Config       `json:"path,omitempty"`
	Length      float64             `json:"length,omitempty"`
	Diagnostics planner.Diagnostics `json:"diagnostics"`
	Message     string              `json:"message,omitempty"`
}

// SequenceRequest asks for a timed acquisition sequence over many lines.
type SequenceRequest struct {
	Lines            []LineRequest  `json:"lines"`
	Obstacles        []geom.Polygon `json:"obstacles"`
	Params           PlannerParams  `json:"params"`
	Pattern          string         `json:"pattern"`
	FirstLine        int            `json:"firstLine"`
	StartTime        time.Time      `json:"startTime"`
	RunIn            float64        `json:"runIn,omitempty"`
	PreferReciprocal bool           `json:"preferReciprocal,omitempty"`
}

// SequenceResponse reports the assembled sequence with cumulative timing.
type SequenceResponse struct {
	RequestID string         `json:"requestId"`
	Success   bool           `json:"success"`
	Plan      *sequence.Plan `json:"plan,omitempty"`
	Message   string         `json:"message,omitempty"`
}

// corsMiddleware adds CORS headers so the map frontend can call us directly.
func corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func buildSet(polygons []geom.Polygon, buffer float64) (*obstacle.Set, error) {
	return obstacle.NewSetFromPolygons(polygons, buffer, 0)
}

func planDeviationHandler(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()
	log.Println("========================================")
	log.Printf("🧭 Deviation request %s\n", requestID)

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req DeviationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("❌ Invalid request body: %v\n", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	log.Printf("   Line %d: (%.1f, %.1f) -> (%.1f, %.1f)\n",
		req.Line.Number, req.Line.Start.X, req.Line.Start.Y, req.Line.End.X, req.Line.End.Y)
	log.Printf("   Obstacles: %d, turn radius: %.1f m\n", len(req.Obstacles), req.Params.TurnRadius)

	set, err := buildSet(req.Obstacles, req.Params.Buffer)
	if err != nil {
		log.Printf("❌ Bad obstacle geometry: %v\n", err)
		writeJSON(w, DeviationResponse{RequestID: requestID, Success: false, Message: err.Error()})
		return
	}

	orch := &planner.Orchestrator{
		Obstacles:   set,
		Constraints: req.Params.constraints(),
		Opts:        req.Params.options(),
	}
	line := planner.SurveyLine{
		Number:  req.Line.Number,
		Start:   req.Line.Start,
		End:     req.Line.End,
		Heading: req.Line.Heading,
	}

	dev, diag, err := orch.PlanDeviation(r.Context(), line)
	if err != nil {
		log.Printf("❌ Invalid input: %v\n", err)
		writeJSON(w, DeviationResponse{RequestID: requestID, Success: false, Message: err.Error()})
		return
	}

	resp := DeviationResponse{
		RequestID:   requestID,
		Success:     dev.Status == planner.StatusSuccess,
		Status:      dev.Status.String(),
		Diagnostics: diag,
	}
	if resp.Success {
		resp.Tier = dev.Tier.String()
		resp.Path = dev.Polyline
		resp.Length = dev.Length
		log.Printf("✅ %s path, %.1f m, %d vertices\n", dev.Tier, dev.Length, len(dev.Polyline))
	} else {
		log.Printf("⚠️  Planning ended with status %s\n", dev.Status)
	}
	writeJSON(w, resp)
	log.Println("========================================")
}

func planSequenceHandler(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()
	log.Println("========================================")
	log.Printf("🗓️  Sequence request %s\n", requestID)

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req SequenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("❌ Invalid request body: %v\n", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	pattern, err := sequence.ParsePattern(req.Pattern)
	if err != nil {
		writeJSON(w, SequenceResponse{RequestID: requestID, Success: false, Message: err.Error()})
		return
	}

	set, err := buildSet(req.Obstacles, req.Params.Buffer)
	if err != nil {
		writeJSON(w, SequenceResponse{RequestID: requestID, Success: false, Message: err.Error()})
		return
	}

	constraints := req.Params.constraints()
	orch := &planner.Orchestrator{
		Obstacles:   set,
		Constraints: constraints,
		Opts:        req.Params.options(),
	}

	lines := make([]planner.SurveyLine, 0, len(req.Lines))
	deviations := make(map[int]planner.DeviationPath, len(req.Lines))
	for _, lr := range req.Lines {
		line := planner.SurveyLine{Number: lr.Number, Start: lr.Start, End: lr.End, Heading: lr.Heading}
		lines = append(lines, line)

		dev, _, err := orch.PlanDeviation(r.Context(), line)
		if err != nil {
			writeJSON(w, SequenceResponse{RequestID: requestID, Success: false, Message: err.Error()})
			return
		}
		deviations[line.Number] = dev
		if dev.Status != planner.StatusSuccess {
			log.Printf("⚠️  Line %d deviation failed (%s); line will be skipped\n", line.Number, dev.Status)
		}
	}

	assembler := &sequence.Assembler{Constraints: constraints, RunIn: req.RunIn}
	startTime := req.StartTime
	if startTime.IsZero() {
		startTime = time.Now().UTC()
	}
	plan, err := assembler.Assemble(lines, deviations, pattern, req.FirstLine, startTime, req.PreferReciprocal)
	if err != nil {
		log.Printf("❌ Sequence assembly failed: %v\n", err)
		writeJSON(w, SequenceResponse{RequestID: requestID, Success: false, Message: err.Error()})
		return
	}

	log.Printf("✅ Sequence %s: %d legs, %.1f km, %.2f hours\n",
		plan.ID, len(plan.Legs), plan.TotalLength/1000, plan.TotalDuration.Hours())
	writeJSON(w, SequenceResponse{RequestID: requestID, Success: true, Plan: &plan})
	log.Println("========================================")
}

// GET /health - readiness probe
func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{
		"status": "ready",
	})
}
