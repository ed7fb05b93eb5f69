package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/aquasense/backend/internal/analysis"
	"github.com/aquasense/backend/internal/ingest"
	"github.com/aquasense/backend/internal/models"
)

const defaultListLimit = 100

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func listLimit(r *http.Request) int {
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return defaultListLimit
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "ok",
		"model_loaded": s.classifier.Ready(),
		"time":         time.Now().UTC(),
	})
}

type tankRequest struct {
	Name         string   `json:"name"`
	Species      []string `json:"species"`
	CapacityL    float64  `json:"capacity_l"`
	CurrentStock int64    `json:"current_stock"`
	Location     string   `json:"location"`
	Status       string   `json:"status"`
	Notes        string   `json:"notes"`
}

func (s *Server) handleListTanks(w http.ResponseWriter, r *http.Request) {
	tanks, err := s.store.ListTanks()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	views := make([]tankJSON, 0, len(tanks))
	for i := range tanks {
		views = append(views, tankView(&tanks[i]))
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleCreateTank(w http.ResponseWriter, r *http.Request) {
	var req tankRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}
	if req.Status == "" {
		req.Status = "active"
	}

	tank := &models.Tank{
		Name:         req.Name,
		Species:      req.Species,
		CapacityL:    req.CapacityL,
		CurrentStock: req.CurrentStock,
		Location:     req.Location,
		Status:       req.Status,
		Notes:        req.Notes,
	}
	if err := s.store.CreateTank(tank); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, tankView(tank))
}

func (s *Server) handleGetTank(w http.ResponseWriter, r *http.Request) {
	tank, err := s.store.GetTank(r.PathValue("id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if tank == nil {
		http.Error(w, "tank not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, tankView(tank))
}

func (s *Server) handleUpdateTank(w http.ResponseWriter, r *http.Request) {
	tank, err := s.store.GetTank(r.PathValue("id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if tank == nil {
		http.Error(w, "tank not found", http.StatusNotFound)
		return
	}

	var req tankRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}

	tank.Name = req.Name
	tank.Species = req.Species
	tank.CapacityL = req.CapacityL
	tank.CurrentStock = req.CurrentStock
	tank.Location = req.Location
	if req.Status != "" {
		tank.Status = req.Status
	}
	tank.Notes = req.Notes

	if err := s.store.UpdateTank(tank); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, tankView(tank))
}

func (s *Server) handleDeleteTank(w http.ResponseWriter, r *http.Request) {
	deleted, err := s.store.DeleteTank(r.PathValue("id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !deleted {
		http.Error(w, "tank not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type readingRequest struct {
	Temperature     *float64 `json:"temperature"`
	Turbidity       *float64 `json:"turbidity"`
	DissolvedOxygen *float64 `json:"dissolved_oxygen"`
	PH              *float64 `json:"ph"`
	Ammonia         *float64 `json:"ammonia"`
	Nitrite         *float64 `json:"nitrite"`
	Nitrate         *float64 `json:"nitrate"`
	Salinity        *float64 `json:"salinity"`
	Notes           string   `json:"notes"`
}

func (req *readingRequest) empty() bool {
	return req.Temperature == nil && req.Turbidity == nil && req.DissolvedOxygen == nil &&
		req.PH == nil && req.Ammonia == nil && req.Nitrite == nil &&
		req.Nitrate == nil && req.Salinity == nil
}

func (s *Server) handleCreateReading(w http.ResponseWriter, r *http.Request) {
	tankID := r.PathValue("id")
	tank, err := s.store.GetTank(tankID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if tank == nil {
		http.Error(w, "tank not found", http.StatusNotFound)
		return
	}

	var req readingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.empty() {
		http.Error(w, "at least one measurement is required", http.StatusBadRequest)
		return
	}

	reading := &models.SensorReading{
		TankID:          tankID,
		Temperature:     toNull(req.Temperature),
		Turbidity:       toNull(req.Turbidity),
		DissolvedOxygen: toNull(req.DissolvedOxygen),
		PH:              toNull(req.PH),
		Ammonia:         toNull(req.Ammonia),
		Nitrite:         toNull(req.Nitrite),
		Nitrate:         toNull(req.Nitrate),
		Salinity:        toNull(req.Salinity),
		Notes:           sql.NullString{String: req.Notes, Valid: req.Notes != ""},
	}
	reading.QualityFlags = ingest.QualityFlagsToJSON(ingest.ValidateReading(reading))

	if err := s.store.InsertReading(reading); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, readingView(reading))
}

func (s *Server) handleListReadings(w http.ResponseWriter, r *http.Request) {
	readings, err := s.store.GetReadings(r.PathValue("id"), listLimit(r))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	views := make([]readingJSON, 0, len(readings))
	for i := range readings {
		views = append(views, readingView(&readings[i]))
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleListPredictions(w http.ResponseWriter, r *http.Request) {
	preds, err := s.store.GetPredictions(r.PathValue("id"), listLimit(r))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	views := make([]predictionJSON, 0, len(preds))
	for i := range preds {
		views = append(views, predictionView(&preds[i]))
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleListLabResults(w http.ResponseWriter, r *http.Request) {
	results, err := s.store.GetLabResults(r.PathValue("id"), listLimit(r))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	views := make([]labResultJSON, 0, len(results))
	for i := range results {
		views = append(views, labResultView(&results[i]))
	}
	writeJSON(w, http.StatusOK, views)
}

// analysisResponse reshapes the report so null-able reading fields serialize
// as plain JSON values.
type analysisResponse struct {
	*analysis.TankAnalysis
	Tank    tankJSON     `json:"tank"`
	Reading *readingJSON `json:"reading,omitempty"`
}

func (s *Server) handleAnalyzeTank(w http.ResponseWriter, r *http.Request) {
	tankID := r.PathValue("id")
	report, err := s.analysis.AnalyzeTank(r.Context(), tankID)
	if errors.Is(err, analysis.ErrTankNotFound) {
		http.Error(w, "tank not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	resp := analysisResponse{
		TankAnalysis: report,
		Tank:         tankView(report.Tank),
	}
	if report.Reading != nil {
		v := readingView(report.Reading)
		resp.Reading = &v
	}
	writeJSON(w, http.StatusOK, resp)
}

type diseaseRequest struct {
	ImageBase64 string `json:"image_base64"`
}

func (s *Server) handleDetectDisease(w http.ResponseWriter, r *http.Request) {
	var req diseaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.ImageBase64 == "" {
		http.Error(w, "image_base64 is required", http.StatusBadRequest)
		return
	}

	report, err := s.analysis.DetectDisease(r.Context(), req.ImageBase64)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type chatResponse struct {
	SessionID string `json:"session_id"`
	Reply     string `json:"reply"`
}

func (s *Server) handleAssistantChat(w http.ResponseWriter, r *http.Request) {
	if s.assistant == nil {
		http.Error(w, "assistant is not configured", http.StatusServiceUnavailable)
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.SessionID == "" || req.Message == "" {
		http.Error(w, "session_id and message are required", http.StatusBadRequest)
		return
	}

	reply, err := s.assistant.Chat(r.Context(), req.SessionID, req.Message)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{SessionID: req.SessionID, Reply: reply})
}
