package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/gigsight/trips-cli/internal/model"
	"github.com/gigsight/trips-cli/internal/pipeline"
	"github.com/gigsight/trips-cli/internal/store"
	"github.com/gigsight/trips-cli/pkg/vision"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// screenshotRequest accepts either a pre-transcribed OCR payload or a raw
// image for the vision client to transcribe.
type screenshotRequest struct {
	TripID      string          `json:"trip_id,omitempty"`
	OCR         *model.OCRInput `json:"ocr,omitempty"`
	ImageBase64 string          `json:"image_base64,omitempty"`
	MediaType   string          `json:"media_type,omitempty"`
	Hint        string          `json:"hint,omitempty"`
}

type screenshotResponse struct {
	Extraction *model.Extraction `json:"extraction"`
	Trip       *model.TripRecord `json:"trip,omitempty"`
}

func (s *Server) handleScreenshot(w http.ResponseWriter, r *http.Request) {
	var req screenshotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	in := req.OCR
	if in == nil {
		if req.ImageBase64 == "" {
			respondError(w, http.StatusBadRequest, "ocr or image_base64 is required")
			return
		}
		if s.vision == nil {
			respondError(w, http.StatusServiceUnavailable, "vision transcription not configured")
			return
		}
		extracted, err := s.vision.ExtractScreenshot(r.Context(), vision.Request{
			ImageBase64: req.ImageBase64,
			MediaType:   req.MediaType,
			Hint:        req.Hint,
		})
		if err != nil {
			zap.L().Error("vision extraction failed", zap.Error(err))
			respondError(w, http.StatusBadGateway, "vision extraction failed")
			return
		}
		in = extracted
	}

	ext, trip, err := s.pipeline.ProcessScreenshot(r.Context(), req.TripID, *in)
	if err != nil {
		zap.L().Error("screenshot processing failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "processing failed")
		return
	}
	respondJSON(w, http.StatusCreated, screenshotResponse{Extraction: ext, Trip: trip})
}

func (s *Server) handleListTrips(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.TripFilter{
		Status:   model.TripStatus(q.Get("status")),
		Platform: q.Get("platform"),
	}
	if v := q.Get("limit"); v != "" {
		filter.Limit, _ = strconv.Atoi(v)
	}
	if v := q.Get("offset"); v != "" {
		filter.Offset, _ = strconv.Atoi(v)
	}

	trips, err := s.store.ListTrips(r.Context(), filter)
	if err != nil {
		zap.L().Error("list trips failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "list failed")
		return
	}
	if trips == nil {
		trips = []model.TripRecord{}
	}
	respondJSON(w, http.StatusOK, trips)
}

func (s *Server) handleGetTrip(w http.ResponseWriter, r *http.Request) {
	trip, err := s.store.GetTrip(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if eris.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "trip not found")
			return
		}
		zap.L().Error("get trip failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "get failed")
		return
	}
	respondJSON(w, http.StatusOK, trip)
}

func (s *Server) handleListScreenshots(w http.ResponseWriter, r *http.Request) {
	exts, err := s.store.ListExtractions(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		zap.L().Error("list screenshots failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "list failed")
		return
	}
	if exts == nil {
		exts = []model.Extraction{}
	}
	respondJSON(w, http.StatusOK, exts)
}

func (s *Server) handleCorrections(w http.ResponseWriter, r *http.Request) {
	var corrections map[string]any
	if err := json.NewDecoder(r.Body).Decode(&corrections); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(corrections) == 0 {
		respondError(w, http.StatusBadRequest, "no corrections supplied")
		return
	}

	trip, err := s.pipeline.Correct(r.Context(), chi.URLParam(r, "id"), corrections)
	if err != nil {
		if eris.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "trip not found")
			return
		}
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, trip)
}

func (s *Server) handleRecompute(w http.ResponseWriter, r *http.Request) {
	trip, err := s.pipeline.Recompute(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if eris.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "trip not found")
			return
		}
		zap.L().Error("recompute failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "recompute failed")
		return
	}
	respondJSON(w, http.StatusOK, trip)
}

type validateWeekRequest struct {
	Start string `json:"start"`
	End   string `json:"end,omitempty"`
}

func (s *Server) handleValidateWeek(w http.ResponseWriter, r *http.Request) {
	var req validateWeekRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	start, err := time.Parse("2006-01-02", req.Start)
	if err != nil {
		respondError(w, http.StatusBadRequest, "start must be YYYY-MM-DD")
		return
	}
	end := start.AddDate(0, 0, 7)
	if req.End != "" {
		end, err = time.Parse("2006-01-02", req.End)
		if err != nil {
			respondError(w, http.StatusBadRequest, "end must be YYYY-MM-DD")
			return
		}
	}

	report, err := s.pipeline.ValidateWeek(r.Context(), start, end)
	if err != nil {
		if eris.Is(err, pipeline.ErrNoWeeklySummary) {
			respondError(w, http.StatusNotFound, "no weekly summary in period")
			return
		}
		zap.L().Error("weekly validation failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "validation failed")
		return
	}
	respondJSON(w, http.StatusOK, report)
}

func (s *Server) handleWeeklyReports(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, _ = strconv.Atoi(v)
	}
	reports, err := s.store.ListWeeklyReports(r.Context(), limit)
	if err != nil {
		zap.L().Error("list weekly reports failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "list failed")
		return
	}
	if reports == nil {
		reports = []model.WeeklyValidationReport{}
	}
	respondJSON(w, http.StatusOK, reports)
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}
