package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/snappy-gold/appraisal-api/internal/appraise"
	"github.com/snappy-gold/appraisal-api/internal/model"
	"github.com/snappy-gold/appraisal-api/internal/pricing"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleSpotPrices returns the day's spot prices and the derived per-gram melt
// values the storefront shows on its pricing page.
func (s *Server) handleSpotPrices(w http.ResponseWriter, r *http.Request) {
	sp := s.spots.Prices(r.Context())
	table := pricing.Table(sp)

	writeJSON(w, http.StatusOK, map[string]any{
		"date":   sp.Date,
		"gold":   sp.Gold,
		"silver": sp.Silver,
		"per_gram": map[string]float64{
			"gold_10k":        table[pricing.Gold10K],
			"gold_14k":        table[pricing.Gold14K],
			"gold_18k":        table[pricing.Gold18K],
			"gold_24k":        table[pricing.Gold24K],
			"sterling_silver": table[pricing.SterlingSilver],
			"fine_silver":     table[pricing.FineSilver],
		},
	})
}

type analyzeRequest struct {
	// Images are data-URLs exactly as the browser produces them from canvas
	// capture: "data:image/jpeg;base64,...". Attribution metadata arrives
	// later with the lead submission, not here.
	Images []string `json:"images"`
}

type analyzeResponse struct {
	SessionID string           `json:"session_id"`
	Appraisal *model.Appraisal `json:"appraisal"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxImageBytes*int64(s.opts.MaxImagesPerReq))

	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Images) == 0 {
		writeError(w, http.StatusBadRequest, "at least one image is required")
		return
	}
	if len(req.Images) > s.opts.MaxImagesPerReq {
		writeError(w, http.StatusBadRequest, "too many images (max "+strconv.Itoa(s.opts.MaxImagesPerReq)+")")
		return
	}

	images := make([]appraise.Image, 0, len(req.Images))
	for _, raw := range req.Images {
		mediaType, data, err := parseDataURL(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid image data URL")
			return
		}
		images = append(images, appraise.Image{MediaType: mediaType, Data: data})
	}

	sess, err := appraise.NewSession(s.runner, images)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	appraisal, err := sess.Estimate(r.Context())
	if err != nil {
		s.writeAppraisalError(w, err)
		return
	}

	if appraisal.Recognized() {
		if _, err := s.store.CreateQuote(r.Context(), *appraisal); err != nil {
			zap.L().Error("save quote", zap.Error(err))
		}
	}

	writeJSON(w, http.StatusOK, analyzeResponse{
		SessionID: s.sessions.put(sess),
		Appraisal: appraisal,
	})
}

type reestimateRequest struct {
	SessionID  string            `json:"session_id"`
	Fields     map[string]string `json:"fields,omitempty"`
	ExtraNotes *string           `json:"extra_notes,omitempty"`
}

func (s *Server) handleReestimate(w http.ResponseWriter, r *http.Request) {
	var req reestimateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sess := s.sessions.get(req.SessionID)
	if sess == nil {
		writeError(w, http.StatusNotFound, "unknown or expired session")
		return
	}

	for label, value := range req.Fields {
		if err := sess.SetCorrection(label, value); err != nil {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
	}
	if req.ExtraNotes != nil {
		if err := sess.SetExtraNotes(*req.ExtraNotes); err != nil {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
	}

	appraisal, err := sess.Reestimate(r.Context())
	switch {
	case errors.Is(err, appraise.ErrReestimateInFlight):
		// The running loop picked the new corrections up; the client polls or
		// keeps the earlier in-flight request open.
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "pending"})
		return
	case errors.Is(err, appraise.ErrNoCorrections):
		writeError(w, http.StatusBadRequest, "no corrections to apply")
		return
	case errors.Is(err, appraise.ErrNotEstimated):
		writeError(w, http.StatusConflict, "session has no estimate yet")
		return
	case err != nil:
		s.writeAppraisalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"appraisal": appraisal})
}

type submitLeadRequest struct {
	model.LeadPayload
	SessionID string `json:"session_id,omitempty"`
}

// handleSubmitLead acknowledges every well-formed submission with 200. The
// visitor already saw their offer; persistence and relay failures are our
// problem to chase in logs, not theirs.
func (s *Server) handleSubmitLead(w http.ResponseWriter, r *http.Request) {
	var req submitLeadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	payload := req.LeadPayload
	if sess := s.sessions.get(req.SessionID); sess != nil {
		snapshot := model.BuildLeadPayload(sess.Current(), sess.History())
		payload.Item = snapshot.Item
		payload.OfferRange = snapshot.OfferRange
		payload.Description = snapshot.Description
		payload.Details = snapshot.Details
		payload.OfferNotes = snapshot.OfferNotes
		payload.Confidence = snapshot.Confidence
		payload.ItemType = snapshot.ItemType
		payload.Corrections = snapshot.Corrections
	}
	payload.IP = clientIP(r)

	stored, err := s.store.CreateLead(r.Context(), payload)
	if err != nil {
		zap.L().Error("save lead", zap.Error(err))
		stored = &model.Lead{Payload: payload}
	}
	s.relay.Submit(*stored)

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRecentQuotes(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}

	quotes, err := s.store.RecentQuotes(r.Context(), limit)
	if err != nil {
		zap.L().Error("recent quotes", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if quotes == nil {
		quotes = []model.Quote{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"quotes": quotes})
}

// writeAppraisalError maps appraisal failures to 502: whatever the specific
// reason, the remedy on the client side is the same retry prompt.
func (s *Server) writeAppraisalError(w http.ResponseWriter, err error) {
	reason := appraise.ReasonOf(err)
	if reason == "" {
		zap.L().Error("appraisal failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	zap.L().Warn("appraisal failed", zap.String("reason", string(reason)), zap.Error(err))
	writeJSON(w, http.StatusBadGateway, map[string]string{
		"error":  "analysis failed",
		"reason": string(reason),
	})
}

// parseDataURL splits a browser data-URL into its media type and raw base64
// payload.
func parseDataURL(s string) (mediaType, data string, err error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return "", "", eris.New("missing data: prefix")
	}
	mediaType, data, ok = strings.Cut(rest, ";base64,")
	if !ok || mediaType == "" || data == "" {
		return "", "", eris.New("malformed data URL")
	}
	return mediaType, data, nil
}
