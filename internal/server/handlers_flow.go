package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Wrivard/demenagementboreal-sub000/internal/flow"
	"github.com/Wrivard/demenagementboreal-sub000/internal/geo"
	"github.com/Wrivard/demenagementboreal-sub000/internal/mailer"
	"github.com/Wrivard/demenagementboreal-sub000/internal/quote"
	"github.com/Wrivard/demenagementboreal-sub000/internal/storage"
)

type sessionResponse struct {
	Success bool         `json:"success"`
	Session flow.Session `json:"session"`
}

type advanceRequest struct {
	FromStep int            `json:"fromStep"`
	Fields   map[string]any `json:"fields"`
}

type submitRequest struct {
	Fields map[string]any `json:"fields"`
}

type flowDistanceRequest struct {
	Origin      string  `json:"origin"`
	Destination string  `json:"destination"`
	Manual      bool    `json:"manual"`
	Distance    float64 `json:"distance"`
}

func (s *Server) handleFlowStart(w http.ResponseWriter, r *http.Request) {
	session, err := s.controller.Start(r.Context())
	if err != nil {
		s.writeInternal(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, sessionResponse{Success: true, Session: session})
}

func (s *Server) handleFlowGet(w http.ResponseWriter, r *http.Request) {
	session, err := s.controller.Get(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.writeFlowError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sessionResponse{Success: true, Session: session})
}

func (s *Server) handleFlowAdvance(w http.ResponseWriter, r *http.Request) {
	var req advanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "corps de requête invalide")
		return
	}

	session, err := s.controller.Advance(r.Context(),
		chi.URLParam(r, "sessionID"), req.FromStep, fieldsFromJSON(req.Fields))
	if err != nil {
		s.writeFlowError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sessionResponse{Success: true, Session: session})
}

func (s *Server) handleFlowRetreat(w http.ResponseWriter, r *http.Request) {
	session, err := s.controller.Retreat(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.writeFlowError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sessionResponse{Success: true, Session: session})
}

// handleFlowSubmit finalizes the form: re-validates step 4, computes the
// quote, then persists and notifies best-effort. Email or notification
// failures never fail the submission itself.
func (s *Server) handleFlowSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "corps de requête invalide")
		return
	}

	session, submitted, err := s.controller.Submit(r.Context(),
		chi.URLParam(r, "sessionID"), fieldsFromJSON(req.Fields))
	if err != nil {
		s.writeFlowError(w, err)
		return
	}

	if submitted {
		go s.afterSubmit(session)
	}

	s.writeJSON(w, http.StatusOK, sessionResponse{Success: true, Session: session})
}

// handleFlowDistance runs the auto-fill sub-flow: resolve driving distance
// and write it into the session's distance field, unless a later request
// or a manual edit superseded this one. Manual writes invalidate every
// in-flight resolution.
func (s *Server) handleFlowDistance(w http.ResponseWriter, r *http.Request) {
	var req flowDistanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "corps de requête invalide")
		return
	}
	sessionID := chi.URLParam(r, "sessionID")

	if req.Manual {
		session, err := s.controller.SetDistanceManual(r.Context(), sessionID, req.Distance)
		if err != nil {
			s.writeFlowError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, sessionResponse{Success: true, Session: session})
		return
	}

	if strings.TrimSpace(req.Origin) == "" || strings.TrimSpace(req.Destination) == "" {
		s.writeError(w, http.StatusBadRequest, "adresse de départ et d'arrivée requises")
		return
	}

	seq, err := s.controller.BeginDistance(r.Context(), sessionID)
	if err != nil {
		s.writeFlowError(w, err)
		return
	}

	result, err := s.resolver.Distance(r.Context(), req.Origin, req.Destination)
	switch {
	case err == nil:
	case errors.Is(err, geo.ErrNoCredential):
		s.writeJSON(w, http.StatusServiceUnavailable, errorResponse{
			Error:          "service de cartographie non configuré",
			RequiresAPIKey: true,
		})
		return
	case errors.Is(err, geo.ErrUnresolvable):
		s.writeError(w, http.StatusBadRequest, "adresse introuvable")
		return
	default:
		s.writeInternal(w, err)
		return
	}

	session, applied, err := s.controller.ApplyDistance(r.Context(), sessionID, seq, float64(result.DistanceKm))
	if err != nil {
		s.writeFlowError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"distance": result.DistanceKm,
		"duration": result.Duration,
		"applied":  applied,
		"session":  session,
	})
}

// afterSubmit runs the best-effort side effects of a submission: persist,
// owner notification with Excel export, confirmation emails with the PDF.
// Detached from the request context so a closed connection cannot cancel
// them halfway.
func (s *Server) afterSubmit(session flow.Session) {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	req := session.Request()
	breakdown := session.Result

	var excelPath string
	rec := buildRecord(session, req, *breakdown)
	if s.store != nil {
		id, err := s.store.SaveQuoteRequest(ctx, rec)
		if err != nil {
			s.logger.Error("Failed to persist quote request",
				zap.String("reference", session.Reference),
				zap.Error(err))
		} else {
			rec.ID = id
			if excelPath, err = s.store.ExportQuoteToExcel(ctx, rec); err != nil {
				s.logger.Error("Failed to export quote to Excel",
					zap.String("reference", session.Reference),
					zap.Error(err))
			}
		}
	}

	if s.notifier != nil {
		s.notifier.NotifyQuoteRequest(ctx, rec, excelPath)
	}

	if !s.mailer.HasCredential() {
		s.logger.Warn("Email dispatch skipped - no credential configured",
			zap.String("reference", session.Reference))
		return
	}

	msg := mailer.QuoteMessage{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Choices: choiceLines(req, *breakdown),
		Pricing: quote.Range(breakdown.Total),
	}
	if pdfBytes, err := s.pdfgen.Generate(session.Reference, req, *breakdown); err != nil {
		s.logger.Error("Failed to generate quote PDF",
			zap.String("reference", session.Reference),
			zap.Error(err))
	} else {
		msg.PDF = pdfBytes
	}

	if _, err := s.mailer.SendQuoteEmails(ctx, msg); err != nil {
		s.logger.Error("Failed to send quote emails",
			zap.String("reference", session.Reference),
			zap.Error(err))
	}
}

func (s *Server) writeFlowError(w http.ResponseWriter, err error) {
	var verr *flow.ValidationError
	switch {
	case errors.As(err, &verr):
		labels := make([]string, len(verr.Fields))
		for i, f := range verr.Fields {
			labels[i] = f.Label
		}
		s.writeMissingFields(w, labels)
	case errors.Is(err, flow.ErrSessionNotFound):
		s.writeError(w, http.StatusNotFound, "session introuvable")
	case errors.Is(err, flow.ErrInvalidTransition):
		s.writeError(w, http.StatusConflict, err.Error())
	default:
		s.writeInternal(w, err)
	}
}

func buildRecord(session flow.Session, req quote.Request, b quote.Breakdown) storage.QuoteRecord {
	propertyType := req.ResidenceType
	if req.ServiceType == quote.ServiceCommercial {
		propertyType = req.EstablishmentType
	}
	return storage.QuoteRecord{
		Reference:          session.Reference,
		Name:               req.Name,
		Email:              req.Email,
		Phone:              req.Phone,
		ServiceType:        string(req.ServiceType),
		PropertyType:       propertyType,
		RoomsOrSize:        req.RoomsOrSize,
		FloorLevel:         req.FloorLevel,
		Services:           req.Services,
		ComplexItems:       req.ComplexItems,
		OriginAddress:      req.OriginAddress,
		DestinationAddress: req.DestinationAddress,
		DistanceKm:         req.DistanceKm,
		BasePrice:          b.BasePrice,
		Tax:                b.Tax,
		Total:              b.Total,
		Status:             "new",
		CreatedAt:          time.Now().UTC(),
	}
}

// choiceLines renders the collected request as the "label: value" lines
// the email templates expect.
func choiceLines(req quote.Request, b quote.Breakdown) []string {
	var lines []string
	add := func(field, value string) {
		if value != "" {
			lines = append(lines, fmt.Sprintf("%s: %s", quote.Label(field), value))
		}
	}

	add("service-type", string(req.ServiceType))
	if req.ServiceType == quote.ServiceCommercial {
		add("establishment-type", req.EstablishmentType)
		add("commercial-size", req.RoomsOrSize)
	} else {
		add("residence-type", req.ResidenceType)
		add("rooms", req.RoomsOrSize)
		add("floors", req.FloorLevel)
	}
	add("services", strings.Join(req.Services, ", "))
	add("complex-items", strings.Join(req.ComplexItems, ", "))
	add("origin-address", req.OriginAddress)
	add("destination-address", req.DestinationAddress)
	if req.DistanceKm > 0 {
		add("distance", fmt.Sprintf("%.0f km", req.DistanceKm))
	}
	add("moving-date", req.MovingDate)
	lines = append(lines, fmt.Sprintf("Total estimé: %d $", b.Total))
	return lines
}

func fieldsFromJSON(raw map[string]any) map[string][]string {
	fields := make(map[string][]string, len(raw))
	for name, value := range raw {
		fields[name] = stringValues(value)
	}
	return fields
}
