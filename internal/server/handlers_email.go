package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Wrivard/demenagementboreal-sub000/internal/mailer"
	"github.com/Wrivard/demenagementboreal-sub000/internal/quote"
)

type quoteEmailRequest struct {
	Name    string           `json:"name"`
	Email   string           `json:"email"`
	Phone   string           `json:"phone"`
	Choices []string         `json:"choices"`
	Pricing quote.PriceRange `json:"pricing"`
}

type contactEmailRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

type emailResponse struct {
	Success  bool            `json:"success"`
	Message  string          `json:"message"`
	EmailIDs mailer.EmailIDs `json:"emailIds"`
}

// handleSendQuoteEmail dispatches the confirmation/notification pair for a
// completed quote request. Success means at least one send went through.
func (s *Server) handleSendQuoteEmail(w http.ResponseWriter, r *http.Request) {
	var req quoteEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "corps de requête invalide")
		return
	}

	if missing := missingContact(req.Name, req.Email, req.Phone); len(missing) > 0 {
		s.writeMissingFields(w, missing)
		return
	}

	if !s.mailer.HasCredential() {
		s.writeError(w, http.StatusServiceUnavailable, "service de courriel non configuré")
		return
	}

	ids, err := s.mailer.SendQuoteEmails(r.Context(), mailer.QuoteMessage{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Choices: req.Choices,
		Pricing: req.Pricing,
	})
	if err != nil {
		s.writeInternal(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, emailResponse{
		Success:  true,
		Message:  "courriels envoyés",
		EmailIDs: ids,
	})
}

// handleSendContactEmail mirrors the quote email pair for the plain
// contact form.
func (s *Server) handleSendContactEmail(w http.ResponseWriter, r *http.Request) {
	var req contactEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "corps de requête invalide")
		return
	}

	var missing []string
	if strings.TrimSpace(req.Name) == "" {
		missing = append(missing, quote.Label("name"))
	}
	if strings.TrimSpace(req.Email) == "" {
		missing = append(missing, quote.Label("email"))
	}
	if strings.TrimSpace(req.Message) == "" {
		missing = append(missing, "Message")
	}
	if len(missing) > 0 {
		s.writeMissingFields(w, missing)
		return
	}

	if !s.mailer.HasCredential() {
		s.writeError(w, http.StatusServiceUnavailable, "service de courriel non configuré")
		return
	}

	ids, err := s.mailer.SendContactEmails(r.Context(), mailer.ContactMessage{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Subject: req.Subject,
		Message: req.Message,
	})
	if err != nil {
		s.writeInternal(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, emailResponse{
		Success:  true,
		Message:  "courriels envoyés",
		EmailIDs: ids,
	})
}

func missingContact(name, email, phone string) []string {
	var missing []string
	if strings.TrimSpace(name) == "" {
		missing = append(missing, quote.Label("name"))
	}
	if strings.TrimSpace(email) == "" {
		missing = append(missing, quote.Label("email"))
	}
	if strings.TrimSpace(phone) == "" {
		missing = append(missing, quote.Label("phone"))
	}
	return missing
}
