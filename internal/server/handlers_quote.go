package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/Wrivard/demenagementboreal-sub000/internal/quote"
)

type quoteResponse struct {
	Success   bool             `json:"success"`
	BasePrice float64          `json:"basePrice"`
	Breakdown []quote.LineItem `json:"breakdown"`
	Total     int64            `json:"total"`
}

// handleCalculateQuote prices a raw form-field payload, including the
// array-suffixed checkbox names the browser form produces.
func (s *Server) handleCalculateQuote(w http.ResponseWriter, r *http.Request) {
	fields, err := decodeFormFields(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "corps de requête invalide")
		return
	}

	if missing := quote.MissingRequired(fields); len(missing) > 0 {
		s.writeMissingFields(w, labelsFor(missing))
		return
	}

	req := quote.FromFields(fields)
	breakdown := quote.Compute(req, s.rates)

	s.writeJSON(w, http.StatusOK, quoteResponse{
		Success:   true,
		BasePrice: breakdown.BasePrice,
		Breakdown: breakdown.Items,
		Total:     breakdown.Total,
	})
}

// decodeFormFields reads a JSON object of raw form values: strings,
// numbers, or arrays thereof (checkbox groups), keyed by field name.
func decodeFormFields(r *http.Request) (map[string][]string, error) {
	var raw map[string]any
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}

	fields := make(map[string][]string, len(raw))
	for name, value := range raw {
		fields[name] = stringValues(value)
	}
	return quote.NormalizeFields(fields), nil
}

func stringValues(value any) []string {
	switch v := value.(type) {
	case string:
		return []string{v}
	case []any:
		var out []string
		for _, item := range v {
			out = append(out, stringValues(item)...)
		}
		return out
	case float64:
		return []string{trimFloat(v)}
	case bool:
		return []string{fmt.Sprintf("%t", v)}
	case nil:
		return nil
	default:
		return []string{fmt.Sprintf("%v", v)}
	}
}

func trimFloat(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%g", v)
}

func labelsFor(fields []string) []string {
	labels := make([]string, len(fields))
	for i, name := range fields {
		labels[i] = quote.Label(name)
	}
	return labels
}
