package flow

import (
	"strings"

	"github.com/Wrivard/demenagementboreal-sub000/internal/quote"
)

// FieldError names a failing required field along with its human label.
type FieldError struct {
	Name  string `json:"name"`
	Label string `json:"label"`
}

// ValidationError lists every failing field of the attempted step, not
// just the first one.
type ValidationError struct {
	Step   int          `json:"step"`
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	labels := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		labels[i] = f.Label
	}
	return "champs requis manquants: " + strings.Join(labels, ", ")
}

// requiredFields is the per-step registry of required controls. Checkbox
// groups are always optional and never appear here.
func requiredFields(step int, serviceType quote.ServiceType) []string {
	switch step {
	case StepContact:
		return []string{"name", "email", "phone"}
	case StepServiceType:
		return []string{"service-type"}
	case StepDetails:
		if serviceType == quote.ServiceCommercial {
			return []string{"establishment-type", "commercial-size"}
		}
		return []string{"residence-type", "rooms", "floors"}
	case StepLogistics:
		return []string{"origin-address", "destination-address"}
	}
	return nil
}

// validateStep checks every required field of the step against the merged
// field map and collects all failures.
func validateStep(step int, serviceType quote.ServiceType, fields map[string][]string) *ValidationError {
	var failing []FieldError
	for _, name := range requiredFields(step, serviceType) {
		if !hasValue(fields, name) {
			failing = append(failing, FieldError{Name: name, Label: quote.Label(name)})
		}
	}

	if step == StepServiceType && hasValue(fields, "service-type") {
		switch quote.ServiceType(fields["service-type"][0]) {
		case quote.ServiceResidential, quote.ServiceCommercial:
		default:
			failing = append(failing, FieldError{Name: "service-type", Label: quote.Label("service-type")})
		}
	}

	if len(failing) == 0 {
		return nil
	}
	return &ValidationError{Step: step, Fields: failing}
}

func hasValue(fields map[string][]string, name string) bool {
	for _, v := range fields[name] {
		if strings.TrimSpace(v) != "" {
			return true
		}
	}
	return false
}
