package quote

import (
	"strconv"
	"strings"
)

// FieldLabels maps raw form field names to the human labels surfaced in
// validation messages and in the owner notification.
var FieldLabels = map[string]string{
	"name":                "Nom complet",
	"email":               "Courriel",
	"phone":               "Téléphone",
	"moving-date":         "Date du déménagement",
	"service-type":        "Type de service",
	"residence-type":      "Type de résidence",
	"rooms":               "Nombre de pièces",
	"floors":              "Étage",
	"establishment-type":  "Type d'établissement",
	"commercial-size":     "Superficie",
	"services":            "Services additionnels",
	"complex-items":       "Objets spéciaux",
	"commercial-services": "Services additionnels",
	"origin-address":      "Adresse de départ",
	"destination-address": "Adresse d'arrivée",
	"distance":            "Distance (km)",
}

func Label(field string) string {
	if l, ok := FieldLabels[field]; ok {
		return l
	}
	return field
}

// RequiredContactFields are the identifying fields every submission must
// carry regardless of service type.
var RequiredContactFields = []string{"name", "email", "phone", "service-type"}

// NormalizeFields strips the array suffix off checkbox-group names and
// drops empty values, so "services[]" and "services" collapse into one set.
func NormalizeFields(raw map[string][]string) map[string][]string {
	fields := make(map[string][]string, len(raw))
	for name, values := range raw {
		name = strings.TrimSuffix(name, "[]")
		for _, v := range values {
			if v = strings.TrimSpace(v); v != "" {
				fields[name] = append(fields[name], v)
			}
		}
	}
	return fields
}

// MissingRequired reports which identifying fields are absent from a
// normalized field map.
func MissingRequired(fields map[string][]string) []string {
	var missing []string
	for _, name := range RequiredContactFields {
		if len(fields[name]) == 0 {
			missing = append(missing, name)
		}
	}
	return missing
}

// FromFields assembles a Request out of normalized form fields, remapping
// the commercial form's field names onto the shared vocabulary.
func FromFields(fields map[string][]string) Request {
	req := Request{
		Name:               first(fields, "name"),
		Email:              first(fields, "email"),
		Phone:              first(fields, "phone"),
		ServiceType:        ServiceType(first(fields, "service-type")),
		MovingDate:         first(fields, "moving-date"),
		OriginAddress:      first(fields, "origin-address"),
		DestinationAddress: first(fields, "destination-address"),
	}

	if req.ServiceType == ServiceCommercial {
		req.EstablishmentType = first(fields, "establishment-type")
		req.RoomsOrSize = first(fields, "commercial-size", "size")
		req.Services = fields["commercial-services"]
		if len(req.Services) == 0 {
			req.Services = fields["services"]
		}
	} else {
		req.ResidenceType = first(fields, "residence-type")
		req.RoomsOrSize = first(fields, "rooms")
		req.FloorLevel = first(fields, "floors")
		req.Services = fields["services"]
		req.ComplexItems = fields["complex-items"]
	}

	if raw := first(fields, "distance"); raw != "" {
		if km, err := strconv.ParseFloat(raw, 64); err == nil && km > 0 {
			req.DistanceKm = km
		}
	}
	return req
}

func first(fields map[string][]string, names ...string) string {
	for _, name := range names {
		if values := fields[name]; len(values) > 0 {
			return values[0]
		}
	}
	return ""
}
