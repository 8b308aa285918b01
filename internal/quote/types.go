package quote

type ServiceType string

const (
	ServiceResidential ServiceType = "residential"
	ServiceCommercial  ServiceType = "commercial"
)

// Request is a fully collected quote request. Exactly one of ResidenceType
// and EstablishmentType is populated, matching ServiceType.
type Request struct {
	Name        string      `json:"name"`
	Email       string      `json:"email"`
	Phone       string      `json:"phone"`
	ServiceType ServiceType `json:"service_type"`

	ResidenceType     string `json:"residence_type,omitempty"`
	EstablishmentType string `json:"establishment_type,omitempty"`
	RoomsOrSize       string `json:"rooms_or_size,omitempty"`
	FloorLevel        string `json:"floor_level,omitempty"`

	Services     []string `json:"services,omitempty"`
	ComplexItems []string `json:"complex_items,omitempty"`

	OriginAddress      string `json:"origin_address,omitempty"`
	DestinationAddress string `json:"destination_address,omitempty"`
	MovingDate         string `json:"moving_date,omitempty"`

	DistanceKm float64 `json:"distance_km,omitempty"`
}

// LineItem is one entry of the price breakdown.
type LineItem struct {
	Label  string  `json:"label"`
	Amount float64 `json:"amount"`
}

// Breakdown explains how the total was derived. Items keep computation
// order; BasePrice is the pre-tax sum of all items except the tax line.
type Breakdown struct {
	Items     []LineItem `json:"breakdown"`
	BasePrice float64    `json:"basePrice"`
	Tax       float64    `json:"tax"`
	Total     int64      `json:"total"`
}

// PriceRange is the ±25% display band shown to the customer around the
// computed total.
type PriceRange struct {
	Min int64 `json:"min"`
	Max int64 `json:"max"`
}
