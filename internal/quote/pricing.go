package quote

import "math"

// Multiplier tables and surcharge rates. Unknown keys always fall back to a
// neutral 1.0 so the computation never fails on a value the form did not
// anticipate.
type Rates struct {
	BaseResidential float64
	BaseCommercial  float64

	ResidenceMultipliers     map[string]float64
	RoomsMultipliers         map[string]float64
	FloorMultipliers         map[string]float64
	EstablishmentMultipliers map[string]float64
	SizeMultipliers          map[string]float64

	// Percentage surcharges apply to the running total at the moment the
	// service line is added, so order matters.
	ResidentialServiceRates []ServiceRate
	CommercialServiceRates  []ServiceRate
	ComplexItemFees         []ComplexItemFee

	RatePerKm float64
	TaxRate   float64
}

type ServiceRate struct {
	Key     string
	Label   string
	Percent float64 // of the running total
	Flat    float64 // flat amount, used when Percent is 0
}

type ComplexItemFee struct {
	Key   string
	Label string
	Fee   float64
}

const (
	LabelResidential = "Déménagement résidentiel"
	LabelCommercial  = "Déménagement commercial"
	LabelDistance    = "Transport (distance)"
	LabelTaxes       = "Taxes"
)

func DefaultRates() Rates {
	return Rates{
		BaseResidential: 500,
		BaseCommercial:  1000,
		ResidenceMultipliers: map[string]float64{
			"apartment":    1.0,
			"family-house": 1.5,
			"condo":        1.2,
			"duplex":       1.3,
			"other":        1.1,
		},
		RoomsMultipliers: map[string]float64{
			"1-2": 1.0,
			"3-4": 1.5,
			"5-6": 2.0,
			"7+":  2.5,
		},
		FloorMultipliers: map[string]float64{
			"ground-floor":   1.0,
			"2nd-floor":      1.2,
			"3rd-floor-plus": 1.4,
		},
		EstablishmentMultipliers: map[string]float64{
			"office":     1.0,
			"retail":     1.2,
			"restaurant": 1.5,
			"warehouse":  1.3,
			"medical":    1.4,
			"other":      1.1,
		},
		SizeMultipliers: map[string]float64{
			"0-100":    1.0,
			"101-300":  1.5,
			"301-500":  2.0,
			"501-1000": 2.5,
			"1000+":    3.0,
		},
		ResidentialServiceRates: []ServiceRate{
			{Key: "packing", Label: "Service d'emballage", Percent: 0.30},
			{Key: "assembly", Label: "Montage et démontage", Percent: 0.20},
			{Key: "storage", Label: "Entreposage", Flat: 200},
		},
		CommercialServiceRates: []ServiceRate{
			{Key: "packing", Label: "Service d'emballage", Percent: 0.40},
			{Key: "assembly", Label: "Montage et démontage", Percent: 0.30},
			{Key: "after-hours", Label: "Déménagement hors heures", Percent: 0.25},
			{Key: "storage", Label: "Entreposage", Flat: 200},
		},
		ComplexItemFees: []ComplexItemFee{
			{Key: "piano", Label: "Piano", Fee: 300},
			{Key: "safebox", Label: "Coffre-fort", Fee: 200},
			{Key: "art", Label: "Œuvres d'art", Fee: 250},
		},
		RatePerKm: 1.50,
		TaxRate:   0.15,
	}
}

// Compute derives the price breakdown for a collected request. It is a pure
// total function: the same request always produces the same breakdown, and
// unrecognized enum values price as the neutral multiplier.
func Compute(req Request, rates Rates) Breakdown {
	var b Breakdown

	switch req.ServiceType {
	case ServiceCommercial:
		base := rates.BaseCommercial
		base *= multiplier(rates.EstablishmentMultipliers, req.EstablishmentType)
		base *= multiplier(rates.SizeMultipliers, req.RoomsOrSize)
		b.add(LabelCommercial, base)
		b.applyServices(rates.CommercialServiceRates, req.Services)
	default:
		base := rates.BaseResidential
		base *= multiplier(rates.ResidenceMultipliers, req.ResidenceType)
		base *= multiplier(rates.RoomsMultipliers, req.RoomsOrSize)
		base *= multiplier(rates.FloorMultipliers, req.FloorLevel)
		b.add(LabelResidential, base)
		b.applyServices(rates.ResidentialServiceRates, req.Services)
		b.applyComplexItems(rates.ComplexItemFees, req.ComplexItems)
	}

	if req.DistanceKm > 0 {
		b.add(LabelDistance, req.DistanceKm*rates.RatePerKm)
	}

	b.BasePrice = b.sum()
	b.Tax = math.Round(b.BasePrice * rates.TaxRate)
	b.Items = append(b.Items, LineItem{Label: LabelTaxes, Amount: b.Tax})
	b.Total = int64(math.Round(b.BasePrice + b.Tax))
	return b
}

// Range brackets a computed total with the ±25% band shown on the result
// page and in the confirmation email.
func Range(total int64) PriceRange {
	return PriceRange{
		Min: int64(math.Round(float64(total) * 0.75)),
		Max: int64(math.Round(float64(total) * 1.25)),
	}
}

func (b *Breakdown) add(label string, amount float64) {
	b.Items = append(b.Items, LineItem{Label: label, Amount: amount})
}

func (b *Breakdown) sum() float64 {
	var total float64
	for _, item := range b.Items {
		total += item.Amount
	}
	return total
}

// applyServices walks the rate table in its fixed order so the result does
// not depend on the order fields arrived in.
func (b *Breakdown) applyServices(table []ServiceRate, selected []string) {
	chosen := toSet(selected)
	for _, rate := range table {
		if !chosen[rate.Key] {
			continue
		}
		if rate.Percent > 0 {
			b.add(rate.Label, b.sum()*rate.Percent)
		} else {
			b.add(rate.Label, rate.Flat)
		}
	}
}

func (b *Breakdown) applyComplexItems(table []ComplexItemFee, selected []string) {
	chosen := toSet(selected)
	for _, item := range table {
		if chosen[item.Key] {
			b.add(item.Label, item.Fee)
		}
	}
}

func multiplier(table map[string]float64, key string) float64 {
	if m, ok := table[key]; ok {
		return m
	}
	return 1.0
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}
