package quote

import (
	"reflect"
	"testing"
)

func TestCompute_Residential(t *testing.T) {
	rates := DefaultRates()

	tests := []struct {
		name          string
		req           Request
		wantBasePrice float64
		wantTotal     int64
	}{
		{
			name: "minimal apartment",
			req: Request{
				ServiceType:   ServiceResidential,
				ResidenceType: "apartment",
				RoomsOrSize:   "1-2",
				FloorLevel:    "ground-floor",
			},
			wantBasePrice: 500,
			wantTotal:     575,
		},
		{
			name: "family house with packing",
			req: Request{
				ServiceType:   ServiceResidential,
				ResidenceType: "family-house",
				RoomsOrSize:   "3-4",
				FloorLevel:    "2nd-floor",
				Services:      []string{"packing"},
			},
			wantBasePrice: 1755, // 500*1.5*1.5*1.2 = 1350, +30% = 1755
			wantTotal:     2018,
		},
		{
			name: "condo with all services and complex items",
			req: Request{
				ServiceType:   ServiceResidential,
				ResidenceType: "condo",
				RoomsOrSize:   "1-2",
				FloorLevel:    "ground-floor",
				Services:      []string{"packing", "assembly", "storage"},
				ComplexItems:  []string{"piano", "safebox", "art"},
			},
			// 600 → +180 (packing) → +156 (assembly) → +200 → +300+200+250
			wantBasePrice: 1886,
			wantTotal:     2169, // tax round(282.9) = 283
		},
		{
			name: "unknown enums fall back to neutral multipliers",
			req: Request{
				ServiceType:   ServiceResidential,
				ResidenceType: "castle",
				RoomsOrSize:   "does-not-exist",
				FloorLevel:    "",
			},
			wantBasePrice: 500,
			wantTotal:     575,
		},
		{
			name: "distance adds its own line item",
			req: Request{
				ServiceType:   ServiceResidential,
				ResidenceType: "apartment",
				RoomsOrSize:   "1-2",
				FloorLevel:    "ground-floor",
				DistanceKm:    100,
			},
			wantBasePrice: 650, // 500 + 100*1.50
			wantTotal:     748, // tax round(97.5) = 98
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compute(tt.req, rates)
			if got.BasePrice != tt.wantBasePrice {
				t.Errorf("BasePrice = %v, want %v", got.BasePrice, tt.wantBasePrice)
			}
			if got.Total != tt.wantTotal {
				t.Errorf("Total = %v, want %v", got.Total, tt.wantTotal)
			}
		})
	}
}

func TestCompute_Commercial(t *testing.T) {
	rates := DefaultRates()

	got := Compute(Request{
		ServiceType:       ServiceCommercial,
		EstablishmentType: "restaurant",
		RoomsOrSize:       "301-500",
	}, rates)

	if got.BasePrice != 3000 {
		t.Errorf("BasePrice = %v, want 3000", got.BasePrice)
	}
	if got.Total != 3450 {
		t.Errorf("Total = %v, want 3450", got.Total)
	}
	if got.Items[0].Label != LabelCommercial {
		t.Errorf("first line = %q, want %q", got.Items[0].Label, LabelCommercial)
	}
}

func TestCompute_CommercialServiceOrder(t *testing.T) {
	rates := DefaultRates()

	got := Compute(Request{
		ServiceType:       ServiceCommercial,
		EstablishmentType: "office",
		RoomsOrSize:       "0-100",
		Services:          []string{"storage", "after-hours", "assembly", "packing"},
	}, rates)

	// 1000 → +400 (packing 40%) → +420 (assembly 30%) → +455 (after-hours
	// 25%) → +200 (storage flat) = 2475 before tax.
	if got.BasePrice != 2475 {
		t.Errorf("BasePrice = %v, want 2475", got.BasePrice)
	}
	if got.Total != 2846 {
		t.Errorf("Total = %v, want 2846", got.Total)
	}

	wantOrder := []string{
		LabelCommercial,
		"Service d'emballage",
		"Montage et démontage",
		"Déménagement hors heures",
		"Entreposage",
		LabelTaxes,
	}
	for i, label := range wantOrder {
		if got.Items[i].Label != label {
			t.Errorf("item %d = %q, want %q", i, got.Items[i].Label, label)
		}
	}
}

func TestCompute_InputOrderIndependent(t *testing.T) {
	rates := DefaultRates()

	base := Request{
		ServiceType:   ServiceResidential,
		ResidenceType: "duplex",
		RoomsOrSize:   "5-6",
		FloorLevel:    "3rd-floor-plus",
	}

	a := base
	a.Services = []string{"storage", "packing", "assembly"}
	a.ComplexItems = []string{"art", "piano"}

	b := base
	b.Services = []string{"assembly", "storage", "packing"}
	b.ComplexItems = []string{"piano", "art"}

	if !reflect.DeepEqual(Compute(a, rates), Compute(b, rates)) {
		t.Error("breakdown depends on field arrival order")
	}
}

func TestCompute_Idempotent(t *testing.T) {
	rates := DefaultRates()
	req := Request{
		ServiceType:   ServiceResidential,
		ResidenceType: "family-house",
		RoomsOrSize:   "7+",
		FloorLevel:    "2nd-floor",
		Services:      []string{"packing", "storage"},
		ComplexItems:  []string{"safebox"},
		DistanceKm:    42,
	}

	first := Compute(req, rates)
	for i := 0; i < 10; i++ {
		if got := Compute(req, rates); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d differs from first result", i)
		}
	}
}

func TestCompute_BreakdownSumsToBasePrice(t *testing.T) {
	rates := DefaultRates()
	got := Compute(Request{
		ServiceType:   ServiceResidential,
		ResidenceType: "condo",
		RoomsOrSize:   "3-4",
		FloorLevel:    "2nd-floor",
		Services:      []string{"packing", "assembly", "storage"},
		ComplexItems:  []string{"piano"},
		DistanceKm:    30,
	}, rates)

	var preTax float64
	for _, item := range got.Items {
		if item.Amount < 0 {
			t.Errorf("negative line item %q: %v", item.Label, item.Amount)
		}
		if item.Label != LabelTaxes {
			preTax += item.Amount
		}
	}
	if preTax != got.BasePrice {
		t.Errorf("pre-tax sum = %v, BasePrice = %v", preTax, got.BasePrice)
	}
	if got.Items[len(got.Items)-1].Label != LabelTaxes {
		t.Error("tax is not the last line item")
	}
}

func TestRange(t *testing.T) {
	r := Range(1000)
	if r.Min != 750 || r.Max != 1250 {
		t.Errorf("Range(1000) = %+v, want {750 1250}", r)
	}
}
