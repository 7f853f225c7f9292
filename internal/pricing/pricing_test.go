package pricing

import (
	"reflect"
	"testing"
)

func TestCalculateLandingPageWithFeatures(t *testing.T) {
	estimate, err := Calculate(ServiceLandingPage, []string{"seo-optimization", "responsive-design"}, "")
	if err != nil {
		t.Fatalf("Calculate error: %v", err)
	}
	if estimate.BasePrice != 170000 {
		t.Fatalf("expected base 170000, got %d", estimate.BasePrice)
	}
	if estimate.TotalEstimate != 250000 {
		t.Fatalf("expected total 250000, got %d", estimate.TotalEstimate)
	}
	if len(estimate.Features) != 2 {
		t.Fatalf("expected 2 feature lines, got %d", len(estimate.Features))
	}
	if estimate.Currency != "ARS" {
		t.Fatalf("expected ARS currency, got %q", estimate.Currency)
	}
	if estimate.Disclaimer == "" {
		t.Fatalf("expected non-empty disclaimer")
	}
}

func TestCalculateSumsAllKnownFeatures(t *testing.T) {
	for serviceType := range basePrices {
		features := make([]string, 0, len(featureCosts))
		var want int64
		for id, cost := range featureCosts {
			features = append(features, id)
			want += cost
		}
		want += basePrices[serviceType]

		estimate, err := Calculate(serviceType, features, "")
		if err != nil {
			t.Fatalf("Calculate(%s) error: %v", serviceType, err)
		}
		if estimate.TotalEstimate != want {
			t.Fatalf("Calculate(%s): expected total %d, got %d", serviceType, want, estimate.TotalEstimate)
		}
	}
}

func TestCalculateEmptyFeatures(t *testing.T) {
	estimate, err := Calculate(ServiceEcommerce, nil, "")
	if err != nil {
		t.Fatalf("Calculate error: %v", err)
	}
	if estimate.TotalEstimate != estimate.BasePrice {
		t.Fatalf("expected total == base for empty features, got %d vs %d", estimate.TotalEstimate, estimate.BasePrice)
	}
	if len(estimate.Features) != 0 {
		t.Fatalf("expected no feature lines, got %d", len(estimate.Features))
	}
}

func TestCalculateIgnoresUnknownFeatures(t *testing.T) {
	estimate, err := Calculate(ServiceSocialMedia, []string{"responsive-design", "does-not-exist"}, "")
	if err != nil {
		t.Fatalf("Calculate error: %v", err)
	}
	if len(estimate.Features) != 1 {
		t.Fatalf("expected 1 feature line, got %d", len(estimate.Features))
	}
	if estimate.TotalEstimate != 120000+30000 {
		t.Fatalf("expected total 150000, got %d", estimate.TotalEstimate)
	}
}

func TestCalculateUnknownService(t *testing.T) {
	if _, err := Calculate("MOBILE_APP", nil, ""); err != ErrUnknownService {
		t.Fatalf("expected ErrUnknownService, got %v", err)
	}
}

func TestCalculateIsDeterministic(t *testing.T) {
	features := []string{"seo-optimization", "cms-integration", "blog-section"}
	first, err := Calculate(ServiceCorporateWeb, features, "algo extra")
	if err != nil {
		t.Fatalf("Calculate error: %v", err)
	}
	second, err := Calculate(ServiceCorporateWeb, features, "algo extra")
	if err != nil {
		t.Fatalf("Calculate error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical estimates, got %+v vs %+v", first, second)
	}
}
