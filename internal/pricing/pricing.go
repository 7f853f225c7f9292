package pricing

import (
	"errors"

	"hexagono-backend/internal/i18n"
)

var ErrUnknownService = errors.New("unknown service type")

const Currency = "ARS"

const (
	ServiceLandingPage  = "LANDING_PAGE"
	ServiceCorporateWeb = "CORPORATE_WEB"
	ServiceEcommerce    = "ECOMMERCE"
	ServiceSocialMedia  = "SOCIAL_MEDIA"
)

// Base prices and feature costs are immutable configuration; nothing mutates
// these maps after init, so concurrent reads need no locking.
var basePrices = map[string]int64{
	ServiceLandingPage:  170000,
	ServiceCorporateWeb: 250000,
	ServiceEcommerce:    400000,
	ServiceSocialMedia:  120000,
}

var featureCosts = map[string]int64{
	"seo-optimization":      50000,
	"responsive-design":     30000,
	"cms-integration":       60000,
	"payment-gateway":       80000,
	"multi-language":        45000,
	"blog-section":          35000,
	"analytics-setup":       25000,
	"custom-forms":          20000,
	"whatsapp-integration":  15000,
	"social-media-calendar": 40000,
}

type FeatureLine struct {
	Name string `json:"name" bson:"name"`
	Cost int64  `json:"cost" bson:"cost"`
}

type Estimate struct {
	BasePrice     int64         `json:"basePrice"`
	Features      []FeatureLine `json:"features"`
	TotalEstimate int64         `json:"totalEstimate"`
	Currency      string        `json:"currency"`
	Disclaimer    string        `json:"disclaimer"`
}

func IsValidService(serviceType string) bool {
	_, ok := basePrices[serviceType]
	return ok
}

func BasePrice(serviceType string) (int64, bool) {
	price, ok := basePrices[serviceType]
	return price, ok
}

func FeatureCost(featureID string) (int64, bool) {
	cost, ok := featureCosts[featureID]
	return cost, ok
}

// Calculate is pure: the same inputs always yield the same estimate. Feature
// ids not present in the cost table are ignored, so the total only ever
// accounts for recognized features. customRequirements does not affect the
// number; it is carried on the quote for the admin to price manually.
func Calculate(serviceType string, features []string, customRequirements string) (Estimate, error) {
	base, ok := basePrices[serviceType]
	if !ok {
		return Estimate{}, ErrUnknownService
	}

	lines := make([]FeatureLine, 0, len(features))
	total := base
	for _, id := range features {
		cost, ok := featureCosts[id]
		if !ok {
			continue
		}
		lines = append(lines, FeatureLine{Name: id, Cost: cost})
		total += cost
	}

	return Estimate{
		BasePrice:     base,
		Features:      lines,
		TotalEstimate: total,
		Currency:      Currency,
		Disclaimer:    i18n.T(i18n.MsgDisclaimer),
	}, nil
}
