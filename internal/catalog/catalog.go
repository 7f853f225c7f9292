package catalog

import (
	"hexagono-backend/internal/pricing"
)

type Feature struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Cost int64  `json:"cost"`
}

type Service struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	BasePrice   int64     `json:"basePrice"`
	Currency    string    `json:"currency"`
	Features    []Feature `json:"features"`
}

var serviceDetails = []struct {
	id          string
	name        string
	description string
	features    []string
}{
	{
		id:          pricing.ServiceLandingPage,
		name:        "Landing Page",
		description: "Página única enfocada en conversión, lista para campañas.",
		features:    []string{"seo-optimization", "responsive-design", "analytics-setup", "custom-forms", "whatsapp-integration"},
	},
	{
		id:          pricing.ServiceCorporateWeb,
		name:        "Sitio Corporativo",
		description: "Sitio institucional multi-sección con gestión de contenidos.",
		features:    []string{"seo-optimization", "responsive-design", "cms-integration", "multi-language", "blog-section", "analytics-setup", "custom-forms"},
	},
	{
		id:          pricing.ServiceEcommerce,
		name:        "Tienda Online",
		description: "E-commerce completo con catálogo, carrito y pagos.",
		features:    []string{"seo-optimization", "responsive-design", "cms-integration", "payment-gateway", "multi-language", "analytics-setup"},
	},
	{
		id:          pricing.ServiceSocialMedia,
		name:        "Gestión de Redes",
		description: "Gestión mensual de redes sociales con calendario de contenidos.",
		features:    []string{"social-media-calendar", "analytics-setup"},
	},
}

var featureNames = map[string]string{
	"seo-optimization":      "Optimización SEO",
	"responsive-design":     "Diseño responsive",
	"cms-integration":       "Integración CMS",
	"payment-gateway":       "Pasarela de pagos",
	"multi-language":        "Multi-idioma",
	"blog-section":          "Sección de blog",
	"analytics-setup":       "Configuración de analytics",
	"custom-forms":          "Formularios a medida",
	"whatsapp-integration":  "Integración WhatsApp",
	"social-media-calendar": "Calendario de contenidos",
}

// Services materializes the public catalog from the pricing tables so the
// numbers shown to visitors can never drift from what the engine charges.
func Services() []Service {
	out := make([]Service, 0, len(serviceDetails))
	for _, detail := range serviceDetails {
		base, ok := pricing.BasePrice(detail.id)
		if !ok {
			continue
		}
		features := make([]Feature, 0, len(detail.features))
		for _, id := range detail.features {
			cost, ok := pricing.FeatureCost(id)
			if !ok {
				continue
			}
			name := featureNames[id]
			if name == "" {
				name = id
			}
			features = append(features, Feature{ID: id, Name: name, Cost: cost})
		}
		out = append(out, Service{
			ID:          detail.id,
			Name:        detail.name,
			Description: detail.description,
			BasePrice:   base,
			Currency:    pricing.Currency,
			Features:    features,
		})
	}
	return out
}
