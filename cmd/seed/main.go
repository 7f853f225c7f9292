package main

import (
	"context"
	"log"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"hexagono-backend/internal/auth"
	"hexagono-backend/internal/config"
	"hexagono-backend/internal/db"
	"hexagono-backend/internal/quotes"
)

type seedQuote struct {
	ClientName  string
	ClientEmail string
	ServiceType string
	Features    []string
	Status      string
	AgeHours    int
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, cols, err := db.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatal(err)
	}
	defer client.Disconnect(context.Background())

	if err := db.EnsureIndexes(ctx, cols); err != nil {
		log.Fatal(err)
	}

	seedAdmin(ctx, cfg, cols)

	demo := []seedQuote{
		{ClientName: "Ana García", ClientEmail: "ana@example.com", ServiceType: "LANDING_PAGE", Features: []string{"seo-optimization", "responsive-design"}, Status: quotes.StatusPending, AgeHours: 72},
		{ClientName: "Bruno Díaz", ClientEmail: "bruno@example.com", ServiceType: "ECOMMERCE", Features: []string{"payment-gateway", "seo-optimization"}, Status: quotes.StatusInReview, AgeHours: 24},
		{ClientName: "Carla Suárez", ClientEmail: "carla@example.com", ServiceType: "CORPORATE_WEB", Features: nil, Status: quotes.StatusPending, AgeHours: 1},
	}

	for i, d := range demo {
		createdAt := time.Now().In(cfg.Timezone).Add(-time.Duration(d.AgeHours) * time.Hour)
		quote := quotes.Quote{
			ID:          primitive.NewObjectID().Hex(),
			QuoteNumber: quotes.GenerateQuoteNumber(createdAt, i+1),
			AccessToken: quotes.GenerateAccessToken(),
			ClientName:  d.ClientName,
			ClientEmail: d.ClientEmail,
			ServiceType: d.ServiceType,
			Status:      d.Status,
			Priority:    quotes.PriorityMedium,
			StatusHistory: []quotes.StatusHistoryEntry{
				{NewStatus: quotes.StatusPending, ChangedBy: "system", CreatedAt: createdAt},
			},
			Notes:     []quotes.Note{},
			CreatedAt: createdAt,
			UpdatedAt: createdAt,
		}

		filter := bson.M{"client_email": d.ClientEmail, "service_type": d.ServiceType}
		update := bson.M{"$setOnInsert": quoteToBSON(quote)}
		if _, err := cols.Quotes.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
			log.Printf("seed quote %s: %v", d.ClientEmail, err)
			continue
		}
		log.Printf("seeded quote %s (%s)", quote.QuoteNumber, d.ClientEmail)
	}
}

func seedAdmin(ctx context.Context, cfg *config.Config, cols *db.Collections) {
	username := os.Getenv("SEED_ADMIN_USER")
	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if username == "" || password == "" {
		log.Println("SEED_ADMIN_USER/SEED_ADMIN_PASSWORD not set, skipping admin seed")
		return
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		log.Fatal(err)
	}

	now := time.Now().In(cfg.Timezone)
	filter := bson.M{"username": username}
	update := bson.M{
		"$setOnInsert": bson.M{
			"_id":           primitive.NewObjectID().Hex(),
			"username":      username,
			"password_hash": hash,
			"role":          "admin",
			"created_at":    now,
			"updated_at":    now,
		},
	}
	if _, err := cols.Users.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
		log.Fatal(err)
	}
	log.Printf("seeded admin user %s", username)
}

func quoteToBSON(quote quotes.Quote) bson.M {
	return bson.M{
		"_id":            quote.ID,
		"quote_number":   quote.QuoteNumber,
		"access_token":   quote.AccessToken,
		"client_name":    quote.ClientName,
		"client_email":   quote.ClientEmail,
		"service_type":   quote.ServiceType,
		"status":         quote.Status,
		"priority":       quote.Priority,
		"features":       quote.Features,
		"status_history": quote.StatusHistory,
		"quote_notes":    quote.Notes,
		"reminder_count": quote.ReminderCount,
		"created_at":     quote.CreatedAt,
		"updated_at":     quote.UpdatedAt,
	}
}
