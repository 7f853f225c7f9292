package quotes

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Repository interface {
	Create(ctx context.Context, quote Quote) error
	GetByID(ctx context.Context, id string) (Quote, error)
	GetByAccessToken(ctx context.Context, token string) (Quote, error)
	List(ctx context.Context, filter ListFilter, limit, offset int64) ([]Quote, error)
	Count(ctx context.Context, filter ListFilter) (int64, error)
	UpdateStatus(ctx context.Context, id, previousStatus string, entry StatusHistoryEntry, now time.Time) (Quote, error)
	AddNote(ctx context.Context, id string, note Note, now time.Time) (Quote, error)
	UpdateAdminFields(ctx context.Context, id string, fields map[string]interface{}, now time.Time) (Quote, error)
	FindReminderEligible(ctx context.Context, status string, createdBefore time.Time) ([]Quote, error)
	MarkReminderSent(ctx context.Context, id string, at time.Time) error
}

type MongoRepository struct {
	col *mongo.Collection
}

func NewRepository(col *mongo.Collection) *MongoRepository {
	return &MongoRepository{col: col}
}

func (r *MongoRepository) Create(ctx context.Context, quote Quote) error {
	_, err := r.col.InsertOne(ctx, quote)
	return err
}

func (r *MongoRepository) GetByID(ctx context.Context, id string) (Quote, error) {
	var quote Quote
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&quote); err != nil {
		return Quote{}, err
	}
	return quote, nil
}

func (r *MongoRepository) GetByAccessToken(ctx context.Context, token string) (Quote, error) {
	var quote Quote
	if err := r.col.FindOne(ctx, bson.M{"access_token": token}).Decode(&quote); err != nil {
		return Quote{}, err
	}
	return quote, nil
}

func (r *MongoRepository) List(ctx context.Context, filter ListFilter, limit, offset int64) ([]Quote, error) {
	query := r.filterToBSON(filter)
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit).
		SetSkip(offset)

	cursor, err := r.col.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := make([]Quote, 0)
	for cursor.Next(ctx) {
		var quote Quote
		if err := cursor.Decode(&quote); err != nil {
			return nil, err
		}
		items = append(items, quote)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

func (r *MongoRepository) Count(ctx context.Context, filter ListFilter) (int64, error) {
	return r.col.CountDocuments(ctx, r.filterToBSON(filter))
}

// UpdateStatus sets the new status and appends the history entry in one
// document write; Mongo's single-document atomicity makes the pair a
// transactional unit. Filtering on the expected previous status means a
// concurrent transition loses with ErrNoDocuments instead of clobbering.
func (r *MongoRepository) UpdateStatus(ctx context.Context, id, previousStatus string, entry StatusHistoryEntry, now time.Time) (Quote, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	update := bson.M{
		"$set": bson.M{
			"status":     entry.NewStatus,
			"updated_at": now,
		},
		"$push": bson.M{
			"status_history": entry,
		},
	}

	var updated Quote
	filter := bson.M{"_id": id, "status": previousStatus}
	if err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated); err != nil {
		return Quote{}, err
	}
	return updated, nil
}

func (r *MongoRepository) AddNote(ctx context.Context, id string, note Note, now time.Time) (Quote, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	update := bson.M{
		"$set":  bson.M{"updated_at": now},
		"$push": bson.M{"quote_notes": note},
	}

	var updated Quote
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&updated); err != nil {
		return Quote{}, err
	}
	return updated, nil
}

func (r *MongoRepository) UpdateAdminFields(ctx context.Context, id string, fields map[string]interface{}, now time.Time) (Quote, error) {
	set := bson.M{"updated_at": now}
	for k, v := range fields {
		set[k] = v
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated Quote
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&updated); err != nil {
		return Quote{}, err
	}
	return updated, nil
}

func (r *MongoRepository) FindReminderEligible(ctx context.Context, status string, createdBefore time.Time) ([]Quote, error) {
	query := bson.M{
		"status":     status,
		"created_at": bson.M{"$lt": createdBefore},
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})

	cursor, err := r.col.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := make([]Quote, 0)
	for cursor.Next(ctx) {
		var quote Quote
		if err := cursor.Decode(&quote); err != nil {
			return nil, err
		}
		items = append(items, quote)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

func (r *MongoRepository) MarkReminderSent(ctx context.Context, id string, at time.Time) error {
	update := bson.M{
		"$set": bson.M{"last_reminder_at": at},
		"$inc": bson.M{"reminder_count": 1},
	}
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, update)
	return err
}

func (r *MongoRepository) filterToBSON(filter ListFilter) bson.M {
	query := bson.M{}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.ServiceType != "" {
		query["service_type"] = filter.ServiceType
	}
	if filter.Priority != "" {
		query["priority"] = filter.Priority
	}
	return query
}
