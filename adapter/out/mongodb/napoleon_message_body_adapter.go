// Package mongodb implements MongoDB adapters for the application.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"napoleon_server/core/domain"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// =============================================================================
// MongoDB Message Body Adapter
// =============================================================================
//
// Postgres keeps only a body preview; the full raw body lives here and is
// fetched at analysis time. Bodies expire via a TTL index so the archive
// does not grow unbounded.

const (
	collectionMessageBodies = "message_bodies"

	// Bodies are re-fetchable from the source platform; keep 30 days.
	bodyTTLDays = 30
)

// MessageBodyAdapter implements domain.MessageBodyRepository using MongoDB.
type MessageBodyAdapter struct {
	collection *mongo.Collection
}

// NewMessageBodyAdapter creates a new message body adapter.
func NewMessageBodyAdapter(db *mongo.Database) *MessageBodyAdapter {
	return &MessageBodyAdapter{collection: db.Collection(collectionMessageBodies)}
}

// EnsureIndexes creates the lookup and TTL indexes for the collection.
func (a *MessageBodyAdapter) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "message_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0), // TTL index
		},
	}

	_, err := a.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

// messageBodyDocument represents the MongoDB document structure.
type messageBodyDocument struct {
	UserID    string    `bson:"user_id"`
	MessageID int64     `bson:"message_id"`
	Body      string    `bson:"body"`
	SavedAt   time.Time `bson:"saved_at"`
	ExpiresAt time.Time `bson:"expires_at"`
}

// Get returns the full body for a message.
func (a *MessageBodyAdapter) Get(ctx context.Context, userID uuid.UUID, messageID int64) (string, error) {
	filter := bson.M{"user_id": userID.String(), "message_id": messageID}

	var doc messageBodyDocument
	if err := a.collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", domain.ErrNotFound
		}
		return "", fmt.Errorf("failed to fetch message body: %w", err)
	}
	return doc.Body, nil
}

// Save upserts the full body for a message.
func (a *MessageBodyAdapter) Save(ctx context.Context, userID uuid.UUID, messageID int64, body string) error {
	now := time.Now()
	doc := messageBodyDocument{
		UserID:    userID.String(),
		MessageID: messageID,
		Body:      body,
		SavedAt:   now,
		ExpiresAt: now.AddDate(0, 0, bodyTTLDays),
	}

	opts := options.Replace().SetUpsert(true)
	filter := bson.M{"user_id": userID.String(), "message_id": messageID}

	if _, err := a.collection.ReplaceOne(ctx, filter, doc, opts); err != nil {
		return fmt.Errorf("failed to save message body: %w", err)
	}
	return nil
}

// Delete removes the stored body for a message.
func (a *MessageBodyAdapter) Delete(ctx context.Context, userID uuid.UUID, messageID int64) error {
	filter := bson.M{"user_id": userID.String(), "message_id": messageID}
	if _, err := a.collection.DeleteOne(ctx, filter); err != nil {
		return fmt.Errorf("failed to delete message body: %w", err)
	}
	return nil
}

// Ensure interface compliance
var _ domain.MessageBodyRepository = (*MessageBodyAdapter)(nil)
