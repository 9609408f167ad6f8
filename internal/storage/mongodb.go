package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/akarpov/weatherbot/internal/domain"
	"github.com/akarpov/weatherbot/internal/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoRepository implements a MongoDB-backed profile repository
type MongoRepository struct {
	client     *mongo.Client
	collection *mongo.Collection
	logger     *logger.Logger
}

// mongoUser is a MongoDB representation of a user profile
type mongoUser struct {
	ChatID   int64    `bson:"_id"`
	Language string   `bson:"language,omitempty"`
	Lat      *float64 `bson:"lat,omitempty"`
	Lon      *float64 `bson:"lon,omitempty"`
	Label    string   `bson:"label,omitempty"`
	Timezone string   `bson:"timezone,omitempty"`
	SubHour  *int     `bson:"sub_hour,omitempty"`
	SubMin   *int     `bson:"sub_min,omitempty"`
}

func toMongoUser(chatID int64, p *domain.UserProfile) mongoUser {
	m := mongoUser{ChatID: chatID, Language: p.Language}
	if p.Home != nil {
		lat, lon := p.Home.Lat, p.Home.Lon
		m.Lat = &lat
		m.Lon = &lon
		m.Label = p.Home.Label
		m.Timezone = p.Home.Timezone
	}
	if p.Subscription != nil {
		h, min := p.Subscription.Hour, p.Subscription.Minute
		m.SubHour = &h
		m.SubMin = &min
	}
	return m
}

func (m mongoUser) toProfile() *domain.UserProfile {
	p := &domain.UserProfile{Language: m.Language}
	if m.Lat != nil && m.Lon != nil {
		p.Home = &domain.Home{
			Lat:      *m.Lat,
			Lon:      *m.Lon,
			Label:    m.Label,
			Timezone: m.Timezone,
		}
	}
	if m.SubHour != nil && m.SubMin != nil {
		p.Subscription = &domain.Subscription{
			Hour:   *m.SubHour,
			Minute: *m.SubMin,
		}
	}
	return p
}

// NewMongoRepository creates a new MongoDB repository
func NewMongoRepository(ctx context.Context, connStr string, logger *logger.Logger) (*MongoRepository, error) {
	clientOptions := options.Client().ApplyURI(connStr)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctxPing, readpref.Primary()); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	// Database name comes from the connection string path
	parts := strings.Split(connStr, "/")
	if len(parts) < 2 {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("invalid MongoDB connection string")
	}

	dbName := strings.Split(parts[len(parts)-1], "?")[0]
	if dbName == "" {
		dbName = "weatherbot"
	}

	collection := client.Database(dbName).Collection("users")

	return &MongoRepository{
		client:     client,
		collection: collection,
		logger:     logger,
	}, nil
}

func (r *MongoRepository) mapMongoError(err error, op string) error {
	if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "connection") {
		r.logger.Error("Database connection issue", "op", op, "error", err)
		return domain.ErrStorageUnavailable
	}
	return fmt.Errorf("database error: %w", err)
}

// GetUser finds a user profile by chat ID
func (r *MongoRepository) GetUser(ctx context.Context, chatID int64) (*domain.UserProfile, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var m mongoUser
	err := r.collection.FindOne(ctxWithTimeout, bson.M{"_id": chatID}).Decode(&m)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, r.mapMongoError(err, "get")
	}
	return m.toProfile(), nil
}

// SaveUser inserts or replaces a user profile
func (r *MongoRepository) SaveUser(ctx context.Context, chatID int64, profile *domain.UserProfile) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctxWithTimeout, bson.M{"_id": chatID}, toMongoUser(chatID, profile), opts)
	if err != nil {
		return r.mapMongoError(err, "save")
	}

	r.logger.Debug("User saved to MongoDB", "chat_id", chatID)
	return nil
}

// DeleteUser removes a user profile, reporting whether one existed
func (r *MongoRepository) DeleteUser(ctx context.Context, chatID int64) (bool, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := r.collection.DeleteOne(ctxWithTimeout, bson.M{"_id": chatID})
	if err != nil {
		return false, r.mapMongoError(err, "delete")
	}
	return result.DeletedCount > 0, nil
}

// AllUsers returns every stored user profile keyed by chat ID
func (r *MongoRepository) AllUsers(ctx context.Context) (map[int64]*domain.UserProfile, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cursor, err := r.collection.Find(ctxWithTimeout, bson.M{})
	if err != nil {
		return nil, r.mapMongoError(err, "list")
	}
	defer cursor.Close(ctxWithTimeout)

	out := make(map[int64]*domain.UserProfile)
	for cursor.Next(ctxWithTimeout) {
		var m mongoUser
		if err := cursor.Decode(&m); err != nil {
			r.logger.Warn("Skipping undecodable user document", "error", err)
			continue
		}
		out[m.ChatID] = m.toProfile()
	}
	if err := cursor.Err(); err != nil {
		return nil, r.mapMongoError(err, "list")
	}
	return out, nil
}

// Close disconnects from MongoDB
func (r *MongoRepository) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return r.client.Disconnect(ctx)
}
