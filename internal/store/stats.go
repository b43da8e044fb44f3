package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type countCollection interface {
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
}

// UserStats summarizes the users collection.
type UserStats struct {
	Total      int64 `json:"total"`
	Registered int64 `json:"registered"`
}

// StatsProvider exposes collection counts for diagnostics without leaking
// MongoDB internals to callers.
type StatsProvider struct {
	users countCollection
}

// NewStatsProvider constructs a StatsProvider backed by the users collection.
func NewStatsProvider(users countCollection) *StatsProvider {
	return &StatsProvider{users: users}
}

// UserStats counts all user documents and those carrying a Telegram user_id.
func (p *StatsProvider) UserStats(ctx context.Context) (UserStats, error) {
	if ctx == nil {
		return UserStats{}, errors.New("context is required")
	}
	if p == nil || p.users == nil {
		return UserStats{}, errors.New("stats provider is not initialized")
	}

	total, err := p.users.CountDocuments(ctx, bson.D{})
	if err != nil {
		return UserStats{}, fmt.Errorf("count users: %w", err)
	}

	registered, err := p.users.CountDocuments(ctx, bson.D{{Key: "user_id", Value: bson.D{{Key: "$exists", Value: true}}}})
	if err != nil {
		return UserStats{}, fmt.Errorf("count registered users: %w", err)
	}

	return UserStats{Total: total, Registered: registered}, nil
}
