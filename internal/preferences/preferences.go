// Package preferences keeps each user's saved filter selection in Redis.
package preferences

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"collections-dashboard/internal/common/logger"
	"collections-dashboard/internal/filters"
)

const keyPrefix = "collections:filters:"

var ErrMissingUser = errors.New("user id is required")

type Store struct {
	client *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

// NewStore keeps selections for ttl; ttl <= 0 keeps them without expiry.
func NewStore(client *redis.Client, ttl time.Duration, log logger.Logger) *Store {
	return &Store{client: client, ttl: ttl, logger: log}
}

func Key(userID string) string {
	return keyPrefix + userID
}

// Get returns the saved selection, or an empty State when none is stored.
func (s *Store) Get(ctx context.Context, userID string) (filters.State, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrMissingUser
	}

	raw, err := s.client.Get(ctx, Key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return filters.State{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read saved filters: %w", err)
	}

	var state filters.State
	if err := json.Unmarshal(raw, &state); err != nil {
		// An unreadable entry is treated as no selection.
		s.logger.Warn("saved filters unreadable", map[string]interface{}{
			"userId": userID,
			"error":  err.Error(),
		})
		return filters.State{}, nil
	}
	if err := state.Validate(); err != nil {
		s.logger.Warn("saved filters no longer valid", map[string]interface{}{
			"userId": userID,
			"error":  err.Error(),
		})
		return filters.State{}, nil
	}
	return state.Normalize(), nil
}

// Save replaces the user's selection. An empty selection deletes it.
func (s *Store) Save(ctx context.Context, userID string, state filters.State) (filters.State, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrMissingUser
	}
	if err := state.Validate(); err != nil {
		return nil, err
	}

	state = state.Normalize()
	if len(state) == 0 {
		return state, s.Delete(ctx, userID)
	}

	raw, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("encode saved filters: %w", err)
	}
	if err := s.client.Set(ctx, Key(userID), raw, s.ttl).Err(); err != nil {
		return nil, fmt.Errorf("write saved filters: %w", err)
	}
	return state, nil
}

func (s *Store) Delete(ctx context.Context, userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ErrMissingUser
	}
	if err := s.client.Del(ctx, Key(userID)).Err(); err != nil {
		return fmt.Errorf("delete saved filters: %w", err)
	}
	return nil
}
