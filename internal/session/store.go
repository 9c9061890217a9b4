/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"exchange-client-go/internal/models"
	"exchange-client-go/internal/store"

	"go.uber.org/zap"
)

// Store owns the authenticated session and is the only writer of the
// token and user slots.
type Store struct {
	mu      sync.Mutex
	slots   store.SlotStore
	current *models.Session
}

func NewStore(slots store.SlotStore) *Store {
	return &Store{slots: slots}
}

// Restore loads the session from storage. Missing, unreadable or corrupt slots
// yield no session; nothing is modified in that case.
func (s *Store) Restore(ctx context.Context) (*models.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, ok := s.readSlot(ctx, store.SlotToken)
	if !ok || token == "" {
		return nil, false
	}
	rawUser, ok := s.readSlot(ctx, store.SlotUser)
	if !ok {
		return nil, false
	}

	var user models.User
	if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
		zap.L().Warn("Stored user is not valid JSON, ignoring saved session", zap.Error(err))
		return nil, false
	}
	if user.Id <= 0 {
		zap.L().Warn("Stored user has no id, ignoring saved session")
		return nil, false
	}

	restored := models.Session{User: user, Token: token}
	s.current = &restored

	zap.L().Info("Session restored", zap.Int64("user_id", user.Id))
	out := restored
	return &out, true
}

func (s *Store) readSlot(ctx context.Context, slot string) (string, bool) {
	value, err := s.slots.Get(ctx, slot)
	if err != nil {
		if !errors.Is(err, store.ErrSlotNotFound) {
			zap.L().Warn("Failed to read session slot", zap.String("slot", slot), zap.Error(err))
		}
		return "", false
	}
	return value, true
}

// Establish persists both slots in one write and only then swaps the
// in-memory session.
func (s *Store) Establish(ctx context.Context, user models.User, token string) error {
	if token == "" {
		return fmt.Errorf("token is required")
	}
	if user.Id <= 0 {
		return fmt.Errorf("user id must be positive, got %d", user.Id)
	}

	encoded, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("unable to encode user: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err = s.slots.Save(ctx, map[string]string{
		store.SlotToken: token,
		store.SlotUser:  string(encoded),
	})
	if err != nil {
		zap.L().Error("Failed to persist session", zap.Int64("user_id", user.Id), zap.Error(err))
		return fmt.Errorf("unable to persist session: %w", err)
	}

	s.current = &models.Session{User: user, Token: token}
	zap.L().Info("Session established", zap.Int64("user_id", user.Id))
	return nil
}

// Clear removes the persisted and in-memory session. Calling it without a
// session is a no-op.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = nil
	if err := s.slots.Delete(ctx, store.SlotToken, store.SlotUser); err != nil {
		zap.L().Error("Failed to remove session slots", zap.Error(err))
		return fmt.Errorf("unable to clear session: %w", err)
	}
	return nil
}

// Current returns a copy of the in-memory session.
func (s *Store) Current() (models.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return models.Session{}, false
	}
	return *s.current, true
}
