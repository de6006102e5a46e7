// Package redis keeps model preferences in a single Redis hash,
// "{prefix}:models", with fields "dm", "slot:{n}", and "npc:{name}".
package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	goredis "github.com/redis/go-redis/v9"

	"github.com/cory-johannsen/dungeonmaster/internal/config"
	"github.com/cory-johannsen/dungeonmaster/internal/game/adventure"
)

const (
	fieldDM      = "dm"
	fieldSlotPre = "slot:"
	fieldNPCPre  = "npc:"
)

// PreferenceStore implements adventure.PreferenceStore over a Redis hash.
type PreferenceStore struct {
	client goredis.UniversalClient
	key    string
}

var _ adventure.PreferenceStore = (*PreferenceStore)(nil)

// NewPreferenceStore returns a store writing to the hash "{prefix}:models".
// An empty prefix selects "dm".
//
// Precondition: client must be non-nil.
func NewPreferenceStore(client goredis.UniversalClient, prefix string) *PreferenceStore {
	if prefix == "" {
		prefix = "dm"
	}
	return &PreferenceStore{client: client, key: prefix + ":models"}
}

// Dial connects to the server named by cfg and verifies it answers.
func Dial(ctx context.Context, cfg config.RedisConfig) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{Addr: cfg.Addr, DB: cfg.DB})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pinging redis at %s: %w", cfg.Addr, err)
	}
	return client, nil
}

// Key returns the hash key the store writes to.
func (s *PreferenceStore) Key() string { return s.key }

func (s *PreferenceStore) get(ctx context.Context, field string) (string, error) {
	v, err := s.client.HGet(ctx, s.key, field).Result()
	if errors.Is(err, goredis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading %s %s: %w", s.key, field, err)
	}
	return v, nil
}

func (s *PreferenceStore) set(ctx context.Context, field, model string) error {
	if err := s.client.HSet(ctx, s.key, field, model).Err(); err != nil {
		return fmt.Errorf("writing %s %s: %w", s.key, field, err)
	}
	return nil
}

// DMModel returns the stored narrator model, or "".
func (s *PreferenceStore) DMModel(ctx context.Context) (string, error) {
	return s.get(ctx, fieldDM)
}

// SetDMModel records the narrator model.
func (s *PreferenceStore) SetDMModel(ctx context.Context, model string) error {
	return s.set(ctx, fieldDM, model)
}

// SlotModel returns the model for party slot, or "".
func (s *PreferenceStore) SlotModel(ctx context.Context, slot int) (string, error) {
	return s.get(ctx, fieldSlotPre+strconv.Itoa(slot))
}

// SetSlotModel records the model for party slot.
func (s *PreferenceStore) SetSlotModel(ctx context.Context, slot int, model string) error {
	return s.set(ctx, fieldSlotPre+strconv.Itoa(slot), model)
}

// NPCModel returns the model recorded for the named NPC, or "".
func (s *PreferenceStore) NPCModel(ctx context.Context, name string) (string, error) {
	return s.get(ctx, fieldNPCPre+name)
}

// SetNPCModel records the model for the named NPC.
func (s *PreferenceStore) SetNPCModel(ctx context.Context, name, model string) error {
	return s.set(ctx, fieldNPCPre+name, model)
}
