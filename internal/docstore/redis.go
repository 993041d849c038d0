package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisStore keeps each couple's settings document as a JSON value and
// fans out changes over Pub/Sub. Merge-writes run inside an optimistic
// WATCH transaction so two members writing near-simultaneously cannot
// clobber each other's top-level fields.
type RedisStore struct {
	client  *redis.Client
	retries int
	chanBuf int
	logger  zerolog.Logger
}

// NewRedisStore creates a Redis-backed document store. chanBuf sizes the
// per-subscription event channel.
func NewRedisStore(client *redis.Client, retries, chanBuf int, logger zerolog.Logger) *RedisStore {
	if retries <= 0 {
		retries = 5
	}
	if chanBuf <= 0 {
		chanBuf = 16
	}
	return &RedisStore{
		client:  client,
		retries: retries,
		chanBuf: chanBuf,
		logger:  logger.With().Str("component", "docstore").Logger(),
	}
}

func settingsKey(coupleID uuid.UUID) string {
	return fmt.Sprintf("couple:settings:%s", coupleID.String())
}

func eventsChannel(coupleID uuid.UUID) string {
	return fmt.Sprintf("couple:settings:events:%s", coupleID.String())
}

// Read fetches the current settings document.
func (s *RedisStore) Read(ctx context.Context, coupleID uuid.UUID) (*Settings, error) {
	data, err := s.client.Get(ctx, settingsKey(coupleID)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}
	return decodeSettings(data)
}

// MergeWrite shallow-merges the given top-level fields into the document.
// The full updated document is published to subscribers on success.
func (s *RedisStore) MergeWrite(ctx context.Context, coupleID uuid.UUID, fields map[string]json.RawMessage) error {
	key := settingsKey(coupleID)

	txn := func(tx *redis.Tx) error {
		merged := make(map[string]json.RawMessage)

		data, err := tx.Get(ctx, key).Bytes()
		if err != nil && err != redis.Nil {
			return fmt.Errorf("read current settings: %w", err)
		}
		if err == nil {
			if jsonErr := json.Unmarshal(data, &merged); jsonErr != nil {
				return fmt.Errorf("decode current settings: %w", jsonErr)
			}
		}

		for name, raw := range fields {
			merged[name] = raw
		}

		payload, err := json.Marshal(merged)
		if err != nil {
			return fmt.Errorf("encode settings: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, 0)
			pipe.Publish(ctx, eventsChannel(coupleID), payload)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < s.retries; attempt++ {
		err := s.client.Watch(ctx, txn, key)
		if err == nil {
			return nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			// Another member touched the document first; retry on top of it.
			continue
		}
		return err
	}
	return fmt.Errorf("merge write: retries exhausted for couple %s", coupleID)
}

// Update applies fn to the field's current bytes inside the WATCH
// transaction. A concurrent writer fails the transaction and the whole
// read-modify-write reruns against the new document, so fn never commits
// a result computed from stale bytes.
func (s *RedisStore) Update(ctx context.Context, coupleID uuid.UUID, field string, fn func(current json.RawMessage) (json.RawMessage, error)) error {
	key := settingsKey(coupleID)

	txn := func(tx *redis.Tx) error {
		merged := make(map[string]json.RawMessage)

		data, err := tx.Get(ctx, key).Bytes()
		if err != nil && err != redis.Nil {
			return fmt.Errorf("read current settings: %w", err)
		}
		if err == nil {
			if jsonErr := json.Unmarshal(data, &merged); jsonErr != nil {
				return fmt.Errorf("decode current settings: %w", jsonErr)
			}
		}

		next, err := fn(merged[field])
		if err != nil {
			return err
		}
		if next == nil {
			return nil
		}
		merged[field] = next

		payload, err := json.Marshal(merged)
		if err != nil {
			return fmt.Errorf("encode settings: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, 0)
			pipe.Publish(ctx, eventsChannel(coupleID), payload)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < s.retries; attempt++ {
		err := s.client.Watch(ctx, txn, key)
		if err == nil {
			return nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("update: retries exhausted for couple %s", coupleID)
}

// Subscribe delivers the current snapshot, then every published change.
func (s *RedisStore) Subscribe(ctx context.Context, coupleID uuid.UUID, fn func(*Settings)) (func(), error) {
	pubsub := s.client.Subscribe(ctx, eventsChannel(coupleID))

	// Force the subscription onto the wire before the initial snapshot so
	// no change can slip between snapshot and listen.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("subscribe: %w", err)
	}

	if snapshot, err := s.Read(ctx, coupleID); err == nil {
		fn(snapshot)
	} else if !errors.Is(err, ErrNotFound) {
		pubsub.Close()
		return nil, err
	}

	events := pubsub.Channel(redis.WithChannelSize(s.chanBuf))
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case msg, ok := <-events:
				if !ok {
					return
				}
				settings, err := decodeSettings([]byte(msg.Payload))
				if err != nil {
					s.logger.Warn().Err(err).Str("couple_id", coupleID.String()).Msg("skip malformed settings event")
					continue
				}
				fn(settings)
			}
		}
	}()

	unsubscribe := func() {
		close(done)
		pubsub.Close()
	}
	return unsubscribe, nil
}

func decodeSettings(data []byte) (*Settings, error) {
	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	return &Settings{Fields: fields}, nil
}
