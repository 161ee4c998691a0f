package sessionrepo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/tekiplanet/payflow/internal/domain"
	"github.com/tekiplanet/payflow/pkg/config"
)

// submissionSlotTTL caps how long an in-flight claim can outlive a crashed
// submission before the slot frees itself.
const submissionSlotTTL = 2 * time.Minute

type RedisSessionRepository struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

func NewRedis(cfg config.RedisConfig, sessionTTL time.Duration, logger zerolog.Logger) ISessionRepository {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return &RedisSessionRepository{
		client: client,
		ttl:    sessionTTL,
		logger: logger,
	}
}

func sessionKey(sessionID string) string {
	return "payflow:session:" + sessionID
}

func submissionKey(sessionID string) string {
	return "payflow:session:" + sessionID + ":inflight"
}

func (r *RedisSessionRepository) Save(ctx context.Context, session *domain.WorkflowSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session %s: %w", session.SessionID, err)
	}

	if err := r.client.Set(ctx, sessionKey(session.SessionID), data, r.ttl).Err(); err != nil {
		r.logger.Err(err).Str("session_id", session.SessionID).Msg("Failed to save session")
		return fmt.Errorf("failed to save session %s: %w", session.SessionID, err)
	}
	return nil
}

func (r *RedisSessionRepository) Get(ctx context.Context, sessionID string) (*domain.WorkflowSession, error) {
	data, err := r.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, domain.ErrSessionNotFound
		}
		r.logger.Err(err).Str("session_id", sessionID).Msg("Failed to get session")
		return nil, fmt.Errorf("failed to get session %s: %w", sessionID, err)
	}

	var session domain.WorkflowSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session %s: %w", sessionID, err)
	}
	return &session, nil
}

func (r *RedisSessionRepository) Delete(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, sessionKey(sessionID), submissionKey(sessionID)).Err(); err != nil {
		r.logger.Err(err).Str("session_id", sessionID).Msg("Failed to delete session")
		return fmt.Errorf("failed to delete session %s: %w", sessionID, err)
	}
	return nil
}

func (r *RedisSessionRepository) TryBeginSubmission(ctx context.Context, sessionID string) (bool, error) {
	ok, err := r.client.SetNX(ctx, submissionKey(sessionID), "1", submissionSlotTTL).Result()
	if err != nil {
		r.logger.Err(err).Str("session_id", sessionID).Msg("Failed to claim submission slot")
		return false, fmt.Errorf("failed to claim submission slot for session %s: %w", sessionID, err)
	}
	return ok, nil
}

func (r *RedisSessionRepository) EndSubmission(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, submissionKey(sessionID)).Err(); err != nil {
		r.logger.Err(err).Str("session_id", sessionID).Msg("Failed to release submission slot")
		return fmt.Errorf("failed to release submission slot for session %s: %w", sessionID, err)
	}
	return nil
}
