package session

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"gatehouse/internal/auth/models"
	id "gatehouse/pkg/domain"
	"gatehouse/pkg/platform/pagination"
	"gatehouse/pkg/platform/sentinel"
)

// RedisStore keeps sessions in Redis: one hash per session, a per-user set
// of session ids, and a global index sorted by creation time. Field names in
// the hash match the persisted column names so tooling can read either
// backend.
type RedisStore struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func sessionKey(sessionID id.SessionID) string { return "session:" + sessionID.String() }
func userKey(userID id.UserID) string          { return "user_sessions:" + userID.String() }

const indexKey = "sessions:index"

// sessionTTL matches the cookie Max-Age. After the cookie expires the hash
// is unreachable anyway, so Redis may reclaim it; the per-user and global
// index entries are skipped lazily once the hash is gone.
const sessionTTL = 604800 * time.Second

func (s *RedisStore) Create(ctx context.Context, session *models.Session) error {
	key := sessionKey(session.ID)

	created, err := s.client.HSetNX(ctx, key, "id", session.ID.String()).Result()
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	if !created {
		return sentinel.ErrConflict
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key,
		"user_id", session.UserID.String(),
		"secret_hash", session.SecretHash,
		"ip", session.IP,
		"agent", session.Agent,
		"last_used_at", session.LastUsedAt.Format(time.RFC3339Nano),
		"created_at", session.CreatedAt.Format(time.RFC3339Nano),
	)
	pipe.Expire(ctx, key, sessionTTL)
	pipe.SAdd(ctx, userKey(session.UserID), session.ID.String())
	pipe.ZAdd(ctx, indexKey, redis.Z{
		Score:  float64(session.CreatedAt.UnixNano()),
		Member: session.ID.String(),
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (s *RedisStore) FindActiveByID(ctx context.Context, sessionID id.SessionID) (*models.Session, error) {
	session, err := s.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Revoked() {
		return nil, sentinel.ErrNotFound
	}
	return session, nil
}

func (s *RedisStore) FindByID(ctx context.Context, sessionID id.SessionID) (*models.Session, error) {
	fields, err := s.client.HGetAll(ctx, sessionKey(sessionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("find session: %w", err)
	}
	if len(fields) == 0 {
		return nil, sentinel.ErrNotFound
	}
	return sessionFromHash(fields)
}

func (s *RedisStore) Touch(ctx context.Context, sessionID id.SessionID, now time.Time) error {
	key := sessionKey(sessionID)
	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	if exists == 0 {
		return sentinel.ErrNotFound
	}
	if err := s.client.HSet(ctx, key, "last_used_at", now.Format(time.RFC3339Nano)).Err(); err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	return nil
}

// Revoke uses HSETNX so the tombstone is written at most once; concurrent
// double-revokes both succeed and observe the first writer's timestamp.
func (s *RedisStore) Revoke(ctx context.Context, sessionID id.SessionID, now time.Time) (*models.Session, error) {
	key := sessionKey(sessionID)
	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("revoke session: %w", err)
	}
	if exists == 0 {
		return nil, sentinel.ErrNotFound
	}
	if err := s.client.HSetNX(ctx, key, "revoked_at", now.Format(time.RFC3339Nano)).Err(); err != nil {
		return nil, fmt.Errorf("revoke session: %w", err)
	}
	return s.FindByID(ctx, sessionID)
}

func (s *RedisStore) ListByUser(ctx context.Context, userID id.UserID, includeRevoked bool) ([]*models.Session, error) {
	ids, err := s.client.SMembers(ctx, userKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("list sessions by user: %w", err)
	}
	sessions, err := s.fetch(ctx, ids, includeRevoked)
	if err != nil {
		return nil, err
	}
	sortNewestFirst(sessions)
	return sessions, nil
}

func (s *RedisStore) FindLatestActiveByUser(ctx context.Context, userID id.UserID) (*models.Session, error) {
	sessions, err := s.ListByUser(ctx, userID, false)
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, sentinel.ErrNotFound
	}
	return sessions[0], nil
}

func (s *RedisStore) List(ctx context.Context, page pagination.Page, includeRevoked bool) ([]*models.Session, int, error) {
	ids, err := s.client.ZRevRange(ctx, indexKey, 0, -1).Result()
	if err != nil {
		return nil, 0, fmt.Errorf("list sessions: %w", err)
	}
	sessions, err := s.fetch(ctx, ids, includeRevoked)
	if err != nil {
		return nil, 0, err
	}
	sortNewestFirst(sessions)
	start, end := page.Slice(len(sessions))
	return sessions[start:end], len(sessions), nil
}

func (s *RedisStore) fetch(ctx context.Context, ids []string, includeRevoked bool) ([]*models.Session, error) {
	sessions := make([]*models.Session, 0, len(ids))
	for _, raw := range ids {
		sessionID, err := id.ParseSessionID(raw)
		if err != nil {
			continue // skip corrupt index entries
		}
		session, err := s.FindByID(ctx, sessionID)
		if err != nil {
			if err == sentinel.ErrNotFound {
				continue
			}
			return nil, err
		}
		if session.Revoked() && !includeRevoked {
			continue
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}

func sessionFromHash(fields map[string]string) (*models.Session, error) {
	sessionID, err := id.ParseSessionID(fields["id"])
	if err != nil {
		return nil, fmt.Errorf("decode session id: %w", err)
	}
	userID, err := id.ParseUserID(fields["user_id"])
	if err != nil {
		return nil, fmt.Errorf("decode session user_id: %w", err)
	}
	lastUsed, err := time.Parse(time.RFC3339Nano, fields["last_used_at"])
	if err != nil {
		return nil, fmt.Errorf("decode session last_used_at: %w", err)
	}
	created, err := time.Parse(time.RFC3339Nano, fields["created_at"])
	if err != nil {
		return nil, fmt.Errorf("decode session created_at: %w", err)
	}

	session := &models.Session{
		ID:         sessionID,
		UserID:     userID,
		SecretHash: fields["secret_hash"],
		IP:         fields["ip"],
		Agent:      fields["agent"],
		LastUsedAt: lastUsed,
		CreatedAt:  created,
	}
	if raw, ok := fields["revoked_at"]; ok && raw != "" {
		revoked, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return nil, fmt.Errorf("decode session revoked_at: %w", err)
		}
		session.RevokedAt = &revoked
	}
	return session, nil
}
