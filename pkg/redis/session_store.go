package redis

import (
	"context"
	"time"
)

// SessionStore persists scs session payloads in Redis. It satisfies both
// scs.Store and scs.CtxStore.
type SessionStore struct {
	client *Client
}

func NewSessionStore(client *Client) *SessionStore {
	return &SessionStore{client: client}
}

func (s *SessionStore) Find(token string) ([]byte, bool, error) {
	return s.FindCtx(context.Background(), token)
}

func (s *SessionStore) Commit(token string, b []byte, expiry time.Time) error {
	return s.CommitCtx(context.Background(), token, b, expiry)
}

func (s *SessionStore) Delete(token string) error {
	return s.DeleteCtx(context.Background(), token)
}

func (s *SessionStore) FindCtx(ctx context.Context, token string) ([]byte, bool, error) {
	value, err := s.client.Get(ctx, s.client.SessionKey(token))
	if IsNil(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(value), true, nil
}

func (s *SessionStore) CommitCtx(ctx context.Context, token string, b []byte, expiry time.Time) error {
	ttl := time.Until(expiry)
	if ttl <= 0 {
		return s.DeleteCtx(ctx, token)
	}
	return s.client.Set(ctx, s.client.SessionKey(token), b, ttl)
}

func (s *SessionStore) DeleteCtx(ctx context.Context, token string) error {
	return s.client.Del(ctx, s.client.SessionKey(token))
}
