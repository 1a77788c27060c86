package memstore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/verimail/internal/domain"
)

func fresh(owner, value string, ttl time.Duration) *domain.Credential {
	now := time.Now().UTC().Unix()
	return &domain.Credential{
		OwnerID:      owner,
		Value:        value,
		CredentialID: "01TEST",
		Email:        "a@b.com",
		CreatedAt:    now,
		ExpiresAt:    now + int64(ttl/time.Second),
	}
}

func TestConsume_HappyPath_ThenAlreadyConsumed(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, fresh("u1", "123456", 2*time.Minute)))

	c, err := s.Consume(ctx, "u1", "123456", time.Now().UTC())
	require.NoError(t, err)
	assert.True(t, c.Consumed)
	assert.Equal(t, "a@b.com", c.Email)

	_, err = s.Consume(ctx, "u1", "123456", time.Now().UTC())
	assert.True(t, errors.Is(err, domain.ErrAlreadyConsumed))
}

func TestConsume_NeverIssued_ReturnsNotFound(t *testing.T) {
	s := New()
	_, err := s.Consume(context.Background(), "u1", "999999", time.Now().UTC())
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestConsume_WrongOwner_ReturnsNotFound(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, fresh("u1", "123456", 2*time.Minute)))
	_, err := s.Consume(ctx, "u2", "123456", time.Now().UTC())
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestConsume_AtOrAfterExpiry_ReturnsExpired(t *testing.T) {
	s := New()
	ctx := context.Background()
	c := fresh("u1", "123456", time.Minute)
	require.NoError(t, s.Put(ctx, c))

	// Exactly at expires_at the credential is already unusable.
	at := time.Unix(c.ExpiresAt, 0)
	_, err := s.Consume(ctx, "u1", "123456", at)
	assert.True(t, errors.Is(err, domain.ErrExpired))

	_, err = s.Consume(ctx, "u1", "123456", at.Add(time.Hour))
	assert.True(t, errors.Is(err, domain.ErrExpired))
}

// 1000 concurrent redemptions of one credential: exactly one winner, the
// rest observe AlreadyConsumed. No double-success, no lost update.
func TestConsume_Concurrent_SingleSuccess(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, fresh("u1", "654321", time.Hour)))

	const n = 1000
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		consumed  int
	)
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := s.Consume(ctx, "u1", "654321", time.Now().UTC())
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, domain.ErrAlreadyConsumed):
				consumed++
			default:
				t.Errorf("unexpected outcome: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, n-1, consumed)
}

func TestGetNewestByOwner(t *testing.T) {
	s := New()
	ctx := context.Background()

	_, err := s.GetNewestByOwner(ctx, "u1")
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	older := fresh("u1", "first", time.Hour)
	older.CreatedAt -= 100
	require.NoError(t, s.Put(ctx, older))
	require.NoError(t, s.Put(ctx, fresh("u1", "second", time.Hour)))

	newest, err := s.GetNewestByOwner(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "second", newest.Value)
}

func TestDeleteByOwner_SparesException(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, fresh("u1", "old1", time.Hour)))
	require.NoError(t, s.Put(ctx, fresh("u1", "old2", time.Hour)))
	require.NoError(t, s.Put(ctx, fresh("u1", "keep", time.Hour)))

	require.NoError(t, s.DeleteByOwner(ctx, "u1", "keep"))

	_, err := s.Consume(ctx, "u1", "old1", time.Now().UTC())
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	_, err = s.Consume(ctx, "u1", "old2", time.Now().UTC())
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	_, err = s.Consume(ctx, "u1", "keep", time.Now().UTC())
	assert.NoError(t, err)
}

// Outstanding credentials for other owners are untouched by issuance churn.
func TestPut_IsolatedPerOwner(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, fresh("u1", "aaa", time.Hour)))
	require.NoError(t, s.Put(ctx, fresh("u2", "aaa", time.Hour)))

	_, err := s.Consume(ctx, "u1", "aaa", time.Now().UTC())
	require.NoError(t, err)
	_, err = s.Consume(ctx, "u2", "aaa", time.Now().UTC())
	require.NoError(t, err)
}
