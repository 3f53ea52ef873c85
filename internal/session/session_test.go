package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSession(id, userID string) *Session {
	return &Session{
		ID:          id,
		UserID:      userID,
		Email:       userID + "@example.com",
		AccessToken: "token-" + id,
		ExpiresAt:   time.Now().Add(time.Hour),
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store, err := NewMemoryStore()
	require.NoError(t, err)

	require.NoError(t, store.Save(ctx, newSession("a", "u1")))
	require.NoError(t, store.Save(ctx, newSession("b", "u1")))
	require.NoError(t, store.Save(ctx, newSession("c", "u2")))

	got, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)

	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Delete(ctx, "a"))
	_, err = store.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)

	n, err := store.DeleteUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = store.Get(ctx, "c")
	assert.NoError(t, err)
}

func TestMemoryStoreDropsExpired(t *testing.T) {
	ctx := context.Background()
	store, err := NewMemoryStore()
	require.NoError(t, err)

	s := newSession("old", "u1")
	s.ExpiresAt = time.Now().Add(-time.Minute)
	require.NoError(t, store.Save(ctx, s))

	_, err = store.Get(ctx, "old")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreCopiesOnSave(t *testing.T) {
	ctx := context.Background()
	store, err := NewMemoryStore()
	require.NoError(t, err)

	s := newSession("a", "u1")
	require.NoError(t, store.Save(ctx, s))
	s.Email = "changed@example.com"

	got, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "u1@example.com", got.Email)
}

func TestManagerLifecycle(t *testing.T) {
	ctx := context.Background()
	store, err := NewMemoryStore()
	require.NoError(t, err)
	m := NewManager(store)

	var kinds []Kind
	unsubscribe := m.Subscribe(func(e Event) { kinds = append(kinds, e.Kind) })

	s := newSession("a", "u1")
	require.NoError(t, m.Start(ctx, s))
	assert.False(t, s.CreatedAt.IsZero())

	got, err := m.Current(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "token-a", got.AccessToken)

	m.Signal(UserUpdated, got)
	require.NoError(t, m.End(ctx, got, false))

	_, err = m.Current(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, []Kind{SignedIn, UserUpdated, SignedOut}, kinds)

	unsubscribe()
	unsubscribe()
	m.Signal(UserUpdated, got)
	assert.Len(t, kinds, 3)
}

func TestManagerGlobalSignOut(t *testing.T) {
	ctx := context.Background()
	store, err := NewMemoryStore()
	require.NoError(t, err)
	m := NewManager(store)

	var last Event
	m.Subscribe(func(e Event) { last = e })

	a, b := newSession("a", "u1"), newSession("b", "u1")
	require.NoError(t, m.Start(ctx, a))
	require.NoError(t, m.Start(ctx, b))

	require.NoError(t, m.End(ctx, a, true))
	assert.Equal(t, SignedOut, last.Kind)
	assert.True(t, last.Global)
	assert.Equal(t, 2, last.Removed)

	_, err = m.Current(ctx, "b")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestManagerEndCountsRemovedSessions(t *testing.T) {
	ctx := context.Background()
	store, err := NewMemoryStore()
	require.NoError(t, err)
	m := NewManager(store)

	var removed []int
	m.Subscribe(func(e Event) {
		if e.Kind == SignedOut {
			removed = append(removed, e.Removed)
		}
	})

	s := newSession("a", "u1")
	require.NoError(t, m.Start(ctx, s))
	require.NoError(t, m.End(ctx, s, false))

	bearer := &Session{UserID: "u2", AccessToken: "token"}
	require.NoError(t, m.End(ctx, bearer, false))
	require.NoError(t, m.End(ctx, bearer, true))

	assert.Equal(t, []int{1, 0, 0}, removed)
}

func TestManagerCurrentEmptyID(t *testing.T) {
	store, err := NewMemoryStore()
	require.NoError(t, err)
	_, err = NewManager(store).Current(context.Background(), "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestManagerClose(t *testing.T) {
	store, err := NewMemoryStore()
	require.NoError(t, err)
	m := NewManager(store)

	calls := 0
	m.Subscribe(func(Event) { calls++ })
	m.Close()
	m.Subscribe(func(Event) { calls++ })

	m.Signal(SignedIn, newSession("a", "u1"))
	assert.Zero(t, calls)
}

func TestSessionTTL(t *testing.T) {
	now := time.Now()
	s := &Session{}
	assert.Equal(t, DefaultTTL, s.TTL(now))
	assert.False(t, s.Expired(now))

	s.ExpiresAt = now.Add(-time.Second)
	assert.True(t, s.Expired(now))
	assert.Equal(t, time.Second, s.TTL(now))
}

func TestHashIDIsStable(t *testing.T) {
	assert.Equal(t, hashID("abc"), hashID("abc"))
	assert.NotEqual(t, hashID("abc"), hashID("abd"))
	assert.Len(t, hashID("abc"), 64)
	assert.NotContains(t, sessionKey(hashID("abc")), "abc:")
}

func TestCookies(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	SetCookie(c, "abc", 3600, true)
	header := w.Header().Get("Set-Cookie")
	assert.Contains(t, header, CookieName+"=abc")
	assert.Contains(t, header, "HttpOnly")
	assert.Contains(t, header, "Secure")
	assert.Contains(t, header, "SameSite=Lax")
}

// Runs against a real server when REDIS_ADDR is set.
func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()
	client := goredis.NewClient(&goredis.Options{Addr: addr})
	defer client.Close()
	store := NewRedisStore(client)

	short := newSession("ra", "ru1")
	short.ExpiresAt = time.Now().Add(10 * time.Minute)
	require.NoError(t, store.Save(ctx, newSession("rb", "ru1")))
	require.NoError(t, store.Save(ctx, short))

	indexTTL, err := client.TTL(ctx, userKey("ru1")).Result()
	require.NoError(t, err)
	assert.Greater(t, indexTTL, 50*time.Minute, "a shorter session does not shorten the index")
	assert.LessOrEqual(t, indexTTL, time.Hour)

	got, err := store.Get(ctx, "ra")
	require.NoError(t, err)
	assert.Equal(t, "ru1", got.UserID)

	require.NoError(t, store.Delete(ctx, "ra"))
	_, err = store.Get(ctx, "ra")
	assert.ErrorIs(t, err, ErrNotFound)

	n, err := store.DeleteUser(ctx, "ru1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
