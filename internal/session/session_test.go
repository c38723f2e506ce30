package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testUser() User {
	return User{ID: 1, Name: "Alice", Email: "alice@example.com", Role: RoleCustomer}
}

func testTokens() Tokens {
	return Tokens{Access: Token{Token: "access-1", Expires: time.Now().Add(time.Hour)}}
}

func TestManagerLoginLogout(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	mgr := NewManager(store)

	require.Nil(t, mgr.Current())

	sess, err := mgr.Login(ctx, testUser(), testTokens())
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, RoleCustomer, sess.Role())
	assert.Equal(t, "access-1", sess.AccessToken())
	assert.Same(t, sess, mgr.Current())

	require.NoError(t, mgr.Logout(ctx))
	assert.Nil(t, mgr.Current())

	_, err = store.Load(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestManagerRejectsEmptyToken(t *testing.T) {
	mgr := NewManager(NewMemoryStore())
	_, err := mgr.Login(context.Background(), testUser(), Tokens{})
	assert.Error(t, err)
	assert.Nil(t, mgr.Current())
}

func TestManagerResume(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	mgr := NewManager(store)

	sess, err := mgr.Login(ctx, testUser(), testTokens())
	require.NoError(t, err)

	// A fresh manager over the same store picks the session back up.
	second := NewManager(store)
	resumed, err := second.Resume(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.User, resumed.User)
	assert.Equal(t, resumed, second.Current())
}

func TestGuestSemantics(t *testing.T) {
	var nilSess *Session
	assert.Empty(t, nilSess.AccessToken())
	assert.Empty(t, nilSess.Role())

	// A session without a token is also a guest.
	tokenless := &Session{User: testUser()}
	assert.Empty(t, tokenless.Role())
}

func TestRoleValid(t *testing.T) {
	assert.True(t, RoleAdmin.Valid())
	assert.True(t, RoleUser.Valid())
	assert.True(t, RoleCustomer.Valid())
	assert.False(t, Role("root").Valid())
	assert.False(t, Role("").Valid())
}

func newRedisStore(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, ttl), mr
}

func TestRedisStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, _ := newRedisStore(t, time.Hour)

	sess := &Session{ID: "abc", User: testUser(), Tokens: testTokens()}
	require.NoError(t, store.Save(ctx, sess))

	loaded, err := store.Load(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, sess.User, loaded.User)
	assert.Equal(t, "access-1", loaded.AccessToken())

	require.NoError(t, store.Delete(ctx, "abc"))
	_, err = store.Load(ctx, "abc")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestRedisStoreExpiry(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t, time.Minute)

	sess := &Session{ID: "abc", User: testUser(), Tokens: testTokens()}
	require.NoError(t, store.Save(ctx, sess))

	mr.FastForward(2 * time.Minute)
	_, err := store.Load(ctx, "abc")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestRedisStoreDeleteMissing(t *testing.T) {
	store, _ := newRedisStore(t, time.Minute)
	assert.NoError(t, store.Delete(context.Background(), "ghost"))
}
