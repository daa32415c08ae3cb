package session

import (
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookshelf/internal/user"
)

func signed(t *testing.T, exp time.Time) string {
	t.Helper()
	c := Claims{
		Email: "ada@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "7",
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(exp.Add(-time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte("backend-secret"))
	require.NoError(t, err)
	return token
}

func TestStore_LoginLogout(t *testing.T) {
	s := New()

	_, _, ok := s.Current()
	assert.False(t, ok)

	u := user.User{ID: 7, FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"}
	s.Login(u, "tok")

	got, token, ok := s.Current()
	assert.True(t, ok)
	assert.Equal(t, u, got)
	assert.Equal(t, "tok", token)
	assert.Equal(t, "tok", s.Token())
	assert.Equal(t, 7, s.User().ID)

	s.Logout()
	_, token, ok = s.Current()
	assert.False(t, ok)
	assert.Empty(t, token)
	assert.Equal(t, user.User{}, s.User())
}

func TestStore_Authorize(t *testing.T) {
	now := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

	t.Run("no token", func(t *testing.T) {
		assert.ErrorIs(t, New().Authorize(now), ErrUnauthenticated)
	})

	t.Run("live jwt", func(t *testing.T) {
		s := New()
		s.Login(user.User{ID: 7}, signed(t, now.Add(time.Hour)))
		assert.NoError(t, s.Authorize(now))
	})

	t.Run("expired jwt", func(t *testing.T) {
		s := New()
		s.Login(user.User{ID: 7}, signed(t, now.Add(-time.Minute)))
		assert.ErrorIs(t, s.Authorize(now), ErrTokenExpired)
	})

	t.Run("opaque token", func(t *testing.T) {
		s := New()
		s.Login(user.User{ID: 7}, "not-a-jwt")
		assert.NoError(t, s.Authorize(now))
	})
}

func TestParseClaims(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	c, err := ParseClaims(signed(t, exp))
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", c.Email)
	assert.Equal(t, "7", c.Subject)

	got, ok := ExpiresAt(signed(t, exp))
	assert.True(t, ok)
	assert.True(t, exp.Equal(got))

	_, err = ParseClaims("invalid.token.here")
	assert.Error(t, err)
}

func TestStore_ConcurrentAccess(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				s.Login(user.User{ID: i}, "tok")
			} else {
				_, _, _ = s.Current()
				s.Logout()
			}
		}(i)
	}
	wg.Wait()
}
