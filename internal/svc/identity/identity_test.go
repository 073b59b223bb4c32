package identity

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/fabriq/collab/internal/testutil"
)

func sign(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()

	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	testutil.IsNil(t, err, "token signed")

	return s
}

func TestResolveValidToken(t *testing.T) {
	t.Parallel()

	token := sign(t, "s3cret", jwt.MapClaims{
		"u":   "u1",
		"n":   "Ann",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	id := New(Options{Token: token, Secret: "s3cret"})

	user, ok := id.Resolve()
	testutil.Assert(t, true, ok, "identity resolved")
	testutil.Assert(t, "u1", user.ID, "user id")
	testutil.Assert(t, "Ann", user.Name, "user name")

	testutil.Assert(t, true, id.SessionID() != "", "session id assigned")
	testutil.Assert(t, id.SessionID(), id.SessionID(), "session id stable")
}

func TestResolveExpiredToken(t *testing.T) {
	t.Parallel()

	token := sign(t, "s3cret", jwt.MapClaims{
		"u":   "u1",
		"n":   "Ann",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})

	_, ok := New(Options{Token: token, Secret: "s3cret"}).Resolve()
	testutil.Assert(t, false, ok, "expired token yields no identity")
}

func TestResolveGarbageToken(t *testing.T) {
	t.Parallel()

	_, ok := New(Options{Token: "not.a.token", Secret: "s3cret"}).Resolve()
	testutil.Assert(t, false, ok, "garbage token yields no identity")
}

func TestResolveWrongSecret(t *testing.T) {
	t.Parallel()

	token := sign(t, "other", jwt.MapClaims{
		"u":   "u1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	_, ok := New(Options{Token: token, Secret: "s3cret"}).Resolve()
	testutil.Assert(t, false, ok, "bad signature yields no identity")
}

func TestResolveNoToken(t *testing.T) {
	t.Parallel()

	id := New(Options{})

	_, ok := id.Resolve()
	testutil.Assert(t, false, ok, "no token yields no identity")
	testutil.Assert(t, true, id.SessionID() != "", "session id still assigned")
}
