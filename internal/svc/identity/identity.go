package identity

import (
	"fmt"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LocalUser is the authenticated user on whose behalf presence signals are
// broadcast.
type LocalUser struct {
	ID   string
	Name string
}

type Instance interface {
	// Resolve returns the local user, or false when no valid identity is
	// available. Callers treat the false case as "skip signaling".
	Resolve() (LocalUser, bool)
	SessionID() string
}

type Options struct {
	Token  string
	Secret string
}

type inst struct {
	user      LocalUser
	ok        bool
	sessionID string
}

type claims struct {
	UserID   string `json:"u"`
	UserName string `json:"n"`

	jwt.RegisteredClaims
}

// New resolves the local identity from the configured access token. A
// missing, expired or otherwise invalid token yields an absent identity
// rather than an error; signaling then no-ops.
func New(opt Options) Instance {
	i := &inst{sessionID: uuid.NewString()}

	if opt.Token == "" {
		return i
	}

	c := &claims{}

	if _, err := jwt.ParseWithClaims(opt.Token, c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("bad jwt signing method, expected HMAC but got %v", t.Header["alg"])
		}

		return []byte(opt.Secret), nil
	}); err != nil {
		zap.S().Warnw("local identity unavailable",
			"error", err,
		)

		return i
	}

	if c.UserID == "" {
		return i
	}

	i.user = LocalUser{ID: c.UserID, Name: c.UserName}
	i.ok = true

	return i
}

func (i *inst) Resolve() (LocalUser, bool) {
	return i.user, i.ok
}

func (i *inst) SessionID() string {
	return i.sessionID
}
