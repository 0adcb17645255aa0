// Package expire maps symbolic lifetime tokens to absolute deadlines.
package expire

import (
	"macrobin/svc/util"

	"github.com/pkg/errors"
)

// TokenNever resolves to the eternal sentinel (expiration 0) when the
// server permits it, and to the 1week rule otherwise.
const TokenNever = "never"

var deltas = map[string]int64{
	"1min":   60,
	"10min":  60 * 10,
	"1hour":  60 * 60,
	"24hour": 60 * 60 * 24,
	"3days":  60 * 60 * 24 * 3,
	"1week":  60 * 60 * 24 * 7,
}

const weekSeconds = 60 * 60 * 24 * 7

// Known reports whether token is a recognized lifetime token.
func Known(token string) bool {
	if token == TokenNever {
		return true
	}
	_, ok := deltas[token]
	return ok
}

type Resolver struct {
	defaultToken string
	eternal      bool
}

// New validates the configured default token up front so that an
// unrecognized inbound token always lands on a concrete rule after a
// single fallback step.
func New(defaultToken string, eternal bool) (*Resolver, error) {
	if !Known(defaultToken) {
		return nil, errors.Errorf("default expiry token %q is not recognized", defaultToken)
	}
	return &Resolver{defaultToken: defaultToken, eternal: eternal}, nil
}

// Resolve maps (token, now) to an absolute epoch-seconds deadline. An
// empty or unrecognized token falls back to the default token, which is
// guaranteed recognized by New.
func (r *Resolver) Resolve(token string, now int64) int64 {
	if token == "" {
		token = r.defaultToken
	}
	if deadline, ok := r.resolveKnown(token, now); ok {
		return deadline
	}
	util.Warn().Str("token", token).Str("default", r.defaultToken).Msg("unexpected expiration token, using default")
	deadline, _ := r.resolveKnown(r.defaultToken, now)
	return deadline
}

func (r *Resolver) resolveKnown(token string, now int64) (int64, bool) {
	if token == TokenNever {
		if r.eternal {
			return 0, true
		}
		return now + weekSeconds, true
	}
	if d, ok := deltas[token]; ok {
		return now + d, true
	}
	return 0, false
}
