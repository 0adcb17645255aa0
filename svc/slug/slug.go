// Package slug turns internal numeric pasta ids into public, obfuscated
// locators and back. Both strategies are pure functions of the id: no
// lookup table, collision-free by construction.
package slug

import "github.com/pkg/errors"

const (
	SchemeHashID = "hashid"
	SchemeAnimal = "animal"
)

// Codec is a stateless bijection between ids and public slugs.
// decode(encode(id)) == id holds for every id the strategy can represent:
// the full uint64 range for the animal strategy, [0, 2^63) for hashid.
type Codec interface {
	Encode(id uint64) string
	Decode(s string) (uint64, error)
}

// New selects the encoding strategy. The salt only affects the hashid
// strategy; changing it after pastas exist breaks their public URLs.
func New(scheme, salt string) (Codec, error) {
	switch scheme {
	case SchemeHashID:
		return newHashIDCodec(salt)
	case SchemeAnimal:
		return newAnimalCodec(), nil
	default:
		return nil, errors.Errorf("unknown slug scheme %q", scheme)
	}
}
