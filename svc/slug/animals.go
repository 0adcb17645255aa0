package slug

import (
	"strings"

	"github.com/pkg/errors"
)

// 64 words, so every word carries exactly 6 bits of the id. Order is part
// of the wire format: appending is safe, reordering is not.
var animals = [64]string{
	"ant", "bat", "bee", "bird", "boar", "bug", "cat", "clam",
	"cow", "crab", "crow", "deer", "dog", "dove", "duck", "eel",
	"elk", "emu", "fish", "fly", "fox", "frog", "gnat", "goat",
	"gull", "hare", "hawk", "hen", "hog", "ibex", "ibis", "kiwi",
	"koi", "lark", "lion", "loon", "lynx", "mole", "moth", "mouse",
	"mule", "newt", "owl", "ox", "pig", "pony", "pug", "quail",
	"ram", "rat", "ray", "robin", "seal", "slug", "snail", "swan",
	"swift", "toad", "trout", "wasp", "whale", "wolf", "worm", "wren",
}

var animalIndex = func() map[string]uint64 {
	m := make(map[string]uint64, len(animals))
	for i, w := range animals {
		m[w] = uint64(i)
	}
	return m
}()

type animalCodec struct{}

func newAnimalCodec() *animalCodec { return &animalCodec{} }

func (animalCodec) Encode(id uint64) string {
	if id == 0 {
		return animals[0]
	}
	var words []string
	for id > 0 {
		words = append(words, animals[id&63])
		id >>= 6
	}
	// Digits come out least-significant first; public slugs read
	// most-significant first.
	for i, j := 0, len(words)-1; i < j; i, j = i+1, j-1 {
		words[i], words[j] = words[j], words[i]
	}
	return strings.Join(words, "-")
}

func (animalCodec) Decode(s string) (uint64, error) {
	if s == "" {
		return 0, errors.New("empty animal slug")
	}
	words := strings.Split(s, "-")
	if len(words) > 11 {
		return 0, errors.Errorf("animal slug %q too long", s)
	}
	var id uint64
	for _, w := range words {
		idx, ok := animalIndex[w]
		if !ok {
			return 0, errors.Errorf("unknown animal %q in slug", w)
		}
		id = id<<6 | idx
	}
	return id, nil
}
