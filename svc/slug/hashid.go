package slug

import (
	"math"

	"github.com/pkg/errors"
	hashids "github.com/speps/go-hashids/v2"
)

type hashIDCodec struct {
	h *hashids.HashID
}

func newHashIDCodec(salt string) (*hashIDCodec, error) {
	hd := hashids.NewData()
	hd.Salt = salt
	hd.MinLength = 6
	h, err := hashids.NewWithData(hd)
	if err != nil {
		return nil, errors.Wrap(err, "init hashids")
	}
	return &hashIDCodec{h: h}, nil
}

func (c *hashIDCodec) Encode(id uint64) string {
	if id > math.MaxInt64 {
		// Ids are drawn from a 16-bit range at creation; anything out of
		// the hashids int64 range cannot come from this process.
		return ""
	}
	s, err := c.h.EncodeInt64([]int64{int64(id)})
	if err != nil {
		return ""
	}
	return s
}

func (c *hashIDCodec) Decode(s string) (uint64, error) {
	nums, err := c.h.DecodeInt64WithError(s)
	if err != nil {
		return 0, errors.Wrap(err, "decode hashid")
	}
	if len(nums) != 1 || nums[0] < 0 {
		return 0, errors.Errorf("malformed hashid slug %q", s)
	}
	return uint64(nums[0]), nil
}
