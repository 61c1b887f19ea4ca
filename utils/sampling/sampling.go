// Package sampling implements the random byte generators used by the samplers
// and by the message padding, and their selection by engine identifier.
package sampling

import (
	"fmt"
	"io"
)

// RandomBytes returns n bytes read from prng.
func RandomBytes(prng PRNG, n int) (b []byte, err error) {
	b = make([]byte, n)
	if _, err = io.ReadFull(prng, b); err != nil {
		return nil, fmt.Errorf("cannot RandomBytes: %w", err)
	}
	return
}
