package utils

import (
	"crypto/rand"
	"math/big"
)

// RandomIndex returns a uniformly distributed index in [0, n). It returns 0
// when n <= 1 or the system source fails.
func RandomIndex(n int) int {
	if n <= 1 {
		return 0
	}
	num, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(num.Int64())
}
