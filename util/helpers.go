package util

import (
	"crypto/rand"
	"encoding/hex"
	"io"
	"math/big"
	"regexp"
)

var validHexRegex = regexp.MustCompile("^([0-9a-fA-F])+$")

// IsHex checks if the given string contains only valid hex symbols
func IsHex(str string) bool { return validHexRegex.MatchString(str) }

// TrimHex removes the 0x prefix of an hexadecimal string, if present
func TrimHex(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}

// RandomBytes returns n bytes from the operating system entropy source.
func RandomBytes(n int) []byte {
	bytes := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, bytes); err != nil {
		panic(err)
	}
	return bytes
}

// RandomHex returns a hex encoded string of n random bytes.
func RandomHex(n int) string {
	return hex.EncodeToString(RandomBytes(n))
}

// RandomInt returns a uniform random integer in [min, max).
func RandomInt(min, max int) int {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(max-min)))
	if err != nil {
		panic(err)
	}
	return int(n.Int64()) + min
}
