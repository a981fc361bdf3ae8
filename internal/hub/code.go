package hub

import (
	"crypto/rand"
	"math/big"
)

const (
	codeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLen     = 6
)

// GenerateCode returns a random six character room id from A-Z0-9.
func GenerateCode() (string, error) {
	base := big.NewInt(int64(len(codeCharset)))
	code := make([]byte, codeLen)
	for i := range code {
		n, err := rand.Int(rand.Reader, base)
		if err != nil {
			return "", err
		}
		code[i] = codeCharset[n.Int64()]
	}
	return string(code), nil
}
