// Package lnurl implements LUD-01 bech32 encoding of LNURL endpoints.
package lnurl

import (
	"errors"
	"strings"

	"github.com/btcsuite/btcd/btcutil/bech32"
)

const hrp = "lnurl"

// Encode converts an absolute URL to its uppercase LNURL bech32 form.
// LNURL strings routinely exceed the 90-character bech32 limit, which only
// applies to on-chain addresses, so no length cap here.
func Encode(url string) (string, error) {
	converted, err := bech32.ConvertBits([]byte(url), 8, 5, true)
	if err != nil {
		return "", err
	}
	encoded, err := bech32.Encode(hrp, converted)
	if err != nil {
		return "", err
	}
	return strings.ToUpper(encoded), nil
}

// Decode recovers the URL from an LNURL bech32 string.
func Decode(lnurl string) (string, error) {
	prefix, data, err := bech32.DecodeNoLimit(strings.ToLower(lnurl))
	if err != nil {
		return "", err
	}
	if prefix != hrp {
		return "", errors.New("not an lnurl string")
	}
	converted, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return "", err
	}
	return string(converted), nil
}
