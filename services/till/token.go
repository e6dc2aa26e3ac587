package till

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strconv"
)

// withdrawTokenLen keeps tokens short enough for QR-friendly URLs while
// leaving ~130 bits of MAC output, far beyond guessable.
const withdrawTokenLen = 22

// WithdrawToken derives the one-time withdraw capability for a till at a
// given ticker value. Deterministic for a fixed (id, ticker) pair; bumping
// the ticker invalidates every previously issued token. Keyed so that
// knowing a till's id and ticker is not enough to forge one.
func WithdrawToken(secret, tillID string, ticker int64) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(tillID))
	mac.Write([]byte(strconv.FormatInt(ticker, 10)))
	sum := mac.Sum(nil)
	return base64.RawURLEncoding.EncodeToString(sum)[:withdrawTokenLen]
}
