package clerk

import (
	"crypto/sha256"
	"encoding/hex"

	crerr "github.com/cockroachdb/errors"
)

func transient(err error) error {
	return crerr.Mark(err, errClerkTransient)
}

func isCircuitFailure(err error) bool {
	return crerr.Is(err, errClerkTransient)
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func truncate(body []byte, limit int) string {
	if len(body) <= limit {
		return string(body)
	}
	return string(body[:limit]) + "...(truncated)"
}
