package checkout

import (
	"crypto/rand"
	"fmt"
	"time"
)

const (
	orderCodePrefix     = "ORD"
	orderCodeSuffixLen  = 6
	orderCodeAlphabet   = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	defaultCodeRetries  = 5
	orderCodeTimeLayout = "200601"
)

// GenerateOrderCode builds a customer-facing order code like ORD202506-K7M2QX.
// The month prefix keeps codes roughly sortable; the random suffix avoids a
// sequence table. Collisions are possible and handled by the caller retrying
// against the unique index.
func GenerateOrderCode(now time.Time) (string, error) {
	buf := make([]byte, orderCodeSuffixLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	for i, b := range buf {
		buf[i] = orderCodeAlphabet[int(b)%len(orderCodeAlphabet)]
	}
	return orderCodePrefix + now.UTC().Format(orderCodeTimeLayout) + "-" + string(buf), nil
}
