package orders

import (
	"strconv"
	"strings"
	"time"
)

const (
	trackingAlphabet   = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	trackingSuffixSize = 5
)

// trackingNumber renders prefix + epoch millis + random base-36 suffix.
// Uniqueness is probabilistic; two orders in the same millisecond collide
// with chance 36^-5.
func trackingNumber(prefix string, now time.Time, intN func(int) int) string {
	var b strings.Builder
	b.Grow(len(prefix) + 13 + trackingSuffixSize)
	b.WriteString(prefix)
	b.WriteString(strconv.FormatInt(now.UnixMilli(), 10))
	for i := 0; i < trackingSuffixSize; i++ {
		b.WriteByte(trackingAlphabet[intN(len(trackingAlphabet))])
	}
	return b.String()
}
