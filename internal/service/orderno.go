package service

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"
)

const orderSuffixSpace = 36 * 36 * 36 * 36 * 36

// OrderNumberFunc produces a candidate order number. Uniqueness is enforced by
// the database, so collisions only cost a retry.
type OrderNumberFunc func() string

// NewOrderNumber returns ORD-<unix millis>-<5 uppercase base36 chars>.
func NewOrderNumber() string {
	return orderNumberAt(time.Now(), rand.Int63n(orderSuffixSpace))
}

func orderNumberAt(t time.Time, n int64) string {
	suffix := strings.ToUpper(strconv.FormatInt(n, 36))
	if len(suffix) < 5 {
		suffix = strings.Repeat("0", 5-len(suffix)) + suffix
	}
	return fmt.Sprintf("ORD-%d-%s", t.UnixMilli(), suffix)
}
