package order

import (
	"fmt"
	"math/rand"
	"time"
)

const (
	orderNumPrefix    = "ORD"
	orderNumCharset   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	orderNumSuffixLen = 4
)

func init() {
	rand.Seed(time.Now().UnixNano())
}

// newOrderNumber generates an order number of the form ORD-123456-A1B2:
// the low 6 digits of the current epoch-millisecond timestamp plus a random
// suffix. Collisions are not formally bounded; the unique constraint on the
// column catches the unlucky case.
func newOrderNumber() string {
	millis := time.Now().UnixNano() / int64(time.Millisecond)
	suffix := make([]byte, orderNumSuffixLen)
	for i := range suffix {
		suffix[i] = orderNumCharset[rand.Intn(len(orderNumCharset))]
	}
	return fmt.Sprintf("%s-%06d-%s", orderNumPrefix, millis%1000000, suffix)
}
