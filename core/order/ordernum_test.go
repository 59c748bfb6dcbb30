package order

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

var orderNumRegex = regexp.MustCompile(`^ORD-\d{6}-[A-Z0-9]{4}$`)

func TestNewOrderNumber(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		num := newOrderNumber()
		assert.Regexp(t, orderNumRegex, num)
		seen[num] = struct{}{}
	}
	// suffix randomness should keep same-millisecond numbers apart
	assert.Greater(t, len(seen), 1)
}
