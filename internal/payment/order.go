package payment

import (
	"strings"

	"github.com/dchest/uniuri"
	"github.com/google/uuid"
)

// GenerateOrderID produces an 8-character uppercase order token from a
// random UUID prefix. No uniqueness check is performed against existing
// orders; at this volume the collision probability is negligible.
func GenerateOrderID() string {
	return strings.ToUpper(uuid.NewString()[:8])
}

// newNonce produces the short random token the gateway requires on every
// request.
func newNonce() string {
	return strings.ToLower(uniuri.NewLen(6))
}
