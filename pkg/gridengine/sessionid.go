package gridengine

import (
	"strings"

	"github.com/google/uuid"
)

// newSessionID mints a fresh "<side>_<8-hex>" session identifier.
func newSessionID(side Side) string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return string(side) + "_" + hex
}
