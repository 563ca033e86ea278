package utils

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// NewID returns an identifier for a live connection. UUIDs when entropy
// is available, with a timestamp fallback so connections can always be
// told apart.
func NewID() string {
	if id, err := uuid.NewRandom(); err == nil {
		return id.String()
	}
	return strconv.FormatInt(time.Now().UnixNano(), 10)
}
