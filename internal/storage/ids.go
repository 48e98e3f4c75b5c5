package storage

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GenerateID returns a client-side identifier: the creation time in base36
// followed by a random suffix. Collisions are unlikely but not prevented.
func GenerateID() string {
	return generateIDAt(time.Now())
}

func generateIDAt(t time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strconv.FormatInt(t.UnixMilli(), 36) + suffix[:10]
}
