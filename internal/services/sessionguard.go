package services

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"

	"github.com/google/uuid"

	"github.com/yungbote/smart-advisor-backend/internal/types"
)

// sessionGuardCapacity bounds the recent-session set. Past it the oldest
// digest is evicted, so a long-evicted session may be regenerated without a
// duplicate warning. That is acceptable: the guard is advisory.
const sessionGuardCapacity = 10

// SessionGuard is a fixed-capacity FIFO set of session digests. It is
// consulted by the handler before invoking the pipeline, never by the
// pipeline itself.
type SessionGuard struct {
	mu   sync.Mutex
	keys []string
}

func NewSessionGuard() *SessionGuard {
	return &SessionGuard{}
}

// SessionKey derives an opaque digest from the serialized answer set, the
// content type and the user id. Collisions are tolerated.
func SessionKey(userID uuid.UUID, contentType string, answers types.AnswerSet) string {
	h := sha256.New()
	h.Write([]byte(userID.String()))
	h.Write([]byte{0})
	h.Write([]byte(contentType))
	h.Write([]byte{0})
	serialized, _ := json.Marshal(answers)
	h.Write(serialized)
	return hex.EncodeToString(h.Sum(nil))
}

// CheckAndRecord reports whether the key was already recorded; unseen keys
// are recorded, evicting the oldest entry past capacity.
func (g *SessionGuard) CheckAndRecord(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, k := range g.keys {
		if k == key {
			return true
		}
	}
	g.keys = append(g.keys, key)
	if len(g.keys) > sessionGuardCapacity {
		g.keys = g.keys[len(g.keys)-sessionGuardCapacity:]
	}
	return false
}

// Seen reports membership without recording.
func (g *SessionGuard) Seen(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, k := range g.keys {
		if k == key {
			return true
		}
	}
	return false
}
