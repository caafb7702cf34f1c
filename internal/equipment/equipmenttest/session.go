package equipmenttest

import (
	"context"
	"sync"

	"github.com/frahmantamala/equipment-inventory/internal/auth"
)

// Session returns a live session holding the default capabilities of role.
func Session(role string) *auth.Session {
	return &auth.Session{
		ID:           "test-" + role,
		UserID:       1,
		Username:     "test." + role,
		FullName:     "Test " + role,
		Role:         role,
		Capabilities: auth.DefaultMatrix()[role],
	}
}

// RecordingConfirmer records every identifier it is asked to confirm and
// answers with Err.
type RecordingConfirmer struct {
	mu    sync.Mutex
	Asked []string
	Err   error
}

func (c *RecordingConfirmer) Confirm(_ context.Context, _ string, identifier string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Asked = append(c.Asked, identifier)
	return c.Err
}
