package sessionrepo

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/tekiplanet/payflow/internal/domain"
)

// MemorySessionRepository is the single-process session store, used in
// development and tests. Sessions are stored as serialized copies so callers
// never share a mutable instance.
type MemorySessionRepository struct {
	mu       sync.Mutex
	sessions map[string][]byte
	inflight map[string]bool
}

func NewMemory() ISessionRepository {
	return &MemorySessionRepository{
		sessions: make(map[string][]byte),
		inflight: make(map[string]bool),
	}
}

func (r *MemorySessionRepository) Save(ctx context.Context, session *domain.WorkflowSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.SessionID] = data
	return nil
}

func (r *MemorySessionRepository) Get(ctx context.Context, sessionID string) (*domain.WorkflowSession, error) {
	r.mu.Lock()
	data, ok := r.sessions[sessionID]
	r.mu.Unlock()

	if !ok {
		return nil, domain.ErrSessionNotFound
	}

	var session domain.WorkflowSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *MemorySessionRepository) Delete(ctx context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID)
	delete(r.inflight, sessionID)
	return nil
}

func (r *MemorySessionRepository) TryBeginSubmission(ctx context.Context, sessionID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.inflight[sessionID] {
		return false, nil
	}
	r.inflight[sessionID] = true
	return true, nil
}

func (r *MemorySessionRepository) EndSubmission(ctx context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.inflight, sessionID)
	return nil
}
