package sessionrepo

import (
	"context"

	"github.com/tekiplanet/payflow/internal/domain"
)

// ISessionRepository stores workflow sessions for their short lifetime.
// Sessions are TTL-bounded and removed outright on terminal success,
// explicit cancel, or payable-item invalidation.
//
// TryBeginSubmission is the engine's single mutual-exclusion point: at most
// one payment submission may be in flight per session.
type ISessionRepository interface {
	Save(ctx context.Context, session *domain.WorkflowSession) error
	Get(ctx context.Context, sessionID string) (*domain.WorkflowSession, error)
	Delete(ctx context.Context, sessionID string) error

	// TryBeginSubmission atomically claims the in-flight submission slot
	// for a session. It returns false when a prior submission is still
	// pending.
	TryBeginSubmission(ctx context.Context, sessionID string) (bool, error)

	// EndSubmission releases the in-flight slot once the submission has
	// resolved (success, rejection, or timeout).
	EndSubmission(ctx context.Context, sessionID string) error
}
