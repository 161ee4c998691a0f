package navigation

import (
	"net/url"

	"github.com/tekiplanet/payflow/internal/domain/interfaces"
	"github.com/tekiplanet/payflow/pkg/config"
)

type navigator struct {
	fundingURL string
}

// New builds the Navigator from the configured funding destination. What
// happens at that URL is outside the engine; sessions resume via the
// workflow resume endpoint afterwards.
func New(cfg config.WorkflowConfig) interfaces.Navigator {
	return &navigator{
		fundingURL: cfg.FundingURL,
	}
}

func (n *navigator) FundingURL(userID string) string {
	u, err := url.Parse(n.fundingURL)
	if err != nil {
		return n.fundingURL
	}
	q := u.Query()
	q.Set("user_id", userID)
	u.RawQuery = q.Encode()
	return u.String()
}
