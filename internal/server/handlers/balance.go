package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/tekiplanet/payflow/internal/application/ledgersvc"
	"github.com/tekiplanet/payflow/internal/domain"
	"github.com/tekiplanet/payflow/pkg/currency"
)

type BalanceHandler struct {
	ledgerSvc     ledgersvc.ILedgerService
	currencyUtils *currency.CurrencyUtils
	logger        zerolog.Logger
}

func NewBalanceHandler(ledgerSvc ledgersvc.ILedgerService, logger zerolog.Logger) *BalanceHandler {
	return &BalanceHandler{
		ledgerSvc:     ledgerSvc,
		currencyUtils: currency.NewCurrencyUtils(),
		logger:        logger,
	}
}

type balanceView struct {
	domain.Balance
	AvailableDisplay string `json:"available_display"`
}

// GetBalance always reflects the authoritative ledger; there is no cached
// read path.
func (h *BalanceHandler) GetBalance(c *gin.Context) {
	userID := c.GetString("user_id")

	balance, err := h.ledgerSvc.GetAvailableBalance(c.Request.Context(), userID)
	if err != nil {
		h.logger.Err(err).Str("user_id", userID).Msg("Failed to fetch balance")
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, balanceView{
		Balance:          *balance,
		AvailableDisplay: h.currencyUtils.Format(balance.AvailableCents, balance.CurrencyCode),
	})
}
