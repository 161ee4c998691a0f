package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/tekiplanet/payflow/internal/domain"
	"github.com/tekiplanet/payflow/internal/domain/interfaces"
	"github.com/tekiplanet/payflow/internal/domain/models"
)

type BankAccountHandler struct {
	bankClient interfaces.BankAccountsClient
	logger     zerolog.Logger
}

func NewBankAccountHandler(bankClient interfaces.BankAccountsClient, logger zerolog.Logger) *BankAccountHandler {
	return &BankAccountHandler{
		bankClient: bankClient,
		logger:     logger,
	}
}

// Verify resolves the account holder's name from the remote registry. The
// dashboard shows it for confirmation before the account is added.
func (h *BankAccountHandler) Verify(c *gin.Context) {
	var req models.VerifyBankAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Bad Request",
			"message": err.Error(),
		})
		return
	}

	resp, err := h.bankClient.Verify(c.Request.Context(), req.AccountNumber, req.BankCode)
	if err != nil {
		h.logger.Err(err).Str("bank_code", req.BankCode).Msg("Bank account verification failed")
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *BankAccountHandler) Add(c *gin.Context) {
	var account domain.BankAccount
	if err := c.ShouldBindJSON(&account); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Bad Request",
			"message": err.Error(),
		})
		return
	}

	account.UserID = c.GetString("user_id")

	// Accounts are only ever added verified; the name check runs first.
	verified, err := h.bankClient.Verify(c.Request.Context(), account.AccountNumber, account.BankCode)
	if err != nil {
		h.logger.Err(err).Str("bank_code", account.BankCode).Msg("Bank account verification failed")
		respondError(c, err)
		return
	}
	account.AccountName = verified.AccountName
	account.Verified = true
	account.CreatedAt = time.Now()

	resp, err := h.bankClient.Add(c.Request.Context(), &account)
	if err != nil {
		h.logger.Err(err).Str("bank_code", account.BankCode).Msg("Failed to add bank account")
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":      resp.ID,
		"account": account,
	})
}
