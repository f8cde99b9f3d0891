package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "budgettracker/internal/errors"
	"budgettracker/internal/ledger"
	"budgettracker/internal/models"
	"budgettracker/internal/services"
	"budgettracker/internal/validator"
)

// TransactionHandler handles transaction-related requests.
type TransactionHandler struct {
	transactionService services.TransactionServicer
	auditService       services.AuditServicer
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactionService services.TransactionServicer, auditService services.AuditServicer) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService, auditService: auditService}
}

// TransactionRequest is the payload for creating or replacing a transaction.
// Amount accepts a JSON number or a numeric string.
type TransactionRequest struct {
	Type        ledger.TransactionType `json:"type" binding:"required,transaction_type"`
	Category    string                 `json:"category" binding:"notblank,max=100"`
	Amount      json.Number            `json:"amount" binding:"required,amount"`
	Description string                 `json:"description" binding:"max=500"`
	Date        string                 `json:"date" binding:"required,ymd_date"`
}

// MessageResponse represents a simple message response
type MessageResponse struct {
	Message string `json:"message"`
}

func (r TransactionRequest) entry() (ledger.Entry, error) {
	amount, err := validator.ParseAmount(r.Amount.String())
	if err != nil {
		return ledger.Entry{}, apperrors.WithMessage(apperrors.ErrValidation, "amount: "+err.Error())
	}
	date, err := ledger.ParseDate(r.Date)
	if err != nil {
		return ledger.Entry{}, apperrors.WithMessage(apperrors.ErrValidation, "date: "+err.Error())
	}
	return ledger.Entry{
		Type:        r.Type,
		Category:    r.Category,
		Amount:      amount,
		Description: r.Description,
		Date:        date,
	}, nil
}

func (h *TransactionHandler) bindEntry(c *gin.Context) (ledger.Entry, error) {
	var req TransactionRequest
	if err := bindJSON(c, &req); err != nil {
		return ledger.Entry{}, err
	}
	return req.entry()
}

// ListTransactions returns every transaction of the authenticated user
// @Summary     List transactions
// @Description Get all of the authenticated user's transactions
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array}  ledger.Transaction "Transactions"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions [get]
func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	rows, err := h.transactionService.ListTransactions(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	out := make([]ledger.Transaction, len(rows))
	for i := range rows {
		out[i] = rows[i].Ledger()
	}
	c.JSON(http.StatusOK, out)
}

// CreateTransaction handles the creation of a new transaction
// @Summary     Create a transaction
// @Description Create a new income or expense transaction
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body TransactionRequest true "Transaction details"
// @Success     201 {object} ledger.Transaction "Transaction created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions [post]
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	entry, err := h.bindEntry(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transaction, err := h.transactionService.CreateTransaction(userID, entry)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditCreateTransaction, "transaction", transaction.ID, c.ClientIP(), changes(transaction))

	c.JSON(http.StatusCreated, transaction.Ledger())
}

// UpdateTransaction replaces a transaction
// @Summary     Update transaction
// @Description Replace every field of a transaction
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string             true "Transaction ID"
// @Param       request body TransactionRequest true "Transaction details"
// @Success     200 {object} ledger.Transaction "Updated transaction"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id} [put]
func (h *TransactionHandler) UpdateTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	entry, err := h.bindEntry(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transaction, err := h.transactionService.UpdateTransaction(userID, c.Param("id"), entry)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditUpdateTransaction, "transaction", transaction.ID, c.ClientIP(), changes(transaction))

	c.JSON(http.StatusOK, transaction.Ledger())
}

// DeleteTransaction handles the deletion of a transaction
// @Summary     Delete transaction
// @Description Delete a transaction by ID
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} MessageResponse "Transaction deleted"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id} [delete]
func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID := c.Param("id")
	if err := h.transactionService.DeleteTransaction(userID, transactionID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditDeleteTransaction, "transaction", transactionID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, MessageResponse{Message: "Transaction deleted successfully"})
}

func changes(t *models.Transaction) map[string]any {
	return map[string]any{
		"type":     t.Type,
		"category": t.Category,
		"amount":   t.Amount.String(),
		"date":     t.Date.String(),
	}
}
