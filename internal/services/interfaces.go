package services

import (
	"budgettracker/internal/ledger"
	"budgettracker/internal/models"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(username, password string) (*models.User, error)
	GetUserByUsername(username string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
}

// TransactionServicer defines the contract for transaction-related business logic.
// Every method is scoped to userID; another user's transaction is reported as
// not found.
type TransactionServicer interface {
	ListTransactions(userID string) ([]models.Transaction, error)
	CreateTransaction(userID string, entry ledger.Entry) (*models.Transaction, error)
	GetTransactionByID(userID, transactionID string) (*models.Transaction, error)
	UpdateTransaction(userID, transactionID string, entry ledger.Entry) (*models.Transaction, error)
	DeleteTransaction(userID, transactionID string) error
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]any)
}
