package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "budgettracker/internal/errors"
	"budgettracker/internal/ledger"
	"budgettracker/internal/models"
	"budgettracker/internal/uuid"
	"budgettracker/internal/validator"
)

// transactionService handles transaction-related business logic.
type transactionService struct {
	db *gorm.DB
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB) TransactionServicer {
	return &transactionService{db: db}
}

// ListTransactions returns all of the user's transactions by date, then
// creation order.
func (s *transactionService) ListTransactions(userID string) ([]models.Transaction, error) {
	transactions := []models.Transaction{}
	if err := s.db.Where("user_id = ?", userID).
		Order("date ASC").
		Order("id ASC").
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return transactions, nil
}

// CreateTransaction stores a new transaction for the user
func (s *transactionService) CreateTransaction(userID string, entry ledger.Entry) (*models.Transaction, error) {
	entry, err := checkEntry(entry)
	if err != nil {
		return nil, err
	}

	transaction := &models.Transaction{UserID: userID}
	transaction.Apply(entry)
	if err := s.db.Create(transaction).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	// Return what the database holds, not what was sent.
	return s.GetTransactionByID(userID, transaction.ID)
}

// GetTransactionByID retrieves a transaction by ID for a specific user
func (s *transactionService) GetTransactionByID(userID, transactionID string) (*models.Transaction, error) {
	if !uuid.IsValid(transactionID) {
		return nil, apperrors.ErrTransactionNotFound
	}

	var transaction models.Transaction
	if err := s.db.Where("id = ? AND user_id = ?", transactionID, userID).First(&transaction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &transaction, nil
}

// UpdateTransaction replaces every field of the transaction
func (s *transactionService) UpdateTransaction(userID, transactionID string, entry ledger.Entry) (*models.Transaction, error) {
	entry, err := checkEntry(entry)
	if err != nil {
		return nil, err
	}

	var result *models.Transaction
	err = s.db.Transaction(func(tx *gorm.DB) error {
		transaction, err := (&transactionService{db: tx}).GetTransactionByID(userID, transactionID)
		if err != nil {
			return err
		}
		transaction.Apply(entry)
		if err := tx.Save(transaction).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		stored, err := (&transactionService{db: tx}).GetTransactionByID(userID, transactionID)
		if err != nil {
			return err
		}
		result = stored
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteTransaction deletes a transaction
func (s *transactionService) DeleteTransaction(userID, transactionID string) error {
	transaction, err := s.GetTransactionByID(userID, transactionID)
	if err != nil {
		return err
	}
	if err := s.db.Delete(transaction).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// checkEntry enforces the stored-transaction invariants independently of
// request binding.
func checkEntry(entry ledger.Entry) (ledger.Entry, error) {
	entry.Category = strings.TrimSpace(entry.Category)
	entry.Description = strings.TrimSpace(entry.Description)
	amountErr := validator.CheckAmount(entry.Amount)

	switch {
	case !entry.Type.Valid():
		return entry, apperrors.WithMessage(apperrors.ErrValidation, "type must be income or expense")
	case entry.Category == "":
		return entry, apperrors.WithMessage(apperrors.ErrValidation, "category is required")
	case amountErr != nil:
		return entry, apperrors.WithMessage(apperrors.ErrValidation, amountErr.Error())
	case entry.Date.IsZero():
		return entry, apperrors.WithMessage(apperrors.ErrValidation, "date is required")
	}
	return entry, nil
}
