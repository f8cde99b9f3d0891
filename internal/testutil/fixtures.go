package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"budgettracker/internal/ledger"
	"budgettracker/internal/models"
)

// TestPassword is the plaintext password of every fixture user.
const TestPassword = "password123"

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

// CreateTestUser creates a user with a hashed password and unique username.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	return CreateTestUserWithUsername(t, db, fmt.Sprintf("user%d", counter.Add(1)))
}

// CreateTestUserWithUsername creates a user with the given username.
func CreateTestUserWithUsername(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Username: username,
		Password: string(hash),
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// TestEntry returns a valid entry of the given type and amount dated 2024-01-15.
func TestEntry(txType ledger.TransactionType, amount string) ledger.Entry {
	return ledger.Entry{
		Type:        txType,
		Category:    "General",
		Amount:      decimal.RequireFromString(amount),
		Description: "fixture",
		Date:        ledger.NewDate(2024, 1, 15),
	}
}

// CreateTestTransaction creates a transaction owned by userID.
func CreateTestTransaction(t *testing.T, db *gorm.DB, userID string, txType ledger.TransactionType, amount string) *models.Transaction {
	t.Helper()

	tx := &models.Transaction{UserID: userID}
	tx.Apply(TestEntry(txType, amount))
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return tx
}
