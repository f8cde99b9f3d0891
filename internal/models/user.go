package models

// User is an account on the ledger service.
type User struct {
	Base
	Username     string        `gorm:"uniqueIndex;size:64;not null" json:"username"`
	Password     string        `gorm:"not null" json:"-"`
	Transactions []Transaction `gorm:"foreignKey:UserID" json:"-"`
}
