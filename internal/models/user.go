package models

import (
	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	Email        string  `gorm:"uniqueIndex;not null"`
	Password     string  `gorm:"not null" json:"-"`
	Name         string  `gorm:"not null"`
	Phone        string  `gorm:"uniqueIndex;not null"`
	Balance      float64 `gorm:"type:numeric(20,2);not null;default:0"`
	ReferralCode string  `gorm:"uniqueIndex;not null"`
	ReferredBy   *string `gorm:"index"` // referral code of the inviting user, set once at registration
}
