package models

import "time"

// Tier is the quality level of the AI response granted for a request.
type Tier string

const (
	TierNone    Tier = "none"
	TierRegular Tier = "regular"
	TierPremium Tier = "premium"
)

// SettingType tags how a stored setting value is decoded.
type SettingType string

const (
	SettingInteger SettingType = "integer"
	SettingFloat   SettingType = "float"
	SettingBoolean SettingType = "boolean"
	SettingString  SettingType = "string"
)

type Setting struct {
	Key         string
	Value       string
	Type        SettingType
	Description string
	UpdatedAt   time.Time
}

// PremiumAccount is one premium-ledger row per user.
// RequestsCount never goes below zero; TotalPurchased and TotalUsed only grow.
type PremiumAccount struct {
	UserID         int64
	RequestsCount  int
	TotalPurchased int
	TotalUsed      int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// PremiumStats is the read-only projection handed to presentation code.
type PremiumStats struct {
	Available      int
	TotalPurchased int
	TotalUsed      int
	CreatedAt      *time.Time
}

// Bookmark is a saved passage reference, unique per user and reference.
type Bookmark struct {
	ID        int64
	UserID    int64
	Reference string
	CreatedAt time.Time
}

type TransactionKind string

const (
	TransactionDonation        TransactionKind = "donation"
	TransactionPremiumPurchase TransactionKind = "premium_purchase"
)

// StarTransaction is an append-only record of a completed Telegram Stars
// payment, keyed by the provider's charge id.
type StarTransaction struct {
	ID            int64
	UserID        int64
	Kind          TransactionKind
	AmountStars   int
	RequestsCount int
	ChargeID      string
	CreatedAt     time.Time
}

type Donation struct {
	ID            int64
	UserID        int64
	AmountRub     int
	AmountStars   int
	PaymentID     string
	Message       string
	PaymentStatus string
	CreatedAt     time.Time
	CompletedAt   *time.Time
}

type PremiumPurchase struct {
	ID            int64
	UserID        int64
	RequestsCount int
	AmountRub     int
	AmountStars   int
	PaymentID     string
	PaymentStatus string
	CreatedAt     time.Time
	CompletedAt   *time.Time
}

// QuotaInfo describes a user's AI allowance at a moment in time.
type QuotaInfo struct {
	UserID          int64
	Date            string
	DailyLimit      int
	UsedToday       int
	Remaining       int
	PremiumRequests int
	TotalAvailable  int
	IsAdmin         bool
	NextReset       time.Time
	HoursUntilReset int
	CanUseAI        bool
}
