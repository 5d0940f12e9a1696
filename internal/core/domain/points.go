package domain

import "time"

type TransactionType string

const (
	TransactionEarn     TransactionType = "earn"
	TransactionSpend    TransactionType = "spend"
	TransactionTransfer TransactionType = "transfer"
	TransactionDonate   TransactionType = "donate"
)

// PointsTransaction is an append-only ledger row. Amount is signed: earns are
// positive, spends negative. Rows are never updated or deleted; the profile
// balance is a materialized sum maintained in the same database transaction.
type PointsTransaction struct {
	ID          string
	UserID      string
	Type        TransactionType
	Amount      int64
	Description string
	CreatedAt   time.Time
}

type Profile struct {
	UserID      string
	TotalPoints int64
	Streak      int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Charity struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// Donation records a points donation to a charity. Immutable, like the ledger
// row it pairs with.
type Donation struct {
	ID        string
	UserID    string
	CharityID string
	Amount    int64
	CreatedAt time.Time
}
