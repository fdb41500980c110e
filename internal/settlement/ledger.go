// Package settlement records terminal game outcomes on the stake ledger.
// The relay hands outcomes off to an asynchronous worker and never waits on
// the result; ledger failures are logged, not retried, and never reach game
// state.
package settlement

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Kind distinguishes the two ledger actions.
type Kind string

const (
	// KindWin pays the stakes out to the declared winner.
	KindWin Kind = "win"
	// KindRefund returns the stakes to both participants.
	KindRefund Kind = "refund"
)

// Entry is one recorded ledger action.
type Entry struct {
	ID        uint64 `gorm:"primaryKey"`
	SessionID string `gorm:"index;not null"`
	Kind      string `gorm:"not null"`
	// Winner is the identity the stakes are paid to. Empty for refunds.
	Winner    string
	CreatedAt time.Time
}

// Ledger persists settlement entries.
type Ledger struct {
	db *gorm.DB
}

func NewLedger(db *gorm.DB) (*Ledger, error) {
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, fmt.Errorf("error auto migrating ledger: %w", err)
	}
	return &Ledger{db: db}, nil
}

func (l *Ledger) Record(entry *Entry) error {
	return l.db.Create(entry).Error
}

// EntriesForSession returns the recorded entries for a session in insertion
// order.
func (l *Ledger) EntriesForSession(sessionID string) ([]Entry, error) {
	var entries []Entry
	err := l.db.Where("session_id = ?", sessionID).Order("id").Find(&entries).Error
	return entries, err
}
