package repositories

import (
	"fmt"

	"github.com/aristath/saccr-engine/internal/database"
	"github.com/aristath/saccr-engine/internal/domain"
)

// CounterpartyRepository persists domain.CounterpartyInfo rows.
type CounterpartyRepository struct {
	db *database.DB
}

// NewCounterpartyRepository builds a repository bound to db.
func NewCounterpartyRepository(db *database.DB) *CounterpartyRepository {
	return &CounterpartyRepository{db: db}
}

// LoadAll returns every registered counterparty as a domain.CounterpartyStore.
func (r *CounterpartyRepository) LoadAll() (*domain.CounterpartyStore, error) {
	rows, err := r.db.Conn().Query(`SELECT id, is_clearing_cp, credit_quality, saccr_rw FROM counterparties`)
	if err != nil {
		return nil, fmt.Errorf("repositories: load counterparties: %w", err)
	}
	defer rows.Close()

	store := domain.NewCounterpartyStore()
	for rows.Next() {
		var id, creditQuality string
		var isCCP int
		var rw float64
		if err := rows.Scan(&id, &isCCP, &creditQuality, &rw); err != nil {
			return nil, fmt.Errorf("repositories: scan counterparty: %w", err)
		}
		store.Put(&domain.CounterpartyInfo{
			ID:            domain.CounterpartyID(id),
			IsClearingCP:  isCCP != 0,
			CreditQuality: domain.CreditQuality(creditQuality),
			SACCRRW:       rw,
		})
	}
	return store, rows.Err()
}

// Upsert writes one counterparty record.
func (r *CounterpartyRepository) Upsert(info *domain.CounterpartyInfo) error {
	_, err := r.db.Conn().Exec(`
INSERT INTO counterparties (id, is_clearing_cp, credit_quality, saccr_rw)
VALUES (?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
	is_clearing_cp = excluded.is_clearing_cp,
	credit_quality = excluded.credit_quality,
	saccr_rw = excluded.saccr_rw`,
		string(info.ID), boolToInt(info.IsClearingCP), string(info.CreditQuality), info.SACCRRW)
	if err != nil {
		return fmt.Errorf("repositories: upsert counterparty: %w", err)
	}
	return nil
}
