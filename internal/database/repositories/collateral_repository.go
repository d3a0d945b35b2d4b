package repositories

import (
	"fmt"

	"github.com/aristath/saccr-engine/internal/database"
	"github.com/aristath/saccr-engine/internal/domain"
)

// CollateralRepository persists domain.CollateralBalance rows, keeping
// user-submitted and SIMM-calculated balances in the same table distinguished
// by the "source" column, matching the two CollateralBalanceStore instances
// (UserBalances/CalcBalances) the pipeline takes as input per spec.md §6.
type CollateralRepository struct {
	db *database.DB
}

// NewCollateralRepository builds a repository bound to db.
func NewCollateralRepository(db *database.DB) *CollateralRepository {
	return &CollateralRepository{db: db}
}

// LoadUser returns every user-submitted collateral balance.
func (r *CollateralRepository) LoadUser() (*domain.CollateralBalanceStore, error) {
	return r.load("user")
}

// LoadCalculated returns every previously-computed (SIMM/back-filled)
// collateral balance.
func (r *CollateralRepository) LoadCalculated() (*domain.CollateralBalanceStore, error) {
	return r.load("calculated")
}

func (r *CollateralRepository) load(source string) (*domain.CollateralBalanceStore, error) {
	rows, err := r.db.Conn().Query(`
SELECT counterparty, agreement, master_agreement_type, master_agreement_subtype, currency, im, vm
FROM collateral_balances WHERE source = ?`, source)
	if err != nil {
		return nil, fmt.Errorf("repositories: load %s collateral balances: %w", source, err)
	}
	defer rows.Close()

	store := domain.NewCollateralBalanceStore()
	for rows.Next() {
		var cpty, agreement, maType, maSubtype, ccy string
		var im, vm *float64
		if err := rows.Scan(&cpty, &agreement, &maType, &maSubtype, &ccy, &im, &vm); err != nil {
			return nil, fmt.Errorf("repositories: scan collateral balance: %w", err)
		}
		id := domain.NewNettingSetID(domain.CounterpartyID(cpty), agreement, maType, maSubtype)
		store.Add(id, &domain.CollateralBalance{Currency: ccy, IM: im, VM: vm})
	}
	return store, rows.Err()
}

// SaveCalculated persists store as the "calculated" balances, replacing any
// prior calculated balance for each netting set it contains. Used by the
// scheduler after a run to make S5's back-filled combined collateral durable
// for the next run's IM fallback.
func (r *CollateralRepository) SaveCalculated(store *domain.CollateralBalanceStore) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("repositories: save calculated balances: %w", err)
	}
	defer tx.Rollback()

	for _, id := range store.OrderedIDs() {
		bal := store.Get(id)
		if bal == nil {
			continue
		}
		if _, err := tx.Exec(`
INSERT INTO collateral_balances (
	counterparty, agreement, master_agreement_type, master_agreement_subtype, source, currency, im, vm
) VALUES (?, ?, ?, ?, 'calculated', ?, ?, ?)
ON CONFLICT (counterparty, agreement, master_agreement_type, master_agreement_subtype, source) DO UPDATE SET
	currency = excluded.currency,
	im = excluded.im,
	vm = excluded.vm`,
			string(id.Counterparty), id.Agreement, id.MasterAgreementType, id.MasterAgreementSubtype,
			bal.Currency, bal.IM, bal.VM); err != nil {
			return fmt.Errorf("repositories: upsert calculated balance for %s: %w", id.String(), err)
		}
	}
	return tx.Commit()
}
