// Package repositories adapts the teacher's repository-per-table pattern
// to the engine's three input stores, loading/saving domain.NettingSetStore,
// domain.CounterpartyStore, and domain.CollateralBalanceStore against the
// sqlite schema created by database.DB.Migrate.
package repositories

import (
	"fmt"

	"github.com/aristath/saccr-engine/internal/database"
	"github.com/aristath/saccr-engine/internal/domain"
)

// NettingSetRepository persists domain.NettingSetDefinition rows.
type NettingSetRepository struct {
	db *database.DB
}

// NewNettingSetRepository builds a repository bound to db.
func NewNettingSetRepository(db *database.DB) *NettingSetRepository {
	return &NettingSetRepository{db: db}
}

// LoadAll returns every configured netting set as a domain.NettingSetStore,
// ready to hand to the pipeline.
func (r *NettingSetRepository) LoadAll() (*domain.NettingSetStore, error) {
	rows, err := r.db.Conn().Query(`
SELECT counterparty, agreement, master_agreement_type, master_agreement_subtype,
       csa_active, csa_currency, threshold_rcv, mta_rcv, ia_held, mpor_weeks,
       calculate_im, calculate_vm
FROM netting_sets`)
	if err != nil {
		return nil, fmt.Errorf("repositories: load netting sets: %w", err)
	}
	defer rows.Close()

	store := domain.NewNettingSetStore()
	for rows.Next() {
		var cpty, agreement, maType, maSubtype, csaCcy string
		var csaActive, calcIM, calcVM int
		var thresholdRcv, mtaRcv, iaHeld float64
		var mporWeeks int
		if err := rows.Scan(&cpty, &agreement, &maType, &maSubtype, &csaActive, &csaCcy,
			&thresholdRcv, &mtaRcv, &iaHeld, &mporWeeks, &calcIM, &calcVM); err != nil {
			return nil, fmt.Errorf("repositories: scan netting set: %w", err)
		}
		store.Put(&domain.NettingSetDefinition{
			ID:           domain.NewNettingSetID(domain.CounterpartyID(cpty), agreement, maType, maSubtype),
			CSAActive:    csaActive != 0,
			CSACurrency:  csaCcy,
			ThresholdRcv: thresholdRcv,
			MTARcv:       mtaRcv,
			IAHeld:       iaHeld,
			MPOR:         domain.MPORWeeks(mporWeeks),
			CalculateIM:  calcIM != 0,
			CalculateVM:  calcVM != 0,
		})
	}
	return store, rows.Err()
}

// Upsert writes one netting-set definition, replacing any existing row with
// the same composite key.
func (r *NettingSetRepository) Upsert(def *domain.NettingSetDefinition) error {
	_, err := r.db.Conn().Exec(`
INSERT INTO netting_sets (
	counterparty, agreement, master_agreement_type, master_agreement_subtype,
	csa_active, csa_currency, threshold_rcv, mta_rcv, ia_held, mpor_weeks,
	calculate_im, calculate_vm
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (counterparty, agreement, master_agreement_type, master_agreement_subtype) DO UPDATE SET
	csa_active = excluded.csa_active,
	csa_currency = excluded.csa_currency,
	threshold_rcv = excluded.threshold_rcv,
	mta_rcv = excluded.mta_rcv,
	ia_held = excluded.ia_held,
	mpor_weeks = excluded.mpor_weeks,
	calculate_im = excluded.calculate_im,
	calculate_vm = excluded.calculate_vm`,
		string(def.ID.Counterparty), def.ID.Agreement, def.ID.MasterAgreementType, def.ID.MasterAgreementSubtype,
		boolToInt(def.CSAActive), def.CSACurrency, def.ThresholdRcv, def.MTARcv, def.IAHeld, int(def.MPOR),
		boolToInt(def.CalculateIM), boolToInt(def.CalculateVM))
	if err != nil {
		return fmt.Errorf("repositories: upsert netting set: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
