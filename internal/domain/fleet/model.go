// Package fleet provides the contracted-fleet catalog: contractors
// ("terceros"), their vehicles, and each vehicle's cost configuration.
package fleet

import (
	"context"
	"regexp"

	"fletero/internal/core/apperror"
	"fletero/internal/core/entity"
	"fletero/internal/core/id"
)

// Pre-compiled regex patterns for validation
var (
	digitsOnlyRE = regexp.MustCompile(`^\d+$`)
	emailRE      = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
)

// CostModality determines how a vehicle's base freight is computed.
type CostModality string

const (
	// ModalityPerTrip pays a fixed amount per paid trip.
	ModalityPerTrip CostModality = "per_trip"
	// ModalityFixedFreight pays half the monthly freight per fortnight,
	// as long as at least one trip was paid in the period.
	ModalityFixedFreight CostModality = "fixed_freight"
	// ModalityNone earns no base freight (surcharges still paid).
	ModalityNone CostModality = "none"
)

// CostConfig is the base-freight configuration of one vehicle link.
type CostConfig struct {
	Modality            CostModality `db:"cost_modality" json:"costModality"`
	CostPerTrip         int64        `db:"cost_per_trip" json:"costPerTrip"`
	MonthlyFixedFreight int64        `db:"monthly_fixed_freight" json:"monthlyFixedFreight"`
}

// Contractor is the third party that owns one or more contracted vehicles.
// Payments are consolidated and exported at this level.
type Contractor struct {
	entity.BaseEntity

	Name       string `db:"name" json:"name"`
	DocumentID string `db:"document_id" json:"documentId"` // NIT or cédula

	// Contact and banking fields consumed by the payment export.
	Phone         *string `db:"phone" json:"phone,omitempty"`
	Email         *string `db:"email" json:"email,omitempty"`
	BankName      *string `db:"bank_name" json:"bankName,omitempty"`
	AccountType   *string `db:"account_type" json:"accountType,omitempty"`
	AccountNumber *string `db:"account_number" json:"accountNumber,omitempty"`

	Active bool `db:"active" json:"active"`
}

// Validate implements entity.Validatable.
func (c *Contractor) Validate(ctx context.Context) error {
	if c.Name == "" {
		return apperror.NewValidation("contractor name is required").
			WithDetail("field", "name")
	}

	if c.DocumentID != "" && !digitsOnlyRE.MatchString(c.DocumentID) {
		return apperror.NewValidation("document id must contain only digits").
			WithDetail("field", "documentId")
	}

	if c.Email != nil && *c.Email != "" && !emailRE.MatchString(*c.Email) {
		return apperror.NewValidation("invalid email format").
			WithDetail("field", "email")
	}

	return nil
}

// Vehicle is one contracted vehicle belonging to a contractor.
//
// A vehicle either links to a fleet vehicle (FleetVehicleID set, cost config
// lives on the link) or is ad-hoc/esporádico (no fleet link, cost fields live
// on the record itself). Exactly one source applies.
type Vehicle struct {
	entity.BaseEntity

	Plate        string `db:"plate" json:"plate"`
	ContractorID id.ID  `db:"contractor_id" json:"contractorId"`

	// FleetVehicleID links to the owned-fleet vehicle, nil for ad-hoc.
	FleetVehicleID *id.ID `db:"fleet_vehicle_id" json:"fleetVehicleId,omitempty"`

	// Own cost fields, authoritative only for ad-hoc vehicles.
	AdHocCost CostConfig `json:"adHocCost"`

	// LinkedCost is the fleet-link configuration, authoritative when
	// FleetVehicleID is set. Loaded by the repository join.
	LinkedCost *CostConfig `db:"-" json:"linkedCost,omitempty"`

	Active bool `db:"active" json:"active"`
}

// IsAdHoc reports whether the vehicle has no fleet link.
func (v *Vehicle) IsAdHoc() bool {
	return v.FleetVehicleID == nil
}

// ResolveCostConfig picks the single cost source that governs this vehicle:
// its own fields when ad-hoc, the linked configuration otherwise. A linked
// vehicle with no configuration loaded resolves to ModalityNone, which the
// calculator treats as zero base freight (documented behavior, not an error).
func (v *Vehicle) ResolveCostConfig() CostConfig {
	if v.IsAdHoc() {
		return v.AdHocCost
	}
	if v.LinkedCost != nil {
		return *v.LinkedCost
	}
	return CostConfig{Modality: ModalityNone}
}

// Validate implements entity.Validatable.
func (v *Vehicle) Validate(ctx context.Context) error {
	if v.Plate == "" {
		return apperror.NewValidation("plate is required").
			WithDetail("field", "plate")
	}
	if id.IsNil(v.ContractorID) {
		return apperror.NewValidation("contractor is required").
			WithDetail("field", "contractorId")
	}
	if v.AdHocCost.CostPerTrip < 0 || v.AdHocCost.MonthlyFixedFreight < 0 {
		return apperror.NewValidation("cost amounts must be non-negative")
	}
	return nil
}
