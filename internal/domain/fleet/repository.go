package fleet

import (
	"context"

	"fletero/internal/core/id"
)

// Repository defines the interface for fleet persistence.
type Repository interface {
	// ListActiveVehicles returns all active vehicles with their cost
	// configuration resolved (linked configs joined in one query).
	ListActiveVehicles(ctx context.Context) ([]Vehicle, error)

	// GetVehicle returns one vehicle with its cost configuration.
	GetVehicle(ctx context.Context, vehicleID id.ID) (*Vehicle, error)

	// ListContractors returns all contractors.
	ListContractors(ctx context.Context) ([]Contractor, error)

	// GetContractor returns one contractor.
	GetContractor(ctx context.Context, contractorID id.ID) (*Contractor, error)
}
