package users

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/swiftride/users-backend/pkg/docstore"
	"github.com/swiftride/users-backend/pkg/enums"
	pkgerrors "github.com/swiftride/users-backend/pkg/errors"
)

// DriverDetails carries the driver portion of an onboarding or profile
// update request.
type DriverDetails struct {
	LicenseNumber string    `json:"licenseNumber"`
	IsActive      bool      `json:"isActive"`
	Vehicles      []Vehicle `json:"vehicles"`
}

// UnmarshalJSON defaults IsActive to true when the field is absent from the
// request body.
func (d *DriverDetails) UnmarshalJSON(data []byte) error {
	type alias DriverDetails
	aux := alias{IsActive: true}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*d = DriverDetails(aux)
	return nil
}

// UpdateInput is the decomposed form of an onboarding or profile update.
// UserType, when set, wins over the role derived from IsDriver.
type UpdateInput struct {
	IsDriver           bool
	UserType           *enums.UserType
	Driver             *DriverDetails
	CompleteOnboarding bool
}

// Writer decomposes aggregate writes into the individual user, driver, and
// vehicle document operations. The store offers no cross-document
// transactions, so writes are sequenced and last writer wins.
type Writer struct {
	store     docstore.Store
	assembler *Assembler
	now       func() time.Time
}

// NewWriter builds a writer sharing the assembler used for read-back.
func NewWriter(store docstore.Store, assembler *Assembler) (*Writer, error) {
	if store == nil {
		return nil, fmt.Errorf("document store required")
	}
	if assembler == nil {
		return nil, fmt.Errorf("assembler required")
	}
	return &Writer{store: store, assembler: assembler, now: time.Now}, nil
}

// Create persists a new aggregate. A driver with an empty licenseNumber is
// skipped entirely, along with its vehicles. The input is returned as-is
// without re-reading the store.
func (w *Writer) Create(ctx context.Context, profile UserProfile) (*UserProfile, error) {
	if profile.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if err := w.store.Set(ctx, UserDocPath(profile.ID), profileFields(profile)); err != nil {
		return nil, err
	}
	if profile.Driver != nil && profile.Driver.LicenseNumber != "" {
		if err := w.store.Set(ctx, DriverDocPath(profile.ID), driverFields(*profile.Driver)); err != nil {
			return nil, err
		}
		for _, vehicle := range profile.Driver.Vehicles {
			if err := w.store.Set(ctx, VehicleDocPath(profile.ID, vehicle.VehicleID), vehicleFields(vehicle)); err != nil {
				return nil, err
			}
		}
	}
	return &profile, nil
}

// ApplyUpdate applies an onboarding or profile update and returns the fresh
// aggregate read back from the store.
func (w *Writer) ApplyUpdate(ctx context.Context, userID string, input UpdateInput) (*UserProfile, error) {
	if _, err := w.store.Get(ctx, UserDocPath(userID)); err != nil {
		return nil, err
	}

	updates := map[string]any{
		"updatedAt": w.now().UTC(),
	}
	if input.CompleteOnboarding {
		updates["onboardingCompleted"] = true
	}
	if input.UserType != nil {
		updates["userType"] = input.UserType.String()
	} else if input.IsDriver {
		updates["userType"] = enums.UserTypeDriver.String()
	} else {
		updates["userType"] = enums.UserTypeRider.String()
	}

	switch {
	case input.IsDriver && input.Driver != nil:
		if err := w.upsertDriver(ctx, userID, *input.Driver); err != nil {
			return nil, err
		}
	case !input.IsDriver:
		if err := w.deactivateDriver(ctx, userID); err != nil {
			return nil, err
		}
	}

	if err := w.store.UpdateFields(ctx, UserDocPath(userID), updates); err != nil {
		return nil, err
	}
	return w.assembler.Assemble(ctx, userID)
}

// upsertDriver creates the driver document or merges into it, then upserts
// each vehicle by its caller-supplied id. Existing vehicles are merged, new
// ones created whole.
func (w *Writer) upsertDriver(ctx context.Context, userID string, details DriverDetails) error {
	fields := map[string]any{
		"licenseNumber": details.LicenseNumber,
		"isActive":      details.IsActive,
	}
	driverPath := DriverDocPath(userID)
	if _, err := w.store.Get(ctx, driverPath); err != nil {
		if !pkgerrors.Is(err, pkgerrors.CodeNotFound) {
			return err
		}
		if err := w.store.Set(ctx, driverPath, fields); err != nil {
			return err
		}
	} else if err := w.store.UpdateFields(ctx, driverPath, fields); err != nil {
		return err
	}

	for _, vehicle := range details.Vehicles {
		if vehicle.VehicleID == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "vehicleId is required")
		}
		vehiclePath := VehicleDocPath(userID, vehicle.VehicleID)
		if _, err := w.store.Get(ctx, vehiclePath); err != nil {
			if !pkgerrors.Is(err, pkgerrors.CodeNotFound) {
				return err
			}
			if err := w.store.Set(ctx, vehiclePath, vehicleFields(vehicle)); err != nil {
				return err
			}
		} else if err := w.store.UpdateFields(ctx, vehiclePath, vehicleFields(vehicle)); err != nil {
			return err
		}
	}
	return nil
}

// deactivateDriver flips isActive off when a driver record exists. License
// and vehicle data stay untouched so the role can be re-activated later.
func (w *Writer) deactivateDriver(ctx context.Context, userID string) error {
	driverPath := DriverDocPath(userID)
	if _, err := w.store.Get(ctx, driverPath); err != nil {
		if pkgerrors.Is(err, pkgerrors.CodeNotFound) {
			return nil
		}
		return err
	}
	return w.store.UpdateFields(ctx, driverPath, map[string]any{"isActive": false})
}
