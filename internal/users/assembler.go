package users

import (
	"context"
	"fmt"

	"github.com/swiftride/users-backend/pkg/docstore"
	pkgerrors "github.com/swiftride/users-backend/pkg/errors"
)

// Assembler reads the scattered user, driver, and vehicle documents and
// merges them into one UserProfile aggregate.
type Assembler struct {
	store docstore.Store
}

// NewAssembler builds an assembler over the given document store.
func NewAssembler(store docstore.Store) (*Assembler, error) {
	if store == nil {
		return nil, fmt.Errorf("document store required")
	}
	return &Assembler{store: store}, nil
}

// Assemble loads the aggregate for one user. The driver field is nil exactly
// when the driver child document does not exist, independent of isActive.
func (a *Assembler) Assemble(ctx context.Context, userID string) (*UserProfile, error) {
	doc, err := a.store.Get(ctx, UserDocPath(userID))
	if err != nil {
		return nil, err
	}
	return a.assembleFromDoc(ctx, doc)
}

// AssembleAll materializes the aggregate of every stored user. One malformed
// document fails the whole listing; callers wanting partial results must
// isolate per user themselves.
func (a *Assembler) AssembleAll(ctx context.Context) ([]*UserProfile, error) {
	docs, err := a.store.ListCollection(ctx, usersCollection)
	if err != nil {
		return nil, err
	}
	profiles := make([]*UserProfile, 0, len(docs))
	for _, doc := range docs {
		profile, err := a.assembleFromDoc(ctx, doc)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, profile)
	}
	return profiles, nil
}

func (a *Assembler) assembleFromDoc(ctx context.Context, doc docstore.Document) (*UserProfile, error) {
	profile, err := decodeProfile(doc.Key, doc.Fields)
	if err != nil {
		return nil, err
	}

	driverDoc, err := a.store.Get(ctx, DriverDocPath(profile.ID))
	if err != nil {
		if pkgerrors.Is(err, pkgerrors.CodeNotFound) {
			return &profile, nil
		}
		return nil, err
	}

	driver, err := decodeDriver(driverDoc.Fields)
	if err != nil {
		return nil, err
	}

	vehicleDocs, err := a.store.ListChildren(ctx, DriverDocPath(profile.ID), vehiclesCollection)
	if err != nil {
		return nil, err
	}
	for _, vehicleDoc := range vehicleDocs {
		vehicle, err := decodeVehicle(vehicleDoc.Fields)
		if err != nil {
			return nil, err
		}
		driver.Vehicles = append(driver.Vehicles, vehicle)
	}

	profile.Driver = &driver
	return &profile, nil
}
