package users

import (
	"encoding/json"
	"time"

	"github.com/swiftride/users-backend/pkg/enums"
)

// UserProfile is the denormalized aggregate served to clients. Driver is nil
// only for users who have never onboarded as a driver.
type UserProfile struct {
	ID                  string         `json:"id"`
	FirstName           string         `json:"firstName"`
	LastName            string         `json:"lastName"`
	Email               string         `json:"email"`
	PhoneNumber         string         `json:"phoneNumber"`
	ProfilePictureURL   *string        `json:"profilePictureURL,omitempty"`
	IsEmailVerified     bool           `json:"isEmailVerified"`
	CreatedAt           time.Time      `json:"createdAt"`
	UpdatedAt           time.Time      `json:"updatedAt"`
	OnboardingCompleted bool           `json:"onboardingCompleted"`
	UserType            enums.UserType `json:"userType"`
	Driver              *Driver        `json:"driver"`
}

// Driver lives at a fixed child key under its user. Switching back to rider
// flips IsActive instead of deleting the record, so license and vehicle data
// survive role toggles.
type Driver struct {
	LicenseNumber string    `json:"licenseNumber"`
	IsActive      bool      `json:"isActive"`
	Vehicles      []Vehicle `json:"vehicles"`
}

// UnmarshalJSON defaults IsActive to true when the field is absent from the
// request body.
func (d *Driver) UnmarshalJSON(data []byte) error {
	type alias Driver
	aux := alias{IsActive: true}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*d = Driver(aux)
	return nil
}

// Vehicle is keyed by the caller-supplied VehicleID within its driver.
type Vehicle struct {
	VehicleID    string `json:"vehicleId"`
	Make         string `json:"make"`
	Model        string `json:"model"`
	Year         int    `json:"year"`
	LicensePlate string `json:"licensePlate"`
	Capacity     int    `json:"capacity"`
}

// UnmarshalJSON defaults Capacity when the field is absent from the request
// body.
func (v *Vehicle) UnmarshalJSON(data []byte) error {
	type alias Vehicle
	aux := alias{Capacity: defaultVehicleCapacity}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*v = Vehicle(aux)
	return nil
}

const (
	usersCollection    = "users"
	driverCollection   = "driver"
	driverDetailsKey   = "details"
	vehiclesCollection = "vehicles"

	defaultVehicleCapacity = 4
)

// UserDocPath addresses the top-level user document.
func UserDocPath(userID string) string {
	return usersCollection + "/" + userID
}

// DriverDocPath addresses the single driver child document of a user.
func DriverDocPath(userID string) string {
	return UserDocPath(userID) + "/" + driverCollection + "/" + driverDetailsKey
}

// VehicleDocPath addresses one vehicle child document of a user's driver.
func VehicleDocPath(userID, vehicleID string) string {
	return DriverDocPath(userID) + "/" + vehiclesCollection + "/" + vehicleID
}
