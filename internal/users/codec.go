package users

import (
	"fmt"
	"math"
	"time"

	"github.com/swiftride/users-backend/pkg/enums"
	pkgerrors "github.com/swiftride/users-backend/pkg/errors"
)

// The codec converts between aggregate values and the open field maps the
// document store holds. Decoding is strict: a field with the wrong shape
// fails the whole document with an error naming the field, it is never
// dropped or coerced silently.

func profileFields(p UserProfile) map[string]any {
	fields := map[string]any{
		"id":                  p.ID,
		"firstName":           p.FirstName,
		"lastName":            p.LastName,
		"email":               p.Email,
		"phoneNumber":         p.PhoneNumber,
		"isEmailVerified":     p.IsEmailVerified,
		"createdAt":           p.CreatedAt,
		"updatedAt":           p.UpdatedAt,
		"onboardingCompleted": p.OnboardingCompleted,
		"userType":            p.UserType.String(),
	}
	if p.ProfilePictureURL != nil {
		fields["profilePictureURL"] = *p.ProfilePictureURL
	}
	return fields
}

func driverFields(d Driver) map[string]any {
	return map[string]any{
		"licenseNumber": d.LicenseNumber,
		"isActive":      d.IsActive,
	}
}

func vehicleFields(v Vehicle) map[string]any {
	return map[string]any{
		"vehicleId":    v.VehicleID,
		"make":         v.Make,
		"model":        v.Model,
		"year":         v.Year,
		"licensePlate": v.LicensePlate,
		"capacity":     v.Capacity,
	}
}

func decodeProfile(key string, fields map[string]any) (UserProfile, error) {
	var p UserProfile
	var err error
	if p.ID, err = stringField(fields, "id"); err != nil {
		return UserProfile{}, err
	}
	if p.FirstName, err = stringField(fields, "firstName"); err != nil {
		return UserProfile{}, err
	}
	if p.LastName, err = stringField(fields, "lastName"); err != nil {
		return UserProfile{}, err
	}
	if p.Email, err = stringField(fields, "email"); err != nil {
		return UserProfile{}, err
	}
	if p.PhoneNumber, err = stringField(fields, "phoneNumber"); err != nil {
		return UserProfile{}, err
	}
	if p.ProfilePictureURL, err = optionalStringField(fields, "profilePictureURL"); err != nil {
		return UserProfile{}, err
	}
	if p.IsEmailVerified, err = boolField(fields, "isEmailVerified", false); err != nil {
		return UserProfile{}, err
	}
	if p.CreatedAt, err = timeField(fields, "createdAt"); err != nil {
		return UserProfile{}, err
	}
	if p.UpdatedAt, err = timeField(fields, "updatedAt"); err != nil {
		return UserProfile{}, err
	}
	if p.OnboardingCompleted, err = boolField(fields, "onboardingCompleted", false); err != nil {
		return UserProfile{}, err
	}
	userType, err := userTypeField(fields, "userType")
	if err != nil {
		return UserProfile{}, err
	}
	p.UserType = userType
	if p.ID != key {
		return UserProfile{}, parseError("id", fmt.Sprintf("document key %q does not match stored id %q", key, p.ID))
	}
	return p, nil
}

func decodeDriver(fields map[string]any) (Driver, error) {
	var d Driver
	var err error
	if d.LicenseNumber, err = stringField(fields, "licenseNumber"); err != nil {
		return Driver{}, err
	}
	if d.IsActive, err = boolField(fields, "isActive", true); err != nil {
		return Driver{}, err
	}
	d.Vehicles = []Vehicle{}
	return d, nil
}

func decodeVehicle(fields map[string]any) (Vehicle, error) {
	var v Vehicle
	var err error
	if v.VehicleID, err = stringField(fields, "vehicleId"); err != nil {
		return Vehicle{}, err
	}
	if v.Make, err = stringField(fields, "make"); err != nil {
		return Vehicle{}, err
	}
	if v.Model, err = stringField(fields, "model"); err != nil {
		return Vehicle{}, err
	}
	if v.Year, err = intField(fields, "year", 0, true); err != nil {
		return Vehicle{}, err
	}
	if v.LicensePlate, err = stringField(fields, "licensePlate"); err != nil {
		return Vehicle{}, err
	}
	if v.Capacity, err = intField(fields, "capacity", defaultVehicleCapacity, false); err != nil {
		return Vehicle{}, err
	}
	return v, nil
}

func parseError(field, reason string) error {
	return pkgerrors.New(pkgerrors.CodeUpstream, "malformed stored document").
		WithDetails(map[string]string{"field": field, "reason": reason})
}

func stringField(fields map[string]any, name string) (string, error) {
	raw, ok := fields[name]
	if !ok || raw == nil {
		return "", parseError(name, "required field is missing")
	}
	value, ok := raw.(string)
	if !ok {
		return "", parseError(name, fmt.Sprintf("expected string, got %T", raw))
	}
	return value, nil
}

func optionalStringField(fields map[string]any, name string) (*string, error) {
	raw, ok := fields[name]
	if !ok || raw == nil {
		return nil, nil
	}
	value, ok := raw.(string)
	if !ok {
		return nil, parseError(name, fmt.Sprintf("expected string, got %T", raw))
	}
	return &value, nil
}

func boolField(fields map[string]any, name string, fallback bool) (bool, error) {
	raw, ok := fields[name]
	if !ok || raw == nil {
		return fallback, nil
	}
	value, ok := raw.(bool)
	if !ok {
		return false, parseError(name, fmt.Sprintf("expected bool, got %T", raw))
	}
	return value, nil
}

// intField tolerates the numeric representations the backends produce:
// native ints from the in-memory store and Firestore, float64 from JSON
// round-trips. Non-integral floats still fail.
func intField(fields map[string]any, name string, fallback int, required bool) (int, error) {
	raw, ok := fields[name]
	if !ok || raw == nil {
		if required {
			return 0, parseError(name, "required field is missing")
		}
		return fallback, nil
	}
	switch value := raw.(type) {
	case int:
		return value, nil
	case int64:
		return int(value), nil
	case float64:
		if value != math.Trunc(value) {
			return 0, parseError(name, fmt.Sprintf("expected integer, got %v", value))
		}
		return int(value), nil
	default:
		return 0, parseError(name, fmt.Sprintf("expected integer, got %T", raw))
	}
}

// timeField accepts native timestamps and RFC 3339 strings, which is how
// timestamps survive a JSON round-trip through the relational backend.
func timeField(fields map[string]any, name string) (time.Time, error) {
	raw, ok := fields[name]
	if !ok || raw == nil {
		return time.Time{}, parseError(name, "required field is missing")
	}
	switch value := raw.(type) {
	case time.Time:
		return value, nil
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, value)
		if err != nil {
			return time.Time{}, parseError(name, fmt.Sprintf("invalid timestamp %q", value))
		}
		return parsed, nil
	default:
		return time.Time{}, parseError(name, fmt.Sprintf("expected timestamp, got %T", raw))
	}
}

func userTypeField(fields map[string]any, name string) (enums.UserType, error) {
	raw, ok := fields[name]
	if !ok || raw == nil {
		return enums.UserTypeRider, nil
	}
	value, ok := raw.(string)
	if !ok {
		return "", parseError(name, fmt.Sprintf("expected string, got %T", raw))
	}
	userType, err := enums.ParseUserType(value)
	if err != nil {
		return "", parseError(name, fmt.Sprintf("unknown user type %q", value))
	}
	return userType, nil
}
