package nutrition

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ExchangeRate is the ratio between the large and the small unit of a family.
const ExchangeRate = 1000

var (
	ErrUnknownUnit       = errors.New("unknown unit")
	ErrIncompatibleUnits = errors.New("incompatible units")
	ErrDegenerateProduct = errors.New("degenerate product: reference amount must be positive")
)

// Family groups units that can be converted into each other.
type Family string

const (
	FamilyMass   Family = "mass"
	FamilyVolume Family = "volume"
)

// Unit is one of the four supported amount units.
type Unit string

const (
	Gram       Unit = "g"
	Kilogram   Unit = "kg"
	Milliliter Unit = "ml"
	Liter      Unit = "l"
)

// ParseUnit parses a unit symbol (case-insensitive, surrounding spaces ignored).
func ParseUnit(s string) (Unit, error) {
	u := Unit(strings.ToLower(strings.TrimSpace(s)))
	if !u.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownUnit, s)
	}
	return u, nil
}

func (u Unit) Valid() bool {
	switch u {
	case Gram, Kilogram, Milliliter, Liter:
		return true
	}
	return false
}

// Family returns the unit family. Invalid units return an empty family.
func (u Unit) Family() Family {
	switch u {
	case Gram, Kilogram:
		return FamilyMass
	case Milliliter, Liter:
		return FamilyVolume
	}
	return ""
}

// IsLarge reports whether u is the base (large) unit of its family.
func (u Unit) IsLarge() bool {
	return u == Kilogram || u == Liter
}

// Small returns the small unit of u's family.
func (u Unit) Small() Unit {
	switch u.Family() {
	case FamilyMass:
		return Gram
	case FamilyVolume:
		return Milliliter
	}
	return ""
}

// Large returns the large unit of u's family.
func (u Unit) Large() Unit {
	switch u.Family() {
	case FamilyMass:
		return Kilogram
	case FamilyVolume:
		return Liter
	}
	return ""
}

func (u Unit) String() string {
	return string(u)
}

// UnmarshalText lets Unit be decoded from JSON strings and query values.
// An empty string decodes to the zero Unit so encoding round-trips.
func (u *Unit) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*u = ""
		return nil
	}
	parsed, err := ParseUnit(string(text))
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}

// AvailableUnits returns the units a picker can offer for an amount stored in u.
func AvailableUnits(u Unit) []Unit {
	if !u.Valid() {
		return nil
	}
	return []Unit{u.Small(), u.Large()}
}

// Compatible reports whether a and b belong to the same family.
func Compatible(a, b Unit) bool {
	return a.Valid() && b.Valid() && a.Family() == b.Family()
}

// Amount is a quantity expressed in a unit.
type Amount struct {
	Value float64 `json:"amount"`
	Unit  Unit    `json:"unit"`
}

// Normalize re-expresses an amount in the other unit of its family when that
// reads better: small to large once the amount is a whole multiple of 1000
// above 1000, large to small below 1. Re-expressed values are truncated.
func Normalize(amount float64, unit Unit) Amount {
	switch {
	case !unit.IsLarge() && unit.Valid():
		if amount > ExchangeRate && math.Mod(amount, ExchangeRate) == 0 {
			return Amount{Value: math.Trunc(amount / ExchangeRate), Unit: unit.Large()}
		}
	case unit.IsLarge():
		if amount < 1 {
			return Amount{Value: math.Trunc(amount * ExchangeRate), Unit: unit.Small()}
		}
	}
	return Amount{Value: amount, Unit: unit}
}

// ToProductUnit converts amount given in unit into the product's reference unit.
func ToProductUnit(amount float64, unit Unit, p Product) (float64, error) {
	return Convert(amount, unit, p.Unit)
}

// Convert converts amount from one unit to another of the same family.
func Convert(amount float64, from, to Unit) (float64, error) {
	if !from.Valid() {
		return 0, fmt.Errorf("%w: %q", ErrUnknownUnit, from)
	}
	if !to.Valid() {
		return 0, fmt.Errorf("%w: %q", ErrUnknownUnit, to)
	}
	if from == to {
		return amount, nil
	}
	if from.Family() != to.Family() {
		return 0, fmt.Errorf("%w: %s -> %s", ErrIncompatibleUnits, from, to)
	}
	if from.IsLarge() {
		return amount * ExchangeRate, nil
	}
	return amount / ExchangeRate, nil
}
