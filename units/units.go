// Package units converts the (value, unit) pairs used across neqnet into the
// canonical internal units and back.
//
// Canonical units:
//
//	pressure            bara
//	mass flow           kg/s
//	standard volume     Sm3/day
//	length              m
//
// Unit names are matched case-insensitively. An unknown unit is reported with
// ErrUnknownUnit rather than silently passed through.
package units

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownUnit is returned when a unit string is not recognised.
var ErrUnknownUnit = errors.New("units: unknown unit")

// AtmosphericPressure is the gauge reference in bara.
const AtmosphericPressure = 1.01325

const (
	psiPerBar     = 14.503773773
	barrelsPerSm3 = 6.28981077
	secondsPerDay = 86400.0
	secondsPerHr  = 3600.0
)

// ToBara converts a pressure expressed in unit to bara.
func ToBara(value float64, unit string) (float64, error) {
	switch strings.ToLower(unit) {
	case "bara", "bar":
		return value, nil
	case "barg":
		return value + AtmosphericPressure, nil
	case "psia", "psi":
		return value / psiPerBar, nil
	case "psig":
		return value/psiPerBar + AtmosphericPressure, nil
	case "mpa":
		return value * 10.0, nil
	case "kpa":
		return value / 100.0, nil
	case "pa":
		return value / 1e5, nil
	case "atm":
		return value * AtmosphericPressure, nil
	}

	return 0, fmt.Errorf("%w: pressure %q", ErrUnknownUnit, unit)
}

// FromBara converts a pressure in bara to unit.
func FromBara(bara float64, unit string) (float64, error) {
	switch strings.ToLower(unit) {
	case "bara", "bar":
		return bara, nil
	case "barg":
		return bara - AtmosphericPressure, nil
	case "psia", "psi":
		return bara * psiPerBar, nil
	case "psig":
		return (bara - AtmosphericPressure) * psiPerBar, nil
	case "mpa":
		return bara / 10.0, nil
	case "kpa":
		return bara * 100.0, nil
	case "pa":
		return bara * 1e5, nil
	case "atm":
		return bara / AtmosphericPressure, nil
	}

	return 0, fmt.Errorf("%w: pressure %q", ErrUnknownUnit, unit)
}

// ToKgPerSec converts a mass flow rate expressed in unit to kg/s.
func ToKgPerSec(value float64, unit string) (float64, error) {
	switch strings.ToLower(unit) {
	case "kg/s", "kg/sec":
		return value, nil
	case "kg/hr", "kg/h":
		return value / secondsPerHr, nil
	case "kg/day", "kg/d":
		return value / secondsPerDay, nil
	case "tonnes/day", "t/d":
		return value * 1000.0 / secondsPerDay, nil
	}

	return 0, fmt.Errorf("%w: mass rate %q", ErrUnknownUnit, unit)
}

// FromKgPerSec converts a mass flow rate in kg/s to unit.
func FromKgPerSec(kgs float64, unit string) (float64, error) {
	switch strings.ToLower(unit) {
	case "kg/s", "kg/sec":
		return kgs, nil
	case "kg/hr", "kg/h":
		return kgs * secondsPerHr, nil
	case "kg/day", "kg/d":
		return kgs * secondsPerDay, nil
	case "tonnes/day", "t/d":
		return kgs * secondsPerDay / 1000.0, nil
	}

	return 0, fmt.Errorf("%w: mass rate %q", ErrUnknownUnit, unit)
}

// ToSm3PerDay converts a standard volume rate expressed in unit to Sm3/day.
// Barrels are stock-tank barrels (1 Sm3 = 6.2898 bbl).
func ToSm3PerDay(value float64, unit string) (float64, error) {
	switch strings.ToLower(unit) {
	case "sm3/day", "sm3/d":
		return value, nil
	case "msm3/day", "msm3/d":
		return value * 1e6, nil
	case "sm3/hr", "sm3/h":
		return value * 24.0, nil
	case "bbl/day", "bpd":
		return value / barrelsPerSm3, nil
	case "mbbl/day", "mbpd":
		return value * 1000.0 / barrelsPerSm3, nil
	}

	return 0, fmt.Errorf("%w: volume rate %q", ErrUnknownUnit, unit)
}

// FromSm3PerDay converts a standard volume rate in Sm3/day to unit.
func FromSm3PerDay(sm3d float64, unit string) (float64, error) {
	switch strings.ToLower(unit) {
	case "sm3/day", "sm3/d":
		return sm3d, nil
	case "msm3/day", "msm3/d":
		return sm3d / 1e6, nil
	case "sm3/hr", "sm3/h":
		return sm3d / 24.0, nil
	case "bbl/day", "bpd":
		return sm3d * barrelsPerSm3, nil
	case "mbbl/day", "mbpd":
		return sm3d * barrelsPerSm3 / 1000.0, nil
	}

	return 0, fmt.Errorf("%w: volume rate %q", ErrUnknownUnit, unit)
}

// ToMeters converts a length expressed in unit to metres.
func ToMeters(value float64, unit string) (float64, error) {
	switch strings.ToLower(unit) {
	case "m":
		return value, nil
	case "km":
		return value * 1000.0, nil
	case "mm":
		return value / 1000.0, nil
	case "in", "inch":
		return value * 0.0254, nil
	case "ft", "feet":
		return value * 0.3048, nil
	}

	return 0, fmt.Errorf("%w: length %q", ErrUnknownUnit, unit)
}

// SecondsPerDay is exported for rate conversions between per-second and per-day bases.
func SecondsPerDay() float64 { return secondsPerDay }
