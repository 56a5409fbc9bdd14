package tle

import (
	"fmt"
	"time"
)

// staleAfterDays is the age beyond which a TLE's predicted position is
// considered unreliable. Fixed policy, not configurable.
const staleAfterDays = 3.0

// ComputeAge evaluates how old a TLE epoch is at the given time and
// bands the result into a step function of warnings:
//
//	>7 days: severe warning
//	>3 days: moderate warning, IsStale
//	>24 h:   soft advisory
//	<=24 h:  none
//
// A future epoch yields a negative age and no warning.
func ComputeAge(epoch, now time.Time) Age {
	hours := now.Sub(epoch).Hours()
	days := hours / 24

	age := Age{
		Hours:   hours,
		Days:    days,
		IsStale: days > staleAfterDays,
	}

	switch {
	case days > 7:
		age.Warning = fmt.Sprintf("⚠️ TLE muy viejo (%.1f días). Posición MUY poco confiable.", days)
	case days > 3:
		age.Warning = fmt.Sprintf("⚠️ TLE viejo (%.1f días). Posición poco confiable.", days)
	case hours > 24:
		age.Warning = fmt.Sprintf("TLE de %.1f días. Considere actualizar.", days)
	}

	return age
}
