package forecast

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownMode is returned for a scenario mode that matches no alias.
var ErrUnknownMode = errors.New("unknown scenario mode")

// Mode selects where the exogenous scenario inputs come from.
type Mode string

const (
	// ModeAuto fills marketing spend and scholarship events with their
	// historical averages.
	ModeAuto Mode = "auto"
	// ModeManual takes marketing spend and scholarship events from the operator.
	ModeManual Mode = "manual"
)

// ModeAliases describes which user-facing values map to which mode.
type ModeAliases struct {
	// AutoValues are values that select ModeAuto.
	AutoValues []string
	// ManualValues are values that select ModeManual.
	ManualValues []string
}

// DefaultModeAliases returns the accepted spellings. "Auto-Pilot" and
// "Simulation" are the labels of the original dashboard's mode selector.
func DefaultModeAliases() ModeAliases {
	return ModeAliases{
		AutoValues:   []string{"auto", "autopilot", "auto-pilot", "historical"},
		ManualValues: []string{"manual", "simulation", "simulate"},
	}
}

// ParseMode resolves a mode value case-insensitively using the default aliases.
// An empty value selects ModeAuto.
func ParseMode(value string) (Mode, error) {
	return DefaultModeAliases().Parse(value)
}

// Parse resolves value against the alias lists.
func (a ModeAliases) Parse(value string) (Mode, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return ModeAuto, nil
	}
	for _, alias := range a.AutoValues {
		if v == alias {
			return ModeAuto, nil
		}
	}
	for _, alias := range a.ManualValues {
		if v == alias {
			return ModeManual, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, value)
}
