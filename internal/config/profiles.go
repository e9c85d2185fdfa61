package config

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
	"k8s.io/apimachinery/pkg/util/validation/field"
	ctrl "sigs.k8s.io/controller-runtime"

	"github.com/scholarship-analytics/enrollment-planner/internal/capacity"
	"github.com/scholarship-analytics/enrollment-planner/internal/logging"
)

// GlobalDefaultsKey is the profile entry merged under every named profile.
const GlobalDefaultsKey = "default"

const boundsEpsilon = 1e-9

// SliderBounds constrains one capacity parameter. Step is the granularity a UI
// slider should use; values between steps are still accepted.
type SliderBounds struct {
	Min     float64 `yaml:"min,omitempty" json:"min"`
	Max     float64 `yaml:"max,omitempty" json:"max"`
	Step    float64 `yaml:"step,omitempty" json:"step"`
	Default float64 `yaml:"default,omitempty" json:"default"`
}

// Contains reports whether v lies within [Min, Max].
func (b SliderBounds) Contains(v float64) bool {
	return !math.IsNaN(v) && v >= b.Min-boundsEpsilon && v <= b.Max+boundsEpsilon
}

func (b SliderBounds) merge(override SliderBounds) SliderBounds {
	if override.Min != 0 {
		b.Min = override.Min
	}
	if override.Max != 0 {
		b.Max = override.Max
	}
	if override.Step != 0 {
		b.Step = override.Step
	}
	if override.Default != 0 {
		b.Default = override.Default
	}
	return b
}

func (b SliderBounds) validate(path *field.Path) field.ErrorList {
	var errs field.ErrorList
	if b.Min <= 0 {
		errs = append(errs, field.Invalid(path.Child("min"), b.Min, "must be greater than 0"))
	}
	if b.Max < b.Min {
		errs = append(errs, field.Invalid(path.Child("max"), b.Max, fmt.Sprintf("must be >= min (%g)", b.Min)))
	}
	if b.Step <= 0 {
		errs = append(errs, field.Invalid(path.Child("step"), b.Step, "must be greater than 0"))
	}
	if !b.Contains(b.Default) {
		errs = append(errs, field.Invalid(path.Child("default"), b.Default,
			fmt.Sprintf("must be within [%g, %g]", b.Min, b.Max)))
	}
	return errs
}

// CapacityProfile holds the slider bounds and rounding policy for one staffing
// context (a campus, a program, a term type).
type CapacityProfile struct {
	// Name identifies an override entry. It defaults to the entry key.
	Name string `yaml:"name,omitempty" json:"name"`

	// Description is shown next to the profile in the UI.
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// HoursPerStudent bounds the weekly tutoring hours each student needs.
	HoursPerStudent SliderBounds `yaml:"hoursPerStudent,omitempty" json:"hoursPerStudent"`

	// HoursPerTutor bounds the weekly hours each tutor can give.
	HoursPerTutor SliderBounds `yaml:"hoursPerTutor,omitempty" json:"hoursPerTutor"`

	// Rounding overrides the global tutor rounding policy for this profile.
	Rounding string `yaml:"rounding,omitempty" json:"rounding,omitempty"`
}

// BuiltinCapacityProfile returns the slider bounds every profile starts from.
func BuiltinCapacityProfile() CapacityProfile {
	return CapacityProfile{
		Name:            GlobalDefaultsKey,
		HoursPerStudent: SliderBounds{Min: 0.5, Max: 5.0, Step: 0.1, Default: 1.5},
		HoursPerTutor:   SliderBounds{Min: 5.0, Max: 40.0, Step: 1.0, Default: 12.0},
	}
}

// Validate checks a fully merged profile.
func (p *CapacityProfile) Validate() error {
	return p.validate(field.NewPath(p.Name)).ToAggregate()
}

func (p *CapacityProfile) validate(path *field.Path) field.ErrorList {
	var errs field.ErrorList
	errs = append(errs, p.HoursPerStudent.validate(path.Child("hoursPerStudent"))...)
	errs = append(errs, p.HoursPerTutor.validate(path.Child("hoursPerTutor"))...)
	if p.Rounding != "" {
		if _, err := capacity.ParseRounding(p.Rounding); err != nil {
			errs = append(errs, field.NotSupported(path.Child("rounding"), p.Rounding, roundingNames))
		}
	}
	return errs
}

func (p CapacityProfile) merge(override CapacityProfile) CapacityProfile {
	result := p
	if override.Name != "" {
		result.Name = override.Name
	}
	if override.Description != "" {
		result.Description = override.Description
	}
	result.HoursPerStudent = p.HoursPerStudent.merge(override.HoursPerStudent)
	result.HoursPerTutor = p.HoursPerTutor.merge(override.HoursPerTutor)
	if override.Rounding != "" {
		result.Rounding = override.Rounding
	}
	return result
}

// CapacityProfiles maps lower-cased profile names to their raw (unmerged)
// entries.
type CapacityProfiles map[string]CapacityProfile

// ParseCapacityProfiles parses profile entries keyed by name, each a YAML
// snippet. The "default" entry is merged under every other entry. Entries that
// fail to parse or validate are skipped and logged.
func ParseCapacityProfiles(data map[string]string) CapacityProfiles {
	out := make(CapacityProfiles)
	if data == nil {
		return out
	}

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	// The default entry is parsed first so overrides validate against it.
	if text, ok := data[GlobalDefaultsKey]; ok {
		if profile, err := parseProfileEntry(GlobalDefaultsKey, text, BuiltinCapacityProfile()); err != nil {
			ctrl.Log.Info("Invalid default capacity profile, using built-in bounds", "error", err)
		} else {
			out[GlobalDefaultsKey] = profile
		}
	}
	base := out.Get(GlobalDefaultsKey)

	for _, key := range keys {
		if key == GlobalDefaultsKey {
			continue
		}
		profile, err := parseProfileEntry(key, data[key], base)
		if err != nil {
			ctrl.Log.Info("Invalid capacity profile entry, skipping", "key", key, "error", err)
			continue
		}
		name := strings.ToLower(profile.Name)
		if _, exists := out[name]; exists {
			ctrl.Log.Info("Duplicate capacity profile name - first key wins", "name", name, "duplicateKey", key)
			continue
		}
		out[name] = profile
	}

	ctrl.Log.V(logging.DEBUG).Info("Parsed capacity profiles", "profileCount", len(out))
	return out
}

// parseProfileEntry decodes one entry and validates it merged over base.
func parseProfileEntry(key, text string, base CapacityProfile) (CapacityProfile, error) {
	var profile CapacityProfile
	if err := yaml.Unmarshal([]byte(text), &profile); err != nil {
		return CapacityProfile{}, fmt.Errorf("failed to parse: %w", err)
	}
	if profile.Name == "" {
		profile.Name = key
	}
	merged := base.merge(profile)
	if err := merged.Validate(); err != nil {
		return CapacityProfile{}, err
	}
	return profile, nil
}

// Lookup returns the effective profile for name: the built-in bounds, then the
// "default" entry, then the named entry. The boolean is false when name is not
// a known profile; the defaults are returned in that case.
func (data CapacityProfiles) Lookup(name string) (CapacityProfile, bool) {
	result := BuiltinCapacityProfile()
	if defaults, ok := data[GlobalDefaultsKey]; ok {
		result = result.merge(defaults)
	}
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || key == GlobalDefaultsKey {
		result.Name = GlobalDefaultsKey
		return result, true
	}
	profile, ok := data[key]
	if !ok {
		result.Name = GlobalDefaultsKey
		return result, false
	}
	return result.merge(profile), true
}

// Get is Lookup without the presence flag.
func (data CapacityProfiles) Get(name string) CapacityProfile {
	p, _ := data.Lookup(name)
	return p
}

// Names returns the known profile names, "default" first.
func (data CapacityProfiles) Names() []string {
	names := []string{GlobalDefaultsKey}
	for name := range data {
		if name != GlobalDefaultsKey {
			names = append(names, name)
		}
	}
	sort.Strings(names[1:])
	return names
}

var roundingNames = []string{capacity.RoundingCeiling.String(), capacity.RoundingLegacy.String()}
