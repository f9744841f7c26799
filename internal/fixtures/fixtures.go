// Package fixtures exposes the profile presets shared by the API and UI suites.
package fixtures

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"

	"github.com/janisto/prima-profile-e2e/internal/service/gateway"
)

// Preset keys in testdata.json.
const (
	AdultMale   = "adult_male"
	AdultFemale = "adult_female"
	KidMale     = "kid_male"
	KidFemale   = "kid_female"
)

//go:embed testdata.json
var raw []byte

// Preset is one profile template.
type Preset struct {
	Name        string             `json:"name"`
	AvatarID    string             `json:"avatarId"`
	Gender      gateway.Gender     `json:"gender"`
	GenderLabel string             `json:"genderLabel"`
	BirthYear   int                `json:"birthYear"`
	AgeRating   *gateway.AgeRating `json:"ageRating"`
}

// Kids reports whether the preset is age restricted.
func (p Preset) Kids() bool {
	return p.AgeRating != nil && *p.AgeRating == gateway.AgeRatingKids
}

// BirthYearLabel is the birth year as the site's select list shows it.
func (p Preset) BirthYearLabel() string {
	return strconv.Itoa(p.BirthYear)
}

// Spec converts the preset to a creation spec. A non-empty pin is set with updatePin enabled.
func (p Preset) Spec(pin string) gateway.ProfileSpec {
	spec := gateway.ProfileSpec{
		AvatarID:  p.AvatarID,
		Gender:    p.Gender,
		BirthYear: p.BirthYear,
	}
	if p.AgeRating != nil {
		spec.AgeRating = *p.AgeRating
	}
	if pin != "" {
		update := true
		spec.PIN = pin
		spec.UpdatePIN = &update
	}
	return spec
}

// Data is the decoded fixture file.
type Data struct {
	Profiles map[string]Preset `json:"profiles"`
	PIN      string            `json:"pin"`
}

// Preset returns the named preset.
func (d Data) Preset(key string) (Preset, error) {
	p, ok := d.Profiles[key]
	if !ok {
		return Preset{}, fmt.Errorf("unknown profile preset %q", key)
	}
	return p, nil
}

// Keys returns the preset keys in a stable order.
func (d Data) Keys() []string {
	keys := make([]string, 0, len(d.Profiles))
	for k := range d.Profiles {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Load decodes the embedded fixture file and validates every preset.
func Load() (Data, error) {
	var d Data
	if err := json.Unmarshal(raw, &d); err != nil {
		return Data{}, fmt.Errorf("decoding fixtures: %w", err)
	}
	for key, p := range d.Profiles {
		if err := p.Spec(d.PIN).Validate(); err != nil {
			return Data{}, fmt.Errorf("preset %s: %w", key, err)
		}
	}
	return d, nil
}
