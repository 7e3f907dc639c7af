package ruleset

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/davidahmann/subscreen/internal/ambiguity"
	"github.com/davidahmann/subscreen/internal/crypto"
	"github.com/davidahmann/subscreen/internal/rules"
	"gopkg.in/yaml.v3"
)

var ErrInvalidRuleset = errors.New("invalid ruleset")

type LoadedRuleset struct {
	Ruleset Ruleset
	Hash    string
	Bytes   []byte
}

// Load reads a YAML ruleset and computes its hash from raw bytes. Fields the
// file leaves unset fall back to the built-in defaults.
func Load(path string) (LoadedRuleset, error) {
	// #nosec G304 -- path comes from operator-configured ruleset path.
	data, err := os.ReadFile(path)
	if err != nil {
		return LoadedRuleset{}, err
	}
	return Parse(data)
}

func Parse(data []byte) (LoadedRuleset, error) {
	rs := Default()
	rs.RequiredFields = nil
	rs.TextFields = nil
	rs.Markers = nil
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return LoadedRuleset{}, err
	}

	defaults := Default()
	if rs.RequiredFields == nil {
		rs.RequiredFields = defaults.RequiredFields
	}
	if rs.TextFields == nil {
		rs.TextFields = defaults.TextFields
	}
	if rs.Markers == nil {
		rs.Markers = defaults.Markers
	}
	if err := rs.Validate(); err != nil {
		return LoadedRuleset{}, err
	}

	return LoadedRuleset{
		Ruleset: rs,
		Hash:    crypto.DigestWithPrefix(data),
		Bytes:   data,
	}, nil
}

// Default returns the built-in questionnaire ruleset.
func Default() Ruleset {
	rc := rules.DefaultConfig()
	ac := ambiguity.DefaultConfig()

	markers := make([]Marker, 0, len(ac.Markers))
	for _, m := range ac.Markers {
		markers = append(markers, Marker{Term: m.Term, AllowSuffix: m.AllowSuffix})
	}
	return Ruleset{
		RulesetID:          "subscreen-default",
		RulesetVersion:     "1",
		RequiredFields:     rc.RequiredFields,
		AmountField:        rc.AmountField,
		AccreditationField: rc.AccreditationField,
		TextFields:         ac.Fields,
		Markers:            markers,
	}
}

// DefaultLoaded returns the built-in ruleset hashed over its YAML encoding.
func DefaultLoaded() LoadedRuleset {
	rs := Default()
	data, err := yaml.Marshal(rs)
	if err != nil {
		panic(fmt.Sprintf("encode default ruleset: %v", err))
	}
	return LoadedRuleset{Ruleset: rs, Hash: crypto.DigestWithPrefix(data), Bytes: data}
}

func (r Ruleset) Validate() error {
	if strings.TrimSpace(r.RulesetID) == "" {
		return fmt.Errorf("%w: ruleset_id is required", ErrInvalidRuleset)
	}
	if strings.TrimSpace(r.AmountField) == "" {
		return fmt.Errorf("%w: amount_field is required", ErrInvalidRuleset)
	}
	if strings.TrimSpace(r.AccreditationField) == "" {
		return fmt.Errorf("%w: accreditation_field is required", ErrInvalidRuleset)
	}
	for i, field := range r.RequiredFields {
		if strings.TrimSpace(field) == "" {
			return fmt.Errorf("%w: required_fields[%d] is empty", ErrInvalidRuleset, i)
		}
	}
	for i, field := range r.TextFields {
		if strings.TrimSpace(field) == "" {
			return fmt.Errorf("%w: text_fields[%d] is empty", ErrInvalidRuleset, i)
		}
	}
	for i, m := range r.Markers {
		if strings.TrimSpace(m.Term) == "" {
			return fmt.Errorf("%w: markers[%d].term is empty", ErrInvalidRuleset, i)
		}
	}
	return nil
}

func (r Ruleset) RulesConfig() rules.Config {
	return rules.Config{
		RequiredFields:     r.RequiredFields,
		AmountField:        r.AmountField,
		AccreditationField: r.AccreditationField,
	}
}

func (r Ruleset) AmbiguityConfig() ambiguity.Config {
	markers := make([]ambiguity.Marker, 0, len(r.Markers))
	for _, m := range r.Markers {
		markers = append(markers, ambiguity.Marker{Term: m.Term, AllowSuffix: m.AllowSuffix})
	}
	return ambiguity.Config{Fields: r.TextFields, Markers: markers}
}
