package db

import (
	"encoding/json"
	"fmt"

	"github.com/nerdintosubs/hiring-agent/internal/types"
)

// leadColumns holds the encoded forms of a manual lead's non-scalar fields.
type leadColumns struct {
	languages         string
	therapyExperience string
	certifications    string
	location          *string
}

func encodeLead(lead types.ManualLead) (leadColumns, error) {
	var cols leadColumns
	var err error
	if cols.languages, err = encodeList(lead.Languages); err != nil {
		return cols, err
	}
	if cols.therapyExperience, err = encodeList(lead.TherapyExperience); err != nil {
		return cols, err
	}
	if cols.certifications, err = encodeList(lead.Certifications); err != nil {
		return cols, err
	}
	if lead.CurrentLocation != nil {
		data, err := json.Marshal(lead.CurrentLocation)
		if err != nil {
			return cols, fmt.Errorf("failed to encode current location: %w", err)
		}
		s := string(data)
		cols.location = &s
	}
	return cols, nil
}

// decodeInto fills the non-scalar fields of lead. Unknown language codes
// are dropped.
func (cols leadColumns) decodeInto(lead *types.ManualLead) error {
	var languages []types.Language
	if err := json.Unmarshal([]byte(cols.languages), &languages); err != nil {
		return fmt.Errorf("failed to decode languages: %w", err)
	}
	lead.Languages = make([]types.Language, 0, len(languages))
	for _, l := range languages {
		if l.Valid() {
			lead.Languages = append(lead.Languages, l)
		}
	}

	lead.TherapyExperience = []string{}
	if err := json.Unmarshal([]byte(cols.therapyExperience), &lead.TherapyExperience); err != nil {
		return fmt.Errorf("failed to decode therapy experience: %w", err)
	}
	lead.Certifications = []string{}
	if err := json.Unmarshal([]byte(cols.certifications), &lead.Certifications); err != nil {
		return fmt.Errorf("failed to decode certifications: %w", err)
	}
	if lead.TherapyExperience == nil {
		lead.TherapyExperience = []string{}
	}
	if lead.Certifications == nil {
		lead.Certifications = []string{}
	}

	if cols.location != nil && *cols.location != "" {
		var loc types.Coordinates
		if err := json.Unmarshal([]byte(*cols.location), &loc); err != nil {
			return fmt.Errorf("failed to decode current location: %w", err)
		}
		lead.CurrentLocation = &loc
	}
	return nil
}

func encodeList[T any](values []T) (string, error) {
	if values == nil {
		return "[]", nil
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("failed to encode list: %w", err)
	}
	return string(data), nil
}

// nullable maps an empty string to SQL NULL.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
