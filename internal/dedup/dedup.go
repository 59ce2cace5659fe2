// Package dedup decides whether an incoming candidate is a person already on file.
package dedup

import (
	"strings"

	"github.com/nerdintosubs/hiring-agent/internal/types"
)

// NameSimilarityThreshold is the minimum name ratio for a probable duplicate.
const NameSimilarityThreshold = 0.9

// Normalize trims, lowercases and collapses internal whitespace.
func Normalize(value string) string {
	return strings.Join(strings.Fields(strings.ToLower(value)), " ")
}

// IsDuplicate reports whether the incoming phone/name/last employer identify
// the existing candidate.
//
// An exact phone match always wins. Otherwise the names must be at least
// NameSimilarityThreshold similar, and when both sides carry a last employer
// those must agree as well.
func IsDuplicate(existing types.Candidate, phone, name, lastEmployer string) bool {
	if Normalize(existing.Phone) == Normalize(phone) {
		return true
	}

	existingName := Normalize(existing.Name)
	incomingName := Normalize(name)
	if existingName == "" || incomingName == "" {
		return false
	}

	if Ratio(existingName, incomingName) < NameSimilarityThreshold {
		return false
	}

	existingEmployer := Normalize(existing.LastEmployer)
	incomingEmployer := Normalize(lastEmployer)
	if existingEmployer != "" && incomingEmployer != "" {
		return existingEmployer == incomingEmployer
	}

	return true
}
