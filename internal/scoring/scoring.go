// Package scoring provides screening and shortlist scoring of candidates against jobs.
package scoring

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/nerdintosubs/hiring-agent/internal/types"
)

// Weights of the overall fit score components.
const (
	therapyWeight    = 0.35
	languageWeight   = 0.25
	commuteWeight    = 0.20
	complianceWeight = 0.20
)

// sourceReliability weights a candidate's source channel for shortlist ranking.
var sourceReliability = map[types.SourceChannel]float64{
	types.SourceReferral: 0.9,
	types.SourceWalkIn:   0.8,
	types.SourceWhatsApp: 0.75,
	types.SourceCall:     0.7,
	types.SourceAgent:    0.6,
	types.SourceWeb:      0.55,
}

const defaultSourceReliability = 0.5

// Result is the outcome of one screening run.
type Result struct {
	HardPass    bool     `json:"hard_filter_pass"`
	Overall     float64  `json:"overall_fit_score"`
	Explanation []string `json:"explanation"`
}

// ScreeningScore computes the hard filter and weighted fit of a candidate for a job.
//
// The hard filter requires every required therapy, at least one shared
// language when the job names any, and either a certification or two years
// of experience.
func ScreeningScore(candidate types.Candidate, job types.Job) Result {
	required := normalizedSet(job.RequiredTherapies)
	therapyScore := 1.0
	if len(required) > 0 {
		have := normalizedSet(candidate.TherapyExperience)
		matched := 0
		for therapy := range required {
			if _, ok := have[therapy]; ok {
				matched++
			}
		}
		therapyScore = float64(matched) / float64(len(required))
	}

	requiredLanguages := languageSet(job.Languages)
	languageScore := 1.0
	if len(requiredLanguages) > 0 {
		have := languageSet(candidate.Languages)
		matched := 0
		for lang := range requiredLanguages {
			if _, ok := have[lang]; ok {
				matched++
			}
		}
		languageScore = float64(matched) / float64(len(requiredLanguages))
	}

	certOrExpOK := len(candidate.Certifications) > 0 || candidate.ExperienceYears >= 2
	complianceScore := 0.3
	if certOrExpOK {
		complianceScore = 1.0
	}
	commuteScore := CommuteScore(candidate.CurrentLocation, job.Location)

	overall := Round(therapyWeight*therapyScore+
		languageWeight*languageScore+
		commuteWeight*commuteScore+
		complianceWeight*complianceScore, 3)

	hardPass := therapyScore >= 1.0 &&
		(languageScore > 0 || len(requiredLanguages) == 0) &&
		certOrExpOK

	return Result{
		HardPass: hardPass,
		Overall:  overall,
		Explanation: []string{
			fmt.Sprintf("therapy_score=%.2f", therapyScore),
			fmt.Sprintf("language_score=%.2f", languageScore),
			fmt.Sprintf("commute_score=%.2f", commuteScore),
			"cert_or_exp_ok=" + strconv.FormatBool(certOrExpOK),
		},
	}
}

// CommuteScore buckets the distance between candidate and job.
// A candidate without a known location scores 0.5.
func CommuteScore(from *types.Coordinates, to types.Coordinates) float64 {
	if from == nil {
		return 0.5
	}
	distance := HaversineKm(from.Lat, from.Lon, to.Lat, to.Lon)
	switch {
	case distance <= 5:
		return 1.0
	case distance <= 10:
		return 0.8
	case distance <= 20:
		return 0.5
	case distance <= 30:
		return 0.2
	default:
		return 0.0
	}
}

// HaversineKm returns the great-circle distance in kilometres.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadiusKm = 6371.0
	dLat := radians(lat2 - lat1)
	dLon := radians(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

// ShortlistRank orders screened candidates: the screening score (0 when
// absent) plus a tenth of the source channel's reliability weight.
func ShortlistRank(score *float64, source types.SourceChannel) float64 {
	base := 0.0
	if score != nil {
		base = *score
	}
	weight, ok := sourceReliability[source]
	if !ok {
		weight = defaultSourceReliability
	}
	return Round(base+0.1*weight, 3)
}

func normalizedSet(values []string) map[string]struct{} {
	out := make(map[string]struct{}, len(values))
	for _, v := range values {
		out[strings.ToLower(strings.TrimSpace(v))] = struct{}{}
	}
	return out
}

func languageSet(values []types.Language) map[types.Language]struct{} {
	out := make(map[types.Language]struct{}, len(values))
	for _, v := range values {
		out[v] = struct{}{}
	}
	return out
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Round rounds x to places decimal digits using the exact decimal value of
// x, sending exact halves to the even digit. 0.125 rounds to 0.12 and 2.675
// (stored just below 2.675) to 2.67.
func Round(x float64, places int) float64 {
	v, err := strconv.ParseFloat(strconv.FormatFloat(x, 'f', places, 64), 64)
	if err != nil {
		return x
	}
	return v
}
