package scoring

import (
	"testing"

	"github.com/nerdintosubs/hiring-agent/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var indiranagar = types.Coordinates{Lat: 12.9719, Lon: 77.6412}

func testJob() types.Job {
	return types.Job{
		ID:                "job_1",
		RequiredTherapies: []string{"Swedish", "deep tissue "},
		Languages:         []types.Language{types.LanguageKannada, types.LanguageEnglish},
		Location:          indiranagar,
	}
}

func TestScreeningScore(t *testing.T) {
	tests := []struct {
		name        string
		candidate   types.Candidate
		wantPass    bool
		wantOverall float64
		wantLines   []string
	}{
		{
			name: "full match nearby",
			candidate: types.Candidate{
				TherapyExperience: []string{"swedish", "Deep Tissue"},
				Languages:         []types.Language{types.LanguageKannada, types.LanguageEnglish},
				Certifications:    []string{"CIDESCO"},
				CurrentLocation:   &types.Coordinates{Lat: 12.9720, Lon: 77.6410},
			},
			wantPass:    true,
			wantOverall: 1.0,
			wantLines: []string{
				"therapy_score=1.00",
				"language_score=1.00",
				"commute_score=1.00",
				"cert_or_exp_ok=true",
			},
		},
		{
			name: "no location uses neutral commute",
			candidate: types.Candidate{
				TherapyExperience: []string{"swedish", "deep tissue"},
				Languages:         []types.Language{types.LanguageKannada},
				ExperienceYears:   3,
			},
			wantPass:    true,
			wantOverall: 0.775,
			wantLines: []string{
				"therapy_score=1.00",
				"language_score=0.50",
				"commute_score=0.50",
				"cert_or_exp_ok=true",
			},
		},
		{
			name: "fresher with partial therapies",
			candidate: types.Candidate{
				TherapyExperience: []string{"swedish"},
				Languages:         []types.Language{types.LanguageKannada, types.LanguageEnglish},
				ExperienceYears:   1,
			},
			wantPass:    false,
			wantOverall: 0.585,
			wantLines: []string{
				"therapy_score=0.50",
				"language_score=1.00",
				"commute_score=0.50",
				"cert_or_exp_ok=false",
			},
		},
		{
			name: "no shared language fails hard filter",
			candidate: types.Candidate{
				TherapyExperience: []string{"swedish", "deep tissue"},
				Languages:         []types.Language{types.LanguageTamil},
				Certifications:    []string{"spa diploma"},
				CurrentLocation:   &types.Coordinates{Lat: 13.5, Lon: 77.6412},
			},
			wantPass:    false,
			wantOverall: 0.55,
			wantLines: []string{
				"therapy_score=1.00",
				"language_score=0.00",
				"commute_score=0.00",
				"cert_or_exp_ok=true",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ScreeningScore(tt.candidate, testJob())
			assert.Equal(t, tt.wantPass, got.HardPass)
			assert.InDelta(t, tt.wantOverall, got.Overall, 1e-9)
			assert.Equal(t, tt.wantLines, got.Explanation)
		})
	}
}

func TestScreeningScore_NoRequirements(t *testing.T) {
	job := types.Job{Location: indiranagar}
	got := ScreeningScore(types.Candidate{Certifications: []string{"x"}}, job)
	assert.True(t, got.HardPass)
	assert.InDelta(t, 0.9, got.Overall, 1e-9)
}

func TestCommuteScore(t *testing.T) {
	// One degree of latitude is about 111.2 km.
	tests := []struct {
		name   string
		latOff float64
		want   float64
	}{
		{"same spot", 0, 1.0},
		{"~4.4km", 0.04, 1.0},
		{"~8.9km", 0.08, 0.8},
		{"~16.7km", 0.15, 0.5},
		{"~27.8km", 0.25, 0.2},
		{"~55.6km", 0.5, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from := &types.Coordinates{Lat: indiranagar.Lat + tt.latOff, Lon: indiranagar.Lon}
			assert.Equal(t, tt.want, CommuteScore(from, indiranagar))
		})
	}

	assert.Equal(t, 0.5, CommuteScore(nil, indiranagar))
}

func TestHaversineKm(t *testing.T) {
	assert.InDelta(t, 0, HaversineKm(12.97, 77.64, 12.97, 77.64), 1e-9)
	assert.InDelta(t, 111.195, HaversineKm(0, 0, 1, 0), 0.01)
}

func TestShortlistRank(t *testing.T) {
	score := 0.9
	require.InDelta(t, 0.99, ShortlistRank(&score, types.SourceReferral), 1e-9)

	low := 0.8
	assert.InDelta(t, 0.855, ShortlistRank(&low, types.SourceWeb), 1e-9)
	assert.InDelta(t, 0.05, ShortlistRank(nil, types.SourceChannel("unknown")), 1e-9)
	assert.Greater(t, ShortlistRank(&score, types.SourceWalkIn), ShortlistRank(&score, types.SourceAgent))
}

func TestRound(t *testing.T) {
	tests := []struct {
		name   string
		x      float64
		places int
		want   float64
	}{
		{"exact half goes to even", 0.125, 2, 0.12},
		{"exact half goes to even upward", 0.375, 2, 0.38},
		{"binary value below the half", 2.675, 2, 2.67},
		{"binary value below the half at three places", 1.0005, 3, 1.0},
		{"three places", 0.8333333, 3, 0.833},
		{"whole number", 33.0, 2, 33},
		{"negative half to even", -0.125, 2, -0.12},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Round(tt.x, tt.places))
		})
	}
}
