package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func floatPtr(v float64) *float64 { return &v }

func timePtr(t time.Time) *time.Time { return &t }

func TestCalculateLeadScoreBaseline(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	// No source, no budget, no close date: base 50 + default source weight.
	score := CalculateLeadScore(LeadScoreInput{}, now)
	assert.Equal(t, 55, score)
}

func TestCalculateLeadScoreSourceWeights(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	cases := map[string]int{
		"website":      60,
		"referral":     65,
		"walk-in":      62,
		"phone":        58,
		"email":        57,
		"social-media": 55,
		"other":        55,
		"billboard":    55,
	}
	for source, want := range cases {
		got := CalculateLeadScore(LeadScoreInput{Source: source}, now)
		assert.Equal(t, want, got, "source %q", source)
	}
}

func TestCalculateLeadScoreBudgetTiers(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		min  float64
		max  float64
		want int
	}{
		{"above 50k", 40000, 70000, 55 + 20},
		{"avg 50000 is not strictly above 50000", 40000, 60000, 55 + 15},
		{"avg 30000 is not strictly above 30000", 30000, 30000, 55 + 10},
		{"avg 15000 is not strictly above 15000", 15000, 15000, 55 + 5},
		{"tiny budget", 1000, 2000, 55 + 5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := CalculateLeadScore(LeadScoreInput{
				BudgetMin: floatPtr(tc.min),
				BudgetMax: floatPtr(tc.max),
			}, now)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestCalculateLeadScoreBudgetNeedsBothBounds(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	onlyMin := CalculateLeadScore(LeadScoreInput{BudgetMin: floatPtr(100000)}, now)
	onlyMax := CalculateLeadScore(LeadScoreInput{BudgetMax: floatPtr(100000)}, now)
	assert.Equal(t, 55, onlyMin)
	assert.Equal(t, 55, onlyMax)
}

func TestCalculateLeadScoreCloseDateTiers(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name  string
		close time.Time
		want  int
	}{
		{"seven days out", now.AddDate(0, 0, 7), 55 + 15},
		{"eight days out", now.AddDate(0, 0, 8), 55 + 10},
		{"thirty days out", now.AddDate(0, 0, 30), 55 + 10},
		{"ninety days out", now.AddDate(0, 0, 90), 55 + 5},
		{"far future", now.AddDate(1, 0, 0), 55},
		{"in the past", now.AddDate(0, 0, -3), 55},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := CalculateLeadScore(LeadScoreInput{ExpectedCloseDate: timePtr(tc.close)}, now)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestCalculateLeadScoreHotReferral(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	// Referral with a 50k average budget closing within a week:
	// 50 + 15 + 15 + 15 = 95.
	got := CalculateLeadScore(LeadScoreInput{
		Source:            "referral",
		BudgetMin:         floatPtr(40000),
		BudgetMax:         floatPtr(60000),
		ExpectedCloseDate: timePtr(now.AddDate(0, 0, 5)),
	}, now)
	assert.Equal(t, 95, got)
}

func TestCalculateLeadScoreClampedAt100(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	// Best possible combination: 50 + 15 + 20 + 15 = 100, never more.
	got := CalculateLeadScore(LeadScoreInput{
		Source:            "referral",
		BudgetMin:         floatPtr(100000),
		BudgetMax:         floatPtr(200000),
		ExpectedCloseDate: timePtr(now.AddDate(0, 0, 2)),
	}, now)
	assert.Equal(t, 100, got)
}
