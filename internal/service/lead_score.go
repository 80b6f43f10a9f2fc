package service

import (
	"math"
	"time"
)

// leadSourceWeights maps a lead's source to its score contribution.
// Unrecognised or empty sources fall back to the default weight.
var leadSourceWeights = map[string]int{
	"website":      10,
	"referral":     15,
	"walk-in":      12,
	"phone":        8,
	"email":        7,
	"social-media": 5,
	"other":        5,
}

const defaultSourceWeight = 5

// LeadScoreInput carries the attributes the scorer reads. Nil fields mean
// the attribute was not provided and its bonus branch is skipped.
type LeadScoreInput struct {
	Source            string
	BudgetMin         *float64
	BudgetMax         *float64
	ExpectedCloseDate *time.Time
}

// CalculateLeadScore rates how promising a lead looks on a 0-100 scale.
// The score starts at 50 and accumulates bonuses for the lead source, the
// stated budget, and how soon the lead expects to close. It is computed
// once when the lead is created and stored as a snapshot.
func CalculateLeadScore(input LeadScoreInput, now time.Time) int {
	score := 50

	if weight, ok := leadSourceWeights[input.Source]; ok {
		score += weight
	} else {
		score += defaultSourceWeight
	}

	if input.BudgetMin != nil && input.BudgetMax != nil {
		avg := (*input.BudgetMin + *input.BudgetMax) / 2
		switch {
		case avg > 50000:
			score += 20
		case avg > 30000:
			score += 15
		case avg > 15000:
			score += 10
		default:
			score += 5
		}
	}

	if input.ExpectedCloseDate != nil {
		days := int(math.Ceil(input.ExpectedCloseDate.Sub(now).Hours() / 24))
		switch {
		case days < 0:
			// past close dates earn nothing
		case days <= 7:
			score += 15
		case days <= 30:
			score += 10
		case days <= 90:
			score += 5
		}
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}
