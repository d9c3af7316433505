package service

import "math"

const (
	penaltyMaxDays  = 100
	penaltyMaxCoeff = 2.0
	penaltyMinCoeff = 1.2
)

// Penalty returns the push-up count owed for a day missed missedDayDistance
// event days in. The multiplier starts at 2.0 for the first day and decreases
// linearly to a 1.2 floor at day 100 and beyond.
//
// The result is rounded half-to-even, so penalty(1) == 2, penalty(50) == 80
// and penalty(100) == 120. The rounding rule is part of the user-visible
// contract: it is the exact count the bot demands.
func Penalty(missedDayDistance int) int {
	if missedDayDistance <= 0 {
		return 0
	}
	coeff := penaltyMinCoeff
	if missedDayDistance < penaltyMaxDays {
		coeff = penaltyMaxCoeff - float64(missedDayDistance-1)*(penaltyMaxCoeff-penaltyMinCoeff)/float64(penaltyMaxDays-1)
	}
	return int(math.RoundToEven(float64(missedDayDistance) * coeff))
}
