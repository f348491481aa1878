// Package pricing computes the per-contributor price of a funding pool. The
// price starts high for early contributors and decreases as the contributor
// count grows, bounded below by the even split across maxContributors.
package pricing

import "math"

// initialUptake is the share of maxContributors assumed to join before any
// contribution exists, used to seed the target headcount.
const initialUptake = 4 // 25%

const minTargetContributors = 2

// PerUser returns the price the next contributor pays. Pure function.
//
// For fixed totalCost/maxContributors the result is non-increasing in
// contributorsCount and always within [1, totalCost]. The growth estimate is
// a heuristic; the initial target is carried forward as a floor so the
// derived target headcount never shrinks between calls.
func PerUser(totalCost int64, contributorsCount, maxContributors int) int64 {
	if totalCost <= 0 || maxContributors <= 0 {
		return 1
	}

	evenSplit := totalCost / int64(maxContributors)

	if contributorsCount >= maxContributors {
		return clamp(evenSplit, evenSplit)
	}

	target := initialTarget(maxContributors)
	if contributorsCount > 0 {
		progress := float64(contributorsCount) / float64(maxContributors)
		estimated := float64(contributorsCount) * (2 + math.Log(1+progress))
		if estimated > float64(maxContributors) {
			estimated = float64(maxContributors)
		}
		if est := int(math.Round(estimated)); est > target {
			target = est
		}
		if contributorsCount+1 > target {
			target = contributorsCount + 1
		}
	}

	return clamp(totalCost/int64(target), evenSplit)
}

// initialTarget is the headcount assumed at zero contributors: 25% uptake,
// at least two people.
func initialTarget(maxContributors int) int {
	t := maxContributors / initialUptake
	if t < minTargetContributors {
		t = minTargetContributors
	}
	return t
}

func clamp(price, floor int64) int64 {
	if price < floor {
		price = floor
	}
	if price < 1 {
		price = 1
	}
	return price
}
