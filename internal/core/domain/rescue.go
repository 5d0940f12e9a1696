package domain

import "time"

// RescueScore scores how urgently a listing is worth rescuing, 0-100.
// Discount depth contributes up to 50 (two points per percent off), expiry
// urgency adds 30/20/10 inside 24/48/72 hours. The score is computed when a
// listing is created or edited and persisted; it is not recomputed on read,
// so displayed urgency freezes at last-edit time.
func RescueScore(originalPriceCents, priceCents int64, expiresAt, now time.Time) int {
	score := 0.0

	if originalPriceCents > priceCents && originalPriceCents > 0 {
		discountPercent := float64(originalPriceCents-priceCents) / float64(originalPriceCents) * 100
		contribution := discountPercent * 2
		if contribution > 50 {
			contribution = 50
		}
		score += contribution
	}

	hoursUntilExpiry := expiresAt.Sub(now).Hours()
	switch {
	case hoursUntilExpiry <= 24:
		score += 30
	case hoursUntilExpiry <= 48:
		score += 20
	case hoursUntilExpiry <= 72:
		score += 10
	}

	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return int(score)
}
