package attribution

import (
	"math"
	"time"
)

// Timing windows per matching method, in days.
const (
	OutreachWindowDays = 365
	AuditWindowDays    = 90

	// InstagramFallbackScore is the flat timing score assigned when a
	// matched Spotify touchpoint carries no timestamp at all. Instagram
	// exports frequently omit the contact date.
	InstagramFallbackScore = 0.6
)

// TimingScore validates the interval between a touchpoint date and a
// signup date. daysDiff is the ceiling of the interval in days; the
// match is invalid (score 0) unless 1 <= daysDiff <= maxDays, and a
// valid match scores 1 - daysDiff/maxDays so a more recent touchpoint
// scores higher. When allowSameDay is set (audits only), daysDiff == 0
// scores the maximum 1.0.
func TimingScore(touched, signup time.Time, maxDays int, allowSameDay bool) (float64, int) {
	daysDiff := int(math.Ceil(signup.Sub(touched).Hours() / 24))

	if allowSameDay && daysDiff == 0 {
		return 1.0, 0
	}
	if daysDiff < 1 || daysDiff > maxDays {
		return 0, daysDiff
	}
	return 1.0 - float64(daysDiff)/float64(maxDays), daysDiff
}
