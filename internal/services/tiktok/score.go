package tiktok

import (
	"math"
	"time"
)

const (
	viewsWeight = 1.0
	likesWeight = 0.7

	recencyWindow = 365 * 24 * time.Hour

	longVideoSeconds = 180
	longVideoPenalty = 0.6
)

// Score rates a pick: log10(views)*1.0 + log10(likes)*0.7, scaled by a linear decay to zero
// over 365 days and by 0.6 for videos longer than 180 seconds. Unknown creation time counts
// as fresh.
func Score(v PickedVideo, now time.Time) float64 {
	base := viewsWeight*log10(v.Views) + likesWeight*log10(v.Likes)

	recency := 1.0
	if !v.CreatedAt.IsZero() {
		age := now.Sub(v.CreatedAt)
		if age < 0 {
			age = 0
		}
		recency = 1 - float64(age)/float64(recencyWindow)
		if recency < 0 {
			recency = 0
		}
	}

	score := base * recency
	if v.Duration > longVideoSeconds {
		score *= longVideoPenalty
	}
	return score
}

func log10(n int64) float64 {
	if n <= 1 {
		return 0
	}
	return math.Log10(float64(n))
}
