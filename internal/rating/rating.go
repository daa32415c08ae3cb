package rating

import (
	"math"
	"strings"
)

const (
	// Min and Max bound a single star rating.
	Min = 1
	Max = 5
)

// Average returns the mean of ratings rounded to the nearest whole star,
// or 0 when there are none.
func Average(ratings []int) int {
	if len(ratings) == 0 {
		return 0
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	return int(math.Round(float64(sum) / float64(len(ratings))))
}

// Stars renders avg as five filled or empty stars.
func Stars(avg int) string {
	var sb strings.Builder
	for i := Min; i <= Max; i++ {
		if i <= avg {
			sb.WriteString("★")
		} else {
			sb.WriteString("☆")
		}
	}
	return sb.String()
}
