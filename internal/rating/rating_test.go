package rating

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAverage(t *testing.T) {
	testCases := []struct {
		name    string
		ratings []int
		want    int
	}{
		{"no ratings", nil, 0},
		{"single", []int{4}, 4},
		{"rounds down", []int{4, 4, 5}, 4},
		{"rounds half up", []int{3, 4}, 4},
		{"all max", []int{5, 5, 5}, 5},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := Average(tc.ratings)
			assert.Equal(t, tc.want, got)
			if len(tc.ratings) > 0 {
				assert.GreaterOrEqual(t, got, Min)
				assert.LessOrEqual(t, got, Max)
			}
		})
	}
}

func TestStars(t *testing.T) {
	assert.Equal(t, "☆☆☆☆☆", Stars(0))
	assert.Equal(t, "★★★☆☆", Stars(3))
	assert.Equal(t, "★★★★★", Stars(5))
}
