package book

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageCount(t *testing.T) {
	testCases := []struct {
		total   int
		perPage int
		want    int
	}{
		{25, 10, 3},
		{20, 10, 2},
		{1, 10, 1},
		{0, 10, 0},
		{10, 0, 0},
		{-5, 10, 0},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.want, PageCount(tc.total, tc.perPage), "total=%d perPage=%d", tc.total, tc.perPage)
	}
}

func TestPageLinks(t *testing.T) {
	t.Run("three pages for 25 items", func(t *testing.T) {
		links := PageLinks(25, ItemsPerPage)
		assert.Len(t, links, 3)
		assert.Equal(t, PageLink{Number: 1, Search: "?page=1"}, links[0])
		assert.Equal(t, PageLink{Number: 3, Search: "?page=3"}, links[2])
	})

	t.Run("no links without items", func(t *testing.T) {
		assert.Empty(t, PageLinks(0, ItemsPerPage))
	})
}

func TestNormalizePage(t *testing.T) {
	assert.Equal(t, 1, NormalizePage(0))
	assert.Equal(t, 1, NormalizePage(-3))
	assert.Equal(t, 4, NormalizePage(4))
}
