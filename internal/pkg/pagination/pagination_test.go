package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	testCases := []struct {
		name       string
		page       int
		limit      int
		wantPage   int
		wantLimit  int
		wantOffset int
	}{
		{"defaults", 1, DefaultLimit, 1, 5, 0},
		{"zero page", 0, 10, 1, 10, 0},
		{"negative page", -3, 10, 1, 10, 0},
		{"zero limit", 2, 0, 2, 5, 5},
		{"limit over max", 1, 100, 1, 20, 0},
		{"third page", 3, 10, 3, 10, 20},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			params := Normalize(tt.page, tt.limit)
			assert.Equal(t, tt.wantPage, params.Page)
			assert.Equal(t, tt.wantLimit, params.Limit)
			assert.Equal(t, tt.wantOffset, params.Offset)
		})
	}
}

func TestGetMeta(t *testing.T) {
	params := Normalize(2, 5)
	meta := GetMeta(params, 12)

	assert.Equal(t, 3, meta.TotalPages)
	assert.Equal(t, int64(12), meta.Total)
	assert.True(t, meta.HasNext)
	assert.True(t, meta.HasPrev)

	last := GetMeta(Normalize(3, 5), 12)
	assert.False(t, last.HasNext)
}
