package harvest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildSearchURL(t *testing.T) {
	tests := []struct {
		name     string
		keyword  string
		location string
		want     string
	}{
		{
			name:     "keyword with location",
			keyword:  "Coffee Shop",
			location: "Springfield",
			want:     "https://www.google.com/maps/search/Coffee+Shop+in+Springfield",
		},
		{
			name:    "global mode",
			keyword: "Tesla Dealership",
			want:    "https://www.google.com/maps/search/Tesla+Dealership",
		},
		{
			name:     "special characters escaped",
			keyword:  "Fish & Chips",
			location: "London",
			want:     "https://www.google.com/maps/search/Fish+&+Chips+in+London",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildSearchURL(tt.keyword, tt.location))
		})
	}
}

func TestDedupeLinks(t *testing.T) {
	hrefs := []string{
		"https://www.google.com/maps/place/alpha",
		"https://www.google.com/maps/search/not-a-place",
		"https://www.google.com/maps/place/beta",
		"https://www.google.com/maps/place/alpha", // duplicate
		"",
		"https://www.google.com/maps/place/gamma",
	}

	links := DedupeLinks(hrefs, 0)
	assert.Equal(t, []string{
		"https://www.google.com/maps/place/alpha",
		"https://www.google.com/maps/place/beta",
		"https://www.google.com/maps/place/gamma",
	}, links, "order preserved, duplicates and non-detail links dropped")
}

func TestDedupeLinksCap(t *testing.T) {
	hrefs := []string{
		"https://www.google.com/maps/place/a",
		"https://www.google.com/maps/place/b",
		"https://www.google.com/maps/place/c",
	}
	assert.Len(t, DedupeLinks(hrefs, 2), 2)
	assert.Len(t, DedupeLinks(hrefs, 10), 3)
	assert.Empty(t, DedupeLinks(nil, 5))
}

func TestStabilityEarlyStop(t *testing.T) {
	st := newStability(2)

	assert.False(t, st.observe(100), "first reading")
	assert.False(t, st.observe(200), "still growing")
	assert.False(t, st.observe(200), "one stable round")
	assert.True(t, st.observe(200), "second stable round triggers stop")
}

func TestStabilityResetsOnGrowth(t *testing.T) {
	st := newStability(2)

	st.observe(100)
	st.observe(100)
	assert.False(t, st.observe(300), "growth resets the counter")
	assert.False(t, st.observe(300))
	assert.True(t, st.observe(300))
}
