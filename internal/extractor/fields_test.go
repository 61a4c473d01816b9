package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchPhone(t *testing.T) {
	tests := []struct {
		name       string
		candidates []string
		want       string
	}{
		{
			name:       "international format",
			candidates: []string{"+1 555-123-4567"},
			want:       "+1 555-123-4567",
		},
		{
			name:       "embedded in aria label",
			candidates: []string{"Phone: 020 7946 0958"},
			want:       "020 7946 0958",
		},
		{
			name:       "first candidate wins",
			candidates: []string{"no digits here", "555-123-4567", "999 888 7777"},
			want:       "555-123-4567",
		},
		{
			name:       "too short",
			candidates: []string{"12345"},
			want:       "",
		},
		{
			name:       "empty candidates skipped",
			candidates: []string{"", "", "+44 20 7946 0958"},
			want:       "+44 20 7946 0958",
		},
		{
			name:       "no match",
			candidates: []string{"Call us today"},
			want:       "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchPhone(tt.candidates))
		})
	}
}

func TestAddressFromLabel(t *testing.T) {
	assert.Equal(t, "1 Main St, Springfield", AddressFromLabel("Address: 1 Main St, Springfield"))
	assert.Equal(t, "no colon here", AddressFromLabel("no colon here"))
	// The value after the LAST colon wins.
	assert.Equal(t, "Suite 5", AddressFromLabel("Address: Building A: Suite 5"))
	assert.Equal(t, "", AddressFromLabel("Address:"))
}

func TestExternalWebsite(t *testing.T) {
	assert.True(t, ExternalWebsite("https://example.com"))
	assert.True(t, ExternalWebsite("http://shop.example.org/contact"))
	assert.False(t, ExternalWebsite("https://www.google.com/maps/place/x"))
	assert.False(t, ExternalWebsite("/maps/place/relative"))
	assert.False(t, ExternalWebsite(""))
}
