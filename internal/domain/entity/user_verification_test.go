package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUserVerification_IsActive(t *testing.T) {
	now := time.Now()
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	tests := []struct {
		name   string
		record UserVerification
		want   bool
	}{
		{
			name:   "verified and unexpired",
			record: UserVerification{IsVerified: true, ExpiresAt: &future},
			want:   true,
		},
		{
			name:   "verified but expired",
			record: UserVerification{IsVerified: true, ExpiresAt: &past},
			want:   false,
		},
		{
			name:   "pending record",
			record: UserVerification{IsVerified: false, ExpiresAt: &future},
			want:   false,
		},
		{
			name:   "verified without expiry",
			record: UserVerification{IsVerified: true},
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.record.IsActive(now))
		})
	}
}

func TestRetrievalLimit_ResetDue(t *testing.T) {
	now := time.Now()
	window := 24 * time.Hour

	fresh := RetrievalLimit{LastReset: now.Add(-time.Hour)}
	assert.False(t, fresh.ResetDue(now, window))

	boundary := RetrievalLimit{LastReset: now.Add(-window)}
	assert.True(t, boundary.ResetDue(now, window))

	stale := RetrievalLimit{LastReset: now.Add(-48 * time.Hour)}
	assert.True(t, stale.ResetDue(now, window))
}
