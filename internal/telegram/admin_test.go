package telegram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePostLink(t *testing.T) {
	tests := []struct {
		name      string
		link      string
		wantChat  int64
		wantMsgID int
		wantErr   bool
	}{
		{
			name:      "https link",
			link:      "https://t.me/c/123456/789",
			wantChat:  -100123456,
			wantMsgID: 789,
		},
		{
			name:      "no scheme",
			link:      "t.me/c/123456/789",
			wantChat:  -100123456,
			wantMsgID: 789,
		},
		{
			name:      "trailing slash",
			link:      "https://t.me/c/123456/789/",
			wantChat:  -100123456,
			wantMsgID: 789,
		},
		{
			name:    "public channel link unsupported",
			link:    "https://t.me/somechannel/789",
			wantErr: true,
		},
		{
			name:    "not a telegram link",
			link:    "https://example.com/c/123456/789",
			wantErr: true,
		},
		{
			name:    "garbage message id",
			link:    "https://t.me/c/123456/abc",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chatID, messageID, err := parsePostLink(tt.link)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantChat, chatID)
			assert.Equal(t, tt.wantMsgID, messageID)
		})
	}
}
