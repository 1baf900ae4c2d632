package anthropic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessageResponseText(t *testing.T) {
	tests := []struct {
		name string
		resp *MessageResponse
		want string
	}{
		{
			name: "nil response",
			resp: nil,
			want: "",
		},
		{
			name: "single block",
			resp: &MessageResponse{Content: []ContentBlock{{Type: "text", Text: "hello"}}},
			want: "hello",
		},
		{
			name: "multiple blocks joined",
			resp: &MessageResponse{Content: []ContentBlock{
				{Type: "text", Text: "first"},
				{Type: "text", Text: "second"},
			}},
			want: "first\nsecond",
		},
		{
			name: "empty blocks skipped",
			resp: &MessageResponse{Content: []ContentBlock{
				{Type: "text", Text: ""},
				{Type: "text", Text: "only"},
			}},
			want: "only",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.resp.Text())
		})
	}
}

func TestTokenUsageAdd(t *testing.T) {
	u := TokenUsage{InputTokens: 10, OutputTokens: 5}
	u.Add(TokenUsage{InputTokens: 3, OutputTokens: 7})
	assert.Equal(t, int64(13), u.InputTokens)
	assert.Equal(t, int64(12), u.OutputTokens)
}

func TestToSDKMessages_Roles(t *testing.T) {
	msgs := toSDKMessages([]Message{
		{Role: "user", Content: "hi"},
		{Role: "assistant", Content: "hello"},
	})
	assert.Len(t, msgs, 2)
	assert.Equal(t, "user", string(msgs[0].Role))
	assert.Equal(t, "assistant", string(msgs[1].Role))
}
