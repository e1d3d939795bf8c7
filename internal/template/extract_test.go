package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtract(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "plain template",
			text: "\n  Resources:\n    A:\n      Type: X\n",
			want: "Resources:\n    A:\n      Type: X",
		},
		{
			name: "fenced yaml block",
			text: "Here is your template:\n```yaml\nResources:\n  A:\n    Type: X\n```\nValidated.",
			want: "Resources:\n  A:\n    Type: X",
		},
		{
			name: "first valid block wins",
			text: "```bash\naws cloudformation deploy\n```\n```json\n{\"Resources\": {\"A\": {\"Type\": \"X\"}}}\n```",
			want: "{\"Resources\": {\"A\": {\"Type\": \"X\"}}}",
		},
		{
			name: "no valid block falls back to first",
			text: "```\nfoo: bar\n```\n```\nbaz: qux\n```",
			want: "foo: bar",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Extract(tt.text))
		})
	}
}
