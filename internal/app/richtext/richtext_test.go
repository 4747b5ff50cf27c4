package richtext

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitize(t *testing.T) {
	out := Sanitize(`<p onclick="x()">Hi <strong>there</strong><script>alert(1)</script></p>`)
	assert.Equal(t, `<p>Hi <strong>there</strong></p>`, out)

	out = Sanitize(`<a href="javascript:alert(1)">x</a>`)
	assert.NotContains(t, out, "javascript:")
}

func TestMarkdown(t *testing.T) {
	out, err := Markdown("# Title\n\nSome **bold** text <img src=x onerror=alert(1)>")
	require.NoError(t, err)
	assert.Contains(t, out, "<h1>Title</h1>")
	assert.Contains(t, out, "<strong>bold</strong>")
	assert.NotContains(t, out, "onerror")
}

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Component(KindHTML, `<em>ok</em><iframe src="x"></iframe>`).Render(context.Background(), &buf))
	assert.Equal(t, `<em>ok</em>`, buf.String())
}
