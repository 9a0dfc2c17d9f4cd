package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRender(t *testing.T) {
	r := New()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "emphasis",
			input: "this is *important*",
			want:  "<p>this is <em>important</em></p>\n",
		},
		{
			name:  "strikethrough",
			input: "~~scratch that~~",
			want:  "<p><del>scratch that</del></p>\n",
		},
		{
			name:  "inline code keeps angle brackets escaped",
			input: "run `rm -rf <dir>`",
			want:  "<p>run <code>rm -rf &lt;dir&gt;</code></p>\n",
		},
		{
			name:  "hard line breaks",
			input: "line one\nline two",
			want:  "<p>line one<br>\nline two</p>\n",
		},
		{
			name:  "headings are plain text",
			input: "# not a heading",
			want:  "<p># not a heading</p>\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, string(r.Render(tt.input)))
		})
	}
}

func TestRenderNeutralizesMarkup(t *testing.T) {
	r := New()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "script tag survives only as escaped text",
			input: `<script>alert("x")</script>hello`,
			want:  "<p>&lt;script&gt;alert(&#34;x&#34;)&lt;/script&gt;hello</p>\n",
		},
		{
			name:  "event handler survives only as escaped text",
			input: `<img src=x onerror=alert(1)>hi`,
			want:  "<p>&lt;img src=x onerror=alert(1)&gt;hi</p>\n",
		},
		{
			name:  "javascript link stays plain text",
			input: `[click](javascript:alert(1))`,
			want:  "<p>[click](javascript:alert(1))</p>\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := string(r.Render(tt.input))
			assert.Equal(t, tt.want, got)
			assert.NotContains(t, got, "<script")
			assert.NotContains(t, got, "<img")
		})
	}
}

func TestRenderFencedCode(t *testing.T) {
	r := New()

	got := string(r.Render("```go\nfmt.Println(\"hi\")\n```"))
	assert.Contains(t, got, `<pre><code class="language-go">`)
	assert.Contains(t, got, "fmt.Println(&#34;hi&#34;)")
}
