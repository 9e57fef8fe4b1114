package sanitize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDescriptionKeepsAllowedMarkup(t *testing.T) {
	in := `<h2>Luna</h2><p>Very <strong>calm</strong> and <em>friendly</em>.</p><ul><li>vaccinated</li></ul>`
	assert.Equal(t, in, Description(in))
}

func TestDescriptionStripsScriptsAndHandlers(t *testing.T) {
	out := Description(`<p onclick="steal()">hi</p><script>alert(1)</script>`)
	assert.Equal(t, "<p>hi</p>", out)
}

func TestDescriptionFiltersAttributes(t *testing.T) {
	out := Description(`<a href="https://example.com" title="t" style="color:red">site</a>`)
	assert.Contains(t, out, `href="https://example.com"`)
	assert.Contains(t, out, `title="t"`)
	assert.NotContains(t, out, "style")

	out = Description(`<img src="https://cdn.example.com/a.jpg" alt="a" width="10">`)
	assert.Contains(t, out, `src="https://cdn.example.com/a.jpg"`)
	assert.NotContains(t, out, "width")
}

func TestDescriptionDropsDisallowedTagsButKeepsText(t *testing.T) {
	out := Description(`<div><table><tr><td>cell</td></tr></table></div>`)
	assert.Equal(t, "cell", out)
}

func TestDescriptionRejectsJavascriptURLs(t *testing.T) {
	out := Description(`<a href="javascript:alert(1)">x</a>`)
	assert.False(t, strings.Contains(out, "javascript"), out)
}

func TestDescriptionBlank(t *testing.T) {
	assert.Equal(t, "", Description("   "))
}
