package htmlfmt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func format(t *testing.T, f *Formatter, src string) string {
	t.Helper()
	out, err := f.Format([]byte(src))
	require.NoError(t, err)
	return string(out)
}

func TestFormatNestsBlocks(t *testing.T) {
	src := `<!DOCTYPE html><html><head><meta charset="utf-8"><title> Demo </title></head>` +
		`<body><div class="x"><p>Hello <em>world</em>!</p><ul><li>a</li><li>b</li></ul></div></body></html>`

	want := "<!DOCTYPE html>\n" +
		"<html>\n" +
		"\t<head>\n" +
		"\t\t<meta charset=\"utf-8\">\n" +
		"\t\t<title>Demo</title>\n" +
		"\t</head>\n" +
		"\t<body>\n" +
		"\t\t<div class=\"x\">\n" +
		"\t\t\t<p>Hello <em>world</em>!</p>\n" +
		"\t\t\t<ul>\n" +
		"\t\t\t\t<li>a</li>\n" +
		"\t\t\t\t<li>b</li>\n" +
		"\t\t\t</ul>\n" +
		"\t\t</div>\n" +
		"\t</body>\n" +
		"</html>\n"

	assert.Equal(t, want, format(t, New(1, "\t"), src))
}

func TestFormatIndentUnit(t *testing.T) {
	assert.Equal(t, "<div>\n  <p>x</p>\n</div>\n", format(t, New(2, " "), "<div>\n\n<p>x</p></div>"))
	assert.Equal(t, "<div>\n<p>x</p>\n</div>\n", format(t, New(0, " "), "<div><p>x</p></div>"))
}

func TestFormatPreservesRawElements(t *testing.T) {
	src := "<div><pre>  line 1\n    <b>line 2</b>\n</pre><script>if (a < b) {\n  go()\n}</script>" +
		"<textarea>  keep\n me</textarea><style>a { color: red }</style></div>"

	want := "<div>\n" +
		"\t<pre>  line 1\n    <b>line 2</b>\n</pre>\n" +
		"\t<script>if (a < b) {\n  go()\n}</script>\n" +
		"\t<textarea>  keep\n me</textarea>\n" +
		"\t<style>a { color: red }</style>\n" +
		"</div>\n"

	assert.Equal(t, want, format(t, New(1, "\t"), src))
}

func TestFormatNestedPre(t *testing.T) {
	src := "<pre>a<pre>b</pre>c</pre><p>d</p>"
	assert.Equal(t, "<pre>a<pre>b</pre>c</pre>\n<p>d</p>\n", format(t, New(1, "\t"), src))
}

func TestFormatVoidAndSelfClosing(t *testing.T) {
	src := `<div><hr><img src="a.png"><br/><input type="text"/></div>`
	want := "<div>\n\t<hr>\n\t<img src=\"a.png\"><br/>\n\t<input type=\"text\"/>\n</div>\n"
	assert.Equal(t, want, format(t, New(1, "\t"), src))
}

func TestFormatCommentsAndEmptyInput(t *testing.T) {
	assert.Equal(t, "<!-- note -->\n<p>x</p>\n", format(t, New(1, "\t"), "<!-- note --><p>x</p>"))
	assert.Equal(t, "", format(t, New(1, "\t"), "  \n "))
}

func TestFormatUnbalancedEndTags(t *testing.T) {
	assert.Equal(t, "</div>\n<p>x</p>\n", format(t, New(1, "\t"), "</div><p>x</p>"))
}

func TestFormatIsStable(t *testing.T) {
	f := New(1, "\t")
	once := format(t, f, `<html><body><main><h1>T</h1><p>a <a href="#">b</a></p></main></body></html>`)
	assert.Equal(t, once, format(t, f, once))
}

func TestFormatOptionalEndTags(t *testing.T) {
	f := New(1, "\t")
	cases := map[string]struct {
		src  string
		want string
	}{
		"list items": {
			src:  "<ul><li>a<li>b</ul><p>after</p>",
			want: "<ul>\n\t<li>a\n\t<li>b\n</ul>\n<p>after</p>\n",
		},
		"paragraph ended by block": {
			src:  "<div><p>a<div>b</div></div>",
			want: "<div>\n\t<p>a\n\t<div>b</div>\n</div>\n",
		},
		"table cells and rows": {
			src:  "<table><tr><td>a<td>b<tr><td>c</table><p>x</p>",
			want: "<table>\n\t<tr>\n\t\t<td>a\n\t\t<td>b\n\t<tr>\n\t\t<td>c\n</table>\n<p>x</p>\n",
		},
		"options": {
			src:  "<select><option>a<option>b</select>",
			want: "<select>\n\t<option>a\n\t<option>b\n</select>\n",
		},
		"definition list": {
			src:  "<dl><dt>k<dd>v</dl>",
			want: "<dl>\n\t<dt>k\n\t<dd>v\n</dl>\n",
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			out := format(t, f, tc.src)
			assert.Equal(t, tc.want, out)
			assert.Equal(t, out, format(t, f, out))
		})
	}
}
