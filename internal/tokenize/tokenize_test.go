package tokenize

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ppiankov/partsync/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromString_Kinds(t *testing.T) {
	page := "<!DOCTYPE html><p class=\"x\">Hello <b>world</b></p>\n" +
		"<script>var a = '<p>';</script><style>p{}</style>&nbsp;<br/>"

	doc, err := FromString("page", page)
	require.NoError(t, err)

	want := []model.Part{
		model.Element("<!DOCTYPE html>"),
		model.Element("<p class=\"x\">"),
		model.Text("Hello "),
		model.Element("<b>"),
		model.Text("world"),
		model.Element("</b>"),
		model.Element("</p>"),
		model.Empty("\n"),
		model.Element("<script>"),
		{Kind: model.KindScript, Text: "var a = '<p>';"},
		model.Element("</script>"),
		model.Element("<style>"),
		{Kind: model.KindStyle, Text: "p{}"},
		model.Element("</style>"),
		model.Empty("&nbsp;"),
		model.Element("<br/>"),
	}
	assert.Equal(t, "page", doc.ID)
	assert.Equal(t, want, doc.Parts)
}

func TestFromString_Empty(t *testing.T) {
	doc, err := FromString("empty", "")
	require.NoError(t, err)
	assert.Empty(t, doc.Parts)
}

func TestIsBlank(t *testing.T) {
	assert.True(t, isBlank("  \n\t"))
	assert.True(t, isBlank("&nbsp; &#160; "))
	assert.False(t, isBlank(" a "))
}

func TestYAMLRoundTrip(t *testing.T) {
	src := `id: page-1
parts:
  - {kind: html_element, text: "<p>"}
  - {kind: text_real, text: "Hello"}
  - {kind: text_empty, text: " "}
  - {kind: script, text: "x()"}
`
	doc, err := LoadParts(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, model.NewDocument("page-1",
		model.Element("<p>"), model.Text("Hello"), model.Empty(" "),
		model.Part{Kind: model.KindScript, Text: "x()"},
	), doc)

	var buf bytes.Buffer
	require.NoError(t, WriteParts(&buf, doc))
	assert.Contains(t, buf.String(), "kind: text_real")

	again, err := LoadParts(&buf)
	require.NoError(t, err)
	assert.Equal(t, doc, again)
}

func TestLoadParts_UnknownKind(t *testing.T) {
	_, err := LoadParts(strings.NewReader("parts:\n  - {kind: banner, text: x}\n"))
	assert.Error(t, err)
}

func TestLoadPartsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "page.yaml")
	require.NoError(t, os.WriteFile(path, []byte("parts:\n  - {kind: text_real, text: Hi}\n"), 0o644))

	doc, err := LoadPartsFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, doc.ID)
	assert.Equal(t, []model.Part{model.Text("Hi")}, doc.Parts)

	_, err = LoadPartsFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
