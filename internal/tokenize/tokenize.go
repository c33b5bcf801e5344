package tokenize

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ppiankov/partsync/internal/model"
	"golang.org/x/net/html"
)

// FromHTML splits an HTML page into typed parts, in source order.
// Parts keep the raw source text of each token.
func FromHTML(id string, r io.Reader) (model.Document, error) {
	z := html.NewTokenizer(r)
	doc := model.Document{ID: id}
	rawTag := ""

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if err := z.Err(); !errors.Is(err, io.EOF) {
				return doc, fmt.Errorf("tokenize %s: %w", id, err)
			}
			return doc, nil

		case html.StartTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "script", "style":
				rawTag = string(name)
			}
			doc.Parts = append(doc.Parts, model.Element(string(z.Raw())))

		case html.EndTagToken:
			rawTag = ""
			doc.Parts = append(doc.Parts, model.Element(string(z.Raw())))

		case html.SelfClosingTagToken, html.CommentToken, html.DoctypeToken:
			doc.Parts = append(doc.Parts, model.Element(string(z.Raw())))

		case html.TextToken:
			text := string(z.Raw())
			doc.Parts = append(doc.Parts, model.Part{Kind: classifyText(text, rawTag), Text: text})
		}
	}
}

// FromString tokenizes an HTML string
func FromString(id, htmlContent string) (model.Document, error) {
	return FromHTML(id, strings.NewReader(htmlContent))
}

func classifyText(text, rawTag string) model.PartKind {
	switch rawTag {
	case "script":
		return model.KindScript
	case "style":
		return model.KindStyle
	}
	if isBlank(text) {
		return model.KindTextEmpty
	}
	return model.KindTextReal
}

// isBlank reports whether text holds only whitespace and non-breaking spaces
func isBlank(text string) bool {
	text = strings.ReplaceAll(text, "&nbsp;", "")
	text = strings.ReplaceAll(text, "&#160;", "")
	return strings.TrimSpace(strings.ReplaceAll(text, " ", "")) == ""
}
