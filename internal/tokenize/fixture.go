package tokenize

import (
	"fmt"
	"io"
	"os"

	"github.com/ppiankov/partsync/internal/model"
	"gopkg.in/yaml.v3"
)

// LoadParts reads a pre-tokenized document:
//
//	id: page-1
//	parts:
//	  - {kind: html_element, text: "<p>"}
//	  - {kind: text_real, text: "Hello"}
func LoadParts(r io.Reader) (model.Document, error) {
	var doc model.Document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return doc, nil
		}
		return doc, fmt.Errorf("decode parts: %w", err)
	}
	return doc, nil
}

// LoadPartsFile reads a part list from path. A document without an id
// takes the path as its id.
func LoadPartsFile(path string) (model.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.Document{}, fmt.Errorf("open parts: %w", err)
	}
	defer func() { _ = f.Close() }()

	doc, err := LoadParts(f)
	if err != nil {
		return doc, fmt.Errorf("%s: %w", path, err)
	}
	if doc.ID == "" {
		doc.ID = path
	}
	return doc, nil
}

// WriteParts writes doc in the format LoadParts reads
func WriteParts(w io.Writer, doc model.Document) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode parts: %w", err)
	}
	return enc.Close()
}
