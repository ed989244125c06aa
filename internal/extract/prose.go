package extract

import (
	"github.com/jdkato/prose/v2"
)

// ProseRecognizer backs Recognizer with the prose NLP pipeline.
type ProseRecognizer struct{}

// NewProseRecognizer returns the production recognizer.
func NewProseRecognizer() ProseRecognizer {
	return ProseRecognizer{}
}

// Entities tokenizes and tags the text, returning the surface form of every
// recognized entity span regardless of its label.
func (ProseRecognizer) Entities(text string) ([]string, error) {
	doc, err := prose.NewDocument(text, prose.WithSegmentation(false))
	if err != nil {
		return nil, err
	}

	ents := doc.Entities()
	spans := make([]string, 0, len(ents))
	for _, ent := range ents {
		spans = append(spans, ent.Text)
	}
	return spans, nil
}
