package corpus

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/petlog/healthrag/core"
)

type documentFile struct {
	Documents []core.CorpusDocument `json:"documents"`
}

// LoadFile reads a JSON document file from disk and builds a Corpus over it.
func LoadFile(path string, opts ...Option) (*Corpus, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening corpus file: %w", err)
	}
	defer f.Close()

	return Load(f, opts...)
}

// Load parses corpus documents from r. The payload is either an object with
// a "documents" array or a bare array of documents.
func Load(r io.Reader, opts ...Option) (*Corpus, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading corpus: %w", err)
	}

	var file documentFile
	if err := json.Unmarshal(data, &file); err != nil {
		var bare []core.CorpusDocument
		if bareErr := json.Unmarshal(data, &bare); bareErr != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedCorpus, err)
		}
		file.Documents = bare
	}

	docs := make([]core.CorpusDocument, 0, len(file.Documents))
	for _, doc := range file.Documents {
		if doc.Title == "" && doc.Body == "" {
			continue
		}
		docs = append(docs, doc)
	}
	return New(docs, opts...), nil
}
