package scenario

import "fmt"

// Corpus identifies which scenario collection a root belongs to.
type Corpus string

const (
	// Reference is the external reference corpus. Inclusion is opt-in.
	Reference Corpus = "reference"

	// Custom is the locally curated corpus.
	Custom Corpus = "custom"
)

// Corpora lists the known corpora in declaration order.
var Corpora = []Corpus{Reference, Custom}

// Valid reports whether c is a known corpus.
func (c Corpus) Valid() bool {
	for _, known := range Corpora {
		if c == known {
			return true
		}
	}
	return false
}

// RootKey is the policy lookup key for a root.
// Two roots with the same key share an inclusion set.
type RootKey struct {
	Corpus  Corpus `json:"corpus"`
	Version string `json:"version"`
}

// String renders the key as "corpus/version".
func (k RootKey) String() string {
	return fmt.Sprintf("%s/%s", k.Corpus, k.Version)
}

// Root is one concrete scenario directory.
type Root struct {
	// Corpus is the collection this directory belongs to.
	Corpus Corpus `json:"corpus"`

	// Version is the protocol version tag, e.g. "4.2".
	Version string `json:"version"`

	// Dir is the directory holding the scenario files.
	Dir string `json:"dir"`
}

// Key returns the policy key for the root.
func (r Root) Key() RootKey {
	return RootKey{Corpus: r.Corpus, Version: r.Version}
}

func (r Root) String() string {
	return r.Key().String()
}
