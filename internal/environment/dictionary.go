package environment

import (
	"embed"
	"fmt"
	"sort"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

//go:embed dictionaries/*.cue
var dictionaryFS embed.FS

// Message describes one message type of a protocol dictionary.
type Message struct {
	Name     string `json:"-"`
	MsgType  string `json:"msgType"`
	Admin    bool   `json:"admin"`
	Required []int  `json:"required"`
}

// Dictionary is the subset of a FIX data dictionary the acceptance
// executor needs to interpret scenario messages.
type Dictionary struct {
	Version     string             `json:"version"`
	BeginString string             `json:"beginString"`
	Header      []int              `json:"header"`
	Trailer     []int              `json:"trailer"`
	Messages    map[string]Message `json:"messages"`
}

// ByMsgType returns the message with the given MsgType(35) value.
func (d *Dictionary) ByMsgType(msgType string) (Message, bool) {
	for _, m := range d.Messages {
		if m.MsgType == msgType {
			return m, true
		}
	}
	return Message{}, false
}

// AdminMsgTypes returns the session-level message types, sorted.
func (d *Dictionary) AdminMsgTypes() []string {
	var types []string
	for _, m := range d.Messages {
		if m.Admin {
			types = append(types, m.MsgType)
		}
	}
	sort.Strings(types)
	return types
}

// dictionaryFile maps a version tag to its embedded CUE document,
// e.g. "4.2" -> "dictionaries/fix42.cue".
func dictionaryFile(version string) string {
	return "dictionaries/fix" + strings.ReplaceAll(version, ".", "") + ".cue"
}

// LoadDictionary compiles the embedded CUE dictionary for version.
//
// Compilation happens on every call. Factories call this lazily, so
// dictionaries of versions that end up with no cases are never built.
func LoadDictionary(version string) (*Dictionary, error) {
	name := dictionaryFile(version)
	src, err := dictionaryFS.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("no dictionary for FIX %s: %w", version, err)
	}
	return compileDictionary(name, src, version)
}

func compileDictionary(name string, src []byte, version string) (*Dictionary, error) {
	ctx := cuecontext.New()
	value := ctx.CompileBytes(src, cue.Filename(name))
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("compile %s: %w", name, err)
	}

	dv := value.LookupPath(cue.ParsePath("dictionary"))
	if !dv.Exists() {
		return nil, fmt.Errorf("%s: dictionary is required", name)
	}
	if err := dv.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("validate %s: %w", name, err)
	}

	var dict Dictionary
	if err := dv.Decode(&dict); err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}

	if dict.Version != version {
		return nil, fmt.Errorf("%s: declares version %q, expected %q", name, dict.Version, version)
	}
	if dict.BeginString == "" {
		return nil, fmt.Errorf("%s: beginString is required", name)
	}
	for msgName, m := range dict.Messages {
		m.Name = msgName
		dict.Messages[msgName] = m
	}

	return &dict, nil
}
