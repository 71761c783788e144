// Package environment builds the protocol-version context a scenario is
// interpreted in.
//
// An Environment is never built eagerly. Registration stores a Factory;
// the dictionary is compiled only when an executor calls the factory for
// a case it is about to run. Each call returns a fresh Environment, so
// cases never share one.
package environment

import "fmt"

// Session holds the session settings the acceptance definitions assume.
type Session struct {
	SenderCompID string `json:"sender_comp_id"`
	TargetCompID string `json:"target_comp_id"`
	HeartBtInt   int    `json:"heart_bt_int"`
}

// AcceptanceSession is the identity used by the reference definitions:
// the engine under test acts as ISLD, the scripted counterparty as TW.
var AcceptanceSession = Session{
	SenderCompID: "ISLD",
	TargetCompID: "TW",
	HeartBtInt:   30,
}

// Environment is the context needed to interpret one version's scenarios.
type Environment struct {
	Version     string      `json:"version"`
	BeginString string      `json:"begin_string"`
	Dictionary  *Dictionary `json:"-"`
	Session     Session     `json:"session"`
}

// Factory produces a new Environment. It takes no arguments and is bound
// to one version tag when created.
type Factory func() (*Environment, error)

// NewFactory returns a factory for version using session settings.
// Nothing is compiled until the factory is called.
func NewFactory(version string, session Session) Factory {
	return func() (*Environment, error) {
		dict, err := LoadDictionary(version)
		if err != nil {
			return nil, fmt.Errorf("build FIX %s environment: %w", version, err)
		}
		return &Environment{
			Version:     version,
			BeginString: dict.BeginString,
			Dictionary:  dict,
			Session:     session,
		}, nil
	}
}

// FIX42 builds a FIX 4.2 acceptance environment.
func FIX42() (*Environment, error) {
	return NewFactory("4.2", AcceptanceSession)()
}

// FIX44 builds a FIX 4.4 acceptance environment.
func FIX44() (*Environment, error) {
	return NewFactory("4.4", AcceptanceSession)()
}
