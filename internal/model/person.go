package model

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Source records where a contact's best-known value came from. Values are
// ordered; a contact's source only ever moves forward.
type Source int

const (
	SourceCSV Source = iota
	SourcePerplexity
	SourceWhitepages
)

var sourceNames = [...]string{"csv", "perplexity", "whitepages"}

func (s Source) String() string {
	if s < 0 || int(s) >= len(sourceNames) {
		return "unknown"
	}
	return sourceNames[s]
}

// MarshalText implements encoding.TextMarshaler.
func (s Source) MarshalText() ([]byte, error) {
	if s < 0 || int(s) >= len(sourceNames) {
		return nil, eris.Errorf("model: invalid source %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Source) UnmarshalText(b []byte) error {
	v, err := ParseSource(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ParseSource maps a tag such as "whitepages" to its Source.
func ParseSource(tag string) (Source, error) {
	tag = strings.ToLower(strings.TrimSpace(tag))
	for i, name := range sourceNames {
		if name == tag {
			return Source(i), nil
		}
	}
	return SourceCSV, eris.Errorf("model: unknown source %q", tag)
}

// PersonInfo is a named contact. Personal* fields are populated only by the
// identity lookup and describe the person, not the restaurant.
type PersonInfo struct {
	Name   string `json:"name"`
	Phone  string `json:"phone,omitempty"`
	Email  string `json:"email,omitempty"`
	Source Source `json:"source"`

	PersonalAddress string `json:"personal_address,omitempty"`
	PersonalCity    string `json:"personal_city,omitempty"`
	PersonalState   string `json:"personal_state,omitempty"`
	PersonalZip     string `json:"personal_zip,omitempty"`
	PersonalPhone   string `json:"personal_phone,omitempty"`
}

// Upgrade moves the source tag forward to s. Downgrades are ignored.
func (p *PersonInfo) Upgrade(s Source) {
	if s > p.Source {
		p.Source = s
	}
}
