package citation

import "fmt"

// State records how far a citation has been processed. States are ordered and
// a citation's state never decreases.
type State int

const (
	Unparsed State = iota
	Parsed
	LookedUp
)

var stateNames = [...]string{
	Unparsed: "unparsed",
	Parsed:   "parsed",
	LookedUp: "looked-up",
}

func (s State) String() string {
	if s < Unparsed || s > LookedUp {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// Valid reports whether s is one of the declared states.
func (s State) Valid() bool {
	return s >= Unparsed && s <= LookedUp
}

// Advance returns the later of s and to.
func (s State) Advance(to State) State {
	if to > s {
		return to
	}
	return s
}

// ParseState parses a state name as produced by String.
func ParseState(name string) (State, error) {
	for i, n := range stateNames {
		if n == name {
			return State(i), nil
		}
	}
	return Unparsed, fmt.Errorf("unknown citation state %q", name)
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid citation state %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name.
func (s *State) UnmarshalText(text []byte) error {
	st, err := ParseState(string(text))
	if err != nil {
		return err
	}
	*s = st
	return nil
}
