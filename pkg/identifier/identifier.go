package identifier

import (
	"fmt"
	"regexp"
	"strings"
)

// Kind describes where an identifier is about to be used. It is carried on
// validation errors so callers can tell which piece of DDL or query text was
// rejected.
type Kind string

const (
	KindTable    Kind = "table"
	KindColumn   Kind = "column"
	KindIndex    Kind = "index"
	KindTrigger  Kind = "trigger"
	KindFunction Kind = "function"
)

// Identifier is a name that passed validation and is safe to interpolate
// into SQL text. The zero value is not valid; always obtain one via Validate.
type Identifier struct {
	name string
}

// identifierPattern is the PostgreSQL identifier grammar with the 63-byte
// length limit folded in (first char + up to 62 more).
var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_$]{0,62}$`)

// InvalidIdentifierError reports a name that failed validation together with
// the kind of object it was meant to name.
type InvalidIdentifierError struct {
	Name string
	Kind Kind
}

func (e *InvalidIdentifierError) Error() string {
	return fmt.Sprintf("invalid %s identifier %q", e.Kind, e.Name)
}

// Validate checks name against the identifier grammar and the reserved-word
// set. On success it returns an Identifier ready for quoting; on failure it
// returns an *InvalidIdentifierError.
//
// Validation is idempotent: a name returned by Identifier.String validates
// to the same identifier again.
func Validate(name string, kind Kind) (Identifier, error) {
	if !identifierPattern.MatchString(name) {
		return Identifier{}, &InvalidIdentifierError{Name: name, Kind: kind}
	}
	if _, reserved := reservedWords[strings.ToLower(name)]; reserved {
		return Identifier{}, &InvalidIdentifierError{Name: name, Kind: kind}
	}
	return Identifier{name: name}, nil
}

// MustValidate is Validate for identifiers that are static program constants.
// It panics on failure and must never be called with user-supplied input.
func MustValidate(name string, kind Kind) Identifier {
	ident, err := Validate(name, kind)
	if err != nil {
		panic(err)
	}
	return ident
}

// String returns the validated name unquoted.
func (i Identifier) String() string {
	return i.name
}

// Quoted returns the identifier wrapped in double quotes for direct SQL
// interpolation.
func (i Identifier) Quoted() string {
	return `"` + i.name + `"`
}

// IsZero reports whether the identifier was never validated.
func (i Identifier) IsZero() bool {
	return i.name == ""
}
