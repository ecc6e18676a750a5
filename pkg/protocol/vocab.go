package protocol

import (
	"fmt"

	perrors "github.com/turtacn/Protoscribe/pkg/errors"
)

// Who is the principal class an action rule grants permissions to.
type Who string

const (
	WhoAnyone    Who = "anyone"
	WhoAuthor    Who = "author"
	WhoRecipient Who = "recipient"
)

// Roles returns the principal classes in display order.
func Roles() []Who {
	return []Who{WhoAnyone, WhoAuthor, WhoRecipient}
}

// Valid reports whether w is one of the three principal classes.
func (w Who) Valid() bool {
	switch w {
	case WhoAnyone, WhoAuthor, WhoRecipient:
		return true
	}
	return false
}

// Relative reports whether the role is scoped by an "of" type path.
func (w Who) Relative() bool {
	return w == WhoAuthor || w == WhoRecipient
}

// ParseWho converts s into a Who, rejecting unknown roles.
func ParseWho(s string) (Who, error) {
	w := Who(s)
	if !w.Valid() {
		return "", perrors.New(perrors.ErrCodeInvalidRole, "ParseWho", fmt.Sprintf("unknown role %q", s), nil)
	}
	return w, nil
}

// UnmarshalText lets draft decoders reject unknown roles.
func (w *Who) UnmarshalText(text []byte) error {
	parsed, err := ParseWho(string(text))
	if err != nil {
		return err
	}
	*w = parsed
	return nil
}

// Verb is one operation an action rule may allow.
type Verb string

const (
	VerbCoDelete  Verb = "co-delete"
	VerbCoPrune   Verb = "co-prune"
	VerbCoUpdate  Verb = "co-update"
	VerbCreate    Verb = "create"
	VerbDelete    Verb = "delete"
	VerbPrune     Verb = "prune"
	VerbQuery     Verb = "query"
	VerbRead      Verb = "read"
	VerbSubscribe Verb = "subscribe"
	VerbUpdate    Verb = "update"
)

var verbs = []Verb{
	VerbCoDelete, VerbCoPrune, VerbCoUpdate, VerbCreate, VerbDelete,
	VerbPrune, VerbQuery, VerbRead, VerbSubscribe, VerbUpdate,
}

// Verbs returns the closed verb vocabulary in display order.
func Verbs() []Verb {
	return append([]Verb(nil), verbs...)
}

// Valid reports whether v belongs to the vocabulary.
func (v Verb) Valid() bool {
	for _, known := range verbs {
		if v == known {
			return true
		}
	}
	return false
}

// ParseVerb converts s into a Verb, rejecting anything outside the vocabulary.
func ParseVerb(s string) (Verb, error) {
	v := Verb(s)
	if !v.Valid() {
		return "", perrors.New(perrors.ErrCodeInvalidVerb, "ParseVerb", fmt.Sprintf("unknown verb %q", s), nil)
	}
	return v, nil
}

// UnmarshalText lets draft decoders reject unknown verbs.
func (v *Verb) UnmarshalText(text []byte) error {
	parsed, err := ParseVerb(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// Personal.AI order the ending
