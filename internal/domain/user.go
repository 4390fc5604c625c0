// Package domain contains entity without logic, just meta-data
package domain

import "errors"

const MaxUsernameLen = 36

var (
	ErrUsernameEmpty   = errors.New("username empty")
	ErrUsernameTooLong = errors.New("username too long")
	ErrBadGender       = errors.New("unknown gender")
	ErrBadPreference   = errors.New("unknown gender preference")
)

// Gender is the self-declared gender a user matches under.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// Genders lists the queue partitions in their fixed scan order.
var Genders = [3]Gender{GenderMale, GenderFemale, GenderOther}

func ParseGender(s string) (Gender, error) {
	switch Gender(s) {
	case GenderMale, GenderFemale, GenderOther:
		return Gender(s), nil
	}
	return "", ErrBadGender
}

// Preference is who a queued user is willing to be matched with.
type Preference string

const (
	PreferMale   Preference = "male"
	PreferFemale Preference = "female"
	PreferAny    Preference = "any"
)

func ParsePreference(s string) (Preference, error) {
	switch Preference(s) {
	case PreferMale, PreferFemale, PreferAny:
		return Preference(s), nil
	}
	return "", ErrBadPreference
}

// Accepts reports whether a user holding this preference accepts a
// candidate of the given gender.
func (p Preference) Accepts(g Gender) bool {
	return p == PreferAny || string(p) == string(g)
}

type User struct {
	ID       string `json:"id" bson:"_id"`
	Username string `json:"username" bson:"username"`
	Gender   Gender `json:"gender" bson:"gender"`
}

// NewUser is a tiny helper to avoid ad-hoc struct literals in adapters.
func NewUser(id, username string, gender Gender) (*User, error) {
	if len(username) == 0 {
		return nil, ErrUsernameEmpty
	}
	if len(username) > MaxUsernameLen {
		return nil, ErrUsernameTooLong
	}
	return &User{ID: id, Username: username, Gender: gender}, nil
}
