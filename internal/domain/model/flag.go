package model

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrInvalidFlag is returned when a value cannot be read as a flag.
var ErrInvalidFlag = errors.New("invalid flag; expected 0, 1, true or false")

// Flag is a TINYINT(1) column in request bodies. Clients send either 0/1 or
// true/false.
type Flag bool

// UnmarshalJSON implements json.Unmarshaler. null leaves the flag unset.
func (f *Flag) UnmarshalJSON(b []byte) error {
	s := string(b)
	switch s {
	case "null":
		return nil
	case "0", "1", "true", "false":
		v, _ := strconv.ParseBool(s)
		*f = Flag(v)
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalidFlag, s)
}
