package cli

import (
	"fmt"
	"strconv"
	"strings"
)

// The flag types below remember whether the user supplied a value on the
// command line. Config-file values only fill flags left unset, so the merge
// in applyConfigDefaults needs that distinction; flag.Value alone loses it
// once a default is registered.

type stringFlag struct {
	Value  string
	WasSet bool
}

func (s *stringFlag) String() string { return s.Value }

func (s *stringFlag) Set(v string) error {
	s.Value = v
	s.WasSet = true
	return nil
}

type intFlag struct {
	Value  int
	WasSet bool
}

func (i *intFlag) String() string { return strconv.Itoa(i.Value) }

func (i *intFlag) Set(v string) error {
	parsed, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("not a number: %q", v)
	}
	i.Value = parsed
	i.WasSet = true
	return nil
}

type boolFlag struct {
	Value  bool
	WasSet bool
}

func (b *boolFlag) String() string { return strconv.FormatBool(b.Value) }

// Set accepts the relaxed spellings people put in shell aliases (yes/y/1)
// alongside the standard true/false.
func (b *boolFlag) Set(v string) error {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "yes", "y":
		b.Value = true
	default:
		b.Value = false
	}
	b.WasSet = true
	return nil
}

func (b *boolFlag) IsBoolFlag() bool { return true }
