package models

import (
	"errors"
	"fmt"
	"strings"
)

// Failure kinds. Match them with errors.Is.
var (
	ErrFileNotFound   = errors.New("FileNotFound")
	ErrParse          = errors.New("ParseError")
	ErrTypeConversion = errors.New("TypeConversionError")
	ErrIO             = errors.New("IOError")
)

// Error describes a fatal pipeline failure with its location.
type Error struct {
	Kind   error
	Op     string
	Path   string
	Row    int
	Column string
	Value  string
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	if e.Kind != nil {
		b.WriteString(e.Kind.Error())
	} else {
		b.WriteString("error")
	}
	if e.Path != "" {
		fmt.Fprintf(&b, " path=%q", e.Path)
	}
	if e.Row > 0 {
		fmt.Fprintf(&b, " row=%d", e.Row)
	}
	if e.Column != "" {
		fmt.Fprintf(&b, " column=%q", e.Column)
	}
	if e.Value != "" {
		fmt.Fprintf(&b, " value=%q", e.Value)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes both the kind and the cause.
func (e *Error) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}
