// Package errs is the error taxonomy shared by the rendering, extraction and
// stamping paths. Every error carries enough context (variant, identifier,
// field or page) to reproduce the failing input.
package errs

import (
	"errors"
	"fmt"
	"strings"
)

type Code string

const (
	CodeMissingField           Code = "MISSING_FIELD"
	CodeInvalidField           Code = "INVALID_FIELD"
	CodeInvalidAmount          Code = "INVALID_AMOUNT"
	CodeUnsupportedMethod      Code = "UNSUPPORTED_METHOD"
	CodeUnknownVariant         Code = "UNKNOWN_VARIANT"
	CodePageNotFound           Code = "PAGE_NOT_FOUND"
	CodeUnsupportedImageFormat Code = "UNSUPPORTED_IMAGE_FORMAT"
	CodeWordNotFound           Code = "WORD_NOT_FOUND"
	CodeAmbiguousWord          Code = "AMBIGUOUS_WORD"
	CodeParseFailed            Code = "PARSE_FAILED"
	CodePathBusy               Code = "PATH_BUSY"
)

// Sentinels for errors.Is. An *Error matches the sentinel of its Code.
var (
	ErrMissingField           = &Error{Code: CodeMissingField}
	ErrInvalidField           = &Error{Code: CodeInvalidField}
	ErrInvalidAmount          = &Error{Code: CodeInvalidAmount}
	ErrUnsupportedMethod      = &Error{Code: CodeUnsupportedMethod}
	ErrUnknownVariant         = &Error{Code: CodeUnknownVariant}
	ErrPageNotFound           = &Error{Code: CodePageNotFound}
	ErrUnsupportedImageFormat = &Error{Code: CodeUnsupportedImageFormat}
	ErrWordNotFound           = &Error{Code: CodeWordNotFound}
	ErrAmbiguousWord          = &Error{Code: CodeAmbiguousWord}
	ErrParseFailed            = &Error{Code: CodeParseFailed}
	ErrPathBusy               = &Error{Code: CodePathBusy}
)

type Error struct {
	Code       Code
	Variant    string
	Identifier string
	Field      string // MissingField, InvalidField, InvalidAmount
	Method     string // UnsupportedMethod
	Page       int    // PageNotFound, WordNotFound; 1-based, 0 = n/a
	Detail     string
	Cause      error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	if e.Field != "" {
		fmt.Fprintf(&b, "(%s)", e.Field)
	}
	if e.Method != "" {
		fmt.Fprintf(&b, "(%s)", e.Method)
	}
	if e.Variant != "" {
		fmt.Fprintf(&b, " variant=%s", e.Variant)
	}
	if e.Identifier != "" {
		fmt.Fprintf(&b, " id=%s", e.Identifier)
	}
	if e.pageScoped() || e.Page != 0 {
		fmt.Fprintf(&b, " page=%d", e.Page)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, " (caused by: %v)", e.Cause)
	}
	return b.String()
}

// pageScoped codes always name the page, even an out-of-range 0 or negative
// one. Page 0 on other codes means the whole document.
func (e *Error) pageScoped() bool {
	switch e.Code {
	case CodePageNotFound, CodeWordNotFound, CodeAmbiguousWord:
		return true
	}
	return false
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches on Code only, so errors.Is(err, errs.ErrMissingField) holds for
// any MissingField regardless of its context.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// WithContext fills in variant and identifier when they are not set yet.
// Lower layers (amount, record) don't know the document identity.
func WithContext(err error, variant string, identifier string) error {
	var e *Error
	if !errors.As(err, &e) {
		return err
	}
	c := *e
	if c.Variant == "" {
		c.Variant = variant
	}
	if c.Identifier == "" {
		c.Identifier = identifier
	}
	return &c
}

// CodeOf returns the Code of the first *Error in the chain, or "".
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

//---- Factories ----

func MissingField(field string) *Error {
	return &Error{Code: CodeMissingField, Field: field}
}

func InvalidField(field string, cause error) *Error {
	return &Error{Code: CodeInvalidField, Field: field, Cause: cause}
}

func InvalidAmount(field string, detail string) *Error {
	return &Error{Code: CodeInvalidAmount, Field: field, Detail: detail}
}

func UnsupportedMethod(method string) *Error {
	return &Error{Code: CodeUnsupportedMethod, Method: method}
}

func UnknownVariant(name string) *Error {
	return &Error{Code: CodeUnknownVariant, Variant: name}
}

func PageNotFound(page int, pageCount int) *Error {
	return &Error{Code: CodePageNotFound, Page: page, Detail: fmt.Sprintf("document has %d page(s)", pageCount)}
}

func UnsupportedImageFormat(format string) *Error {
	return &Error{Code: CodeUnsupportedImageFormat, Detail: fmt.Sprintf("got %q, want png or jpeg", format)}
}

func WordNotFound(word string, page int) *Error {
	return &Error{Code: CodeWordNotFound, Page: page, Detail: fmt.Sprintf("%q", word)}
}

func AmbiguousWord(word string, page int, matches int) *Error {
	return &Error{Code: CodeAmbiguousWord, Page: page, Detail: fmt.Sprintf("%q matched %d times", word, matches)}
}

func ParseFailed(page int, cause error) *Error {
	return &Error{Code: CodeParseFailed, Page: page, Cause: cause}
}

func PathBusy(path string) *Error {
	return &Error{Code: CodePathBusy, Detail: path}
}
