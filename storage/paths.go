package storage

import (
	"path"
	"strings"

	"github.com/zeptools/gw-docs/errs"
	"github.com/zeptools/gw-docs/variant"
)

// remote roots on the transfer host
const (
	RemoteUnsignedRoot = "/UNSIGNED/GQCINV"
	RemoteSignedRoot   = "/SIGNED/GQCINV"
)

// CheckIdentifier rejects identifiers that cannot be a single file name.
func CheckIdentifier(identifier string) error {
	switch {
	case identifier == "":
		return errs.MissingField("doc_no")
	case identifier == "." || identifier == "..",
		strings.ContainsAny(identifier, `/\`),
		strings.ContainsRune(identifier, 0):
		return &errs.Error{Code: errs.CodeInvalidField, Field: "doc_no", Identifier: identifier, Detail: "not usable as a file name"}
	}
	return nil
}

// Stem is the file name of a document without extension. Utility and overtime
// sheets usually share the doc_no of the invoice they support, so they carry
// a suffix: {identifier}_{kind} and {identifier}_overtime.
func Stem(p variant.Profile, identifier string) string {
	switch {
	case p.Utility():
		return identifier + "_" + p.UtilityKind
	case p.Base == variant.BaseFromOvertime:
		return identifier + "_overtime"
	}
	return identifier
}

// DocumentPath - {category}/{stem}.pdf
func DocumentPath(p variant.Profile, identifier string) string {
	return path.Join(string(p.Category), Stem(p, identifier)+".pdf")
}

// SignedName is the file name of the stamped copy: utility references are
// {identifier}_reference_{kind}.pdf, everything else output-{stem}.pdf.
func SignedName(p variant.Profile, identifier string) string {
	if p.Utility() {
		return identifier + "_reference_" + p.UtilityKind + ".pdf"
	}
	return "output-" + Stem(p, identifier) + ".pdf"
}

// SignedPath - {category}/{signed name}
func SignedPath(p variant.Profile, identifier string) string {
	return path.Join(string(p.Category), SignedName(p, identifier))
}

// RemoteUnsignedPath - /UNSIGNED/GQCINV/{CATEGORY}/{stem}.pdf
func RemoteUnsignedPath(p variant.Profile, identifier string) string {
	return path.Join(RemoteUnsignedRoot, strings.ToUpper(string(p.Category)), Stem(p, identifier)+".pdf")
}

// RemoteSignedPath - /SIGNED/GQCINV/{CATEGORY}/{file}
func RemoteSignedPath(category variant.Category, file string) string {
	return path.Join(RemoteSignedRoot, strings.ToUpper(string(category)), file)
}
