// Package canon holds the string transforms extractors use to turn tool-specific
// identifiers into dotted canonical names. Every function is total: input that
// lacks the delimiter a transform looks for is returned unchanged.
package canon

import (
	"strings"
)

// TruncateCallSite drops everything from the first "(" onward.
func TruncateCallSite(ref string) string {
	if i := strings.IndexByte(ref, '('); i >= 0 {
		return ref[:i]
	}
	return ref
}

// StripMember drops the last dotted segment of a method or field reference,
// leaving the owning type. Non-member references are returned unchanged.
func StripMember(ref string, isMethodRef bool) string {
	if !isMethodRef {
		return ref
	}
	if i := strings.LastIndexByte(ref, '.'); i >= 0 {
		return ref[:i]
	}
	return ref
}

// StripNestedTypeSuffix keeps the part before the first "$".
func StripNestedTypeSuffix(ref string) string {
	if i := strings.IndexByte(ref, '$'); i >= 0 {
		return ref[:i]
	}
	return ref
}

// DotifyNestedSeparator replaces every "$" with ".".
func DotifyNestedSeparator(ref string) string {
	return strings.ReplaceAll(ref, "$", ".")
}

// OwningClass reduces a feature or class reference to its top-level class:
// the call site is truncated, the member dropped when isMethodRef is set, and
// any nested-type suffix removed.
func OwningClass(ref string, isMethodRef bool) string {
	ref = TruncateCallSite(ref)
	ref = StripMember(ref, isMethodRef)
	return StripNestedTypeSuffix(ref)
}

// HasAnonymousIndex reports whether s contains a dot directly followed by a
// digit, which is how compilers name anonymous and synthetic classes.
func HasAnonymousIndex(s string) bool {
	for i := 0; i+1 < len(s); i++ {
		if s[i] == '.' && s[i+1] >= '0' && s[i+1] <= '9' {
			return true
		}
	}
	return false
}

// SourceConvention describes how a relative source path maps to a dotted
// module or package name.
type SourceConvention struct {
	Name string
	// Root is stripped from the front of the path when present.
	Root string
	// Extension is stripped from the end of the path when present.
	Extension string
	// DropTypeSegment removes the final segment (the type name), leaving
	// only the enclosing package.
	DropTypeSegment bool
}

var (
	// JavaConvention maps src/main/java/a/b/C.java to the package a.b.
	JavaConvention = SourceConvention{
		Name:            "java",
		Root:            "src/main/java/",
		Extension:       ".java",
		DropTypeSegment: true,
	}

	// PythonConvention maps a/b/c.py to the module a.b.c.
	PythonConvention = SourceConvention{
		Name:      "python",
		Extension: ".py",
	}
)

// Conventions lists the known conventions in dispatch order.
func Conventions() []SourceConvention {
	return []SourceConvention{JavaConvention, PythonConvention}
}

// DeriveModulePath converts a relative file path to a dotted module path
// under the given convention.
func DeriveModulePath(relativePath string, conv SourceConvention) string {
	p := relativePath
	if conv.Root != "" {
		p = strings.TrimPrefix(p, conv.Root)
	}
	if conv.Extension != "" {
		p = strings.TrimSuffix(p, conv.Extension)
	}
	p = strings.ReplaceAll(p, "/", ".")
	p = strings.ReplaceAll(p, "\\", ".")

	if conv.DropTypeSegment {
		if i := strings.LastIndexByte(p, '.'); i >= 0 {
			p = p[:i]
		} else {
			p = ""
		}
	}
	return p
}

// ModulePathFor picks the convention whose extension the path ends with and
// derives the module path. ok is false when no convention matches.
func ModulePathFor(relativePath string) (string, bool) {
	for _, conv := range Conventions() {
		if strings.HasSuffix(relativePath, conv.Extension) {
			return DeriveModulePath(relativePath, conv), true
		}
	}
	return "", false
}

// TrimExtension removes everything from the last "." of the final path
// segment and dots the remaining separators.
func TrimExtension(relativePath string) string {
	p := relativePath
	slash := strings.LastIndexAny(p, "/\\")
	if dot := strings.LastIndexByte(p, '.'); dot > slash {
		p = p[:dot]
	}
	p = strings.ReplaceAll(p, "/", ".")
	return strings.ReplaceAll(p, "\\", ".")
}
