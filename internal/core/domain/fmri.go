package domain

import (
	"fmt"
	"strings"
)

const (
	fmriScheme      = "pkg:"
	fmriAuthority   = "pkg://"
	fmriVersionSep  = "@"
	fmriTimestamp   = ":"
	fmriPathDivider = "/"
)

// PackageRef identifies a package version by its FMRI.
type PackageRef struct {
	publisher string
	name      string
	version   string
}

// NewPackageRef builds a PackageRef from its parts.
func NewPackageRef(publisher, name, version string) PackageRef {
	return PackageRef{publisher: publisher, name: name, version: version}
}

// ParsePackageRef parses "pkg://pub/name@version", "pkg:/name@version" or
// "name@version". The version is optional.
func ParsePackageRef(s string) (PackageRef, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return PackageRef{}, fmt.Errorf("%w: empty fmri", ErrInvalidInput)
	}

	var ref PackageRef
	rest := s
	switch {
	case strings.HasPrefix(rest, fmriAuthority):
		rest = strings.TrimPrefix(rest, fmriAuthority)
		pub, after, ok := strings.Cut(rest, fmriPathDivider)
		if !ok || pub == "" {
			return PackageRef{}, fmt.Errorf("%w: missing publisher in fmri %q", ErrInvalidInput, s)
		}
		ref.publisher = pub
		rest = after
	case strings.HasPrefix(rest, fmriScheme):
		rest = strings.TrimPrefix(rest, fmriScheme)
		rest = strings.TrimLeft(rest, fmriPathDivider)
	}

	name, version, _ := strings.Cut(rest, fmriVersionSep)
	if name == "" {
		return PackageRef{}, fmt.Errorf("%w: missing package name in fmri %q", ErrInvalidInput, s)
	}
	if strings.ContainsAny(name, " \t") {
		return PackageRef{}, fmt.Errorf("%w: whitespace in fmri %q", ErrInvalidInput, s)
	}
	ref.name = name
	ref.version = version
	return ref, nil
}

// Name returns the package stem, e.g. "system/core".
func (p PackageRef) Name() string {
	return p.name
}

// Publisher returns the publisher prefix, or "" when the FMRI carries none.
func (p PackageRef) Publisher() string {
	return p.publisher
}

// Version returns the full version string including any timestamp.
func (p PackageRef) Version() string {
	return p.version
}

// WithPublisher returns a copy of p with the publisher set if p has none.
func (p PackageRef) WithPublisher(pub string) PackageRef {
	if p.publisher == "" {
		p.publisher = pub
	}
	return p
}

// IsZero reports whether p is the zero PackageRef.
func (p PackageRef) IsZero() bool {
	return p.name == ""
}

// String returns the full FMRI.
func (p PackageRef) String() string {
	if p.name == "" {
		return ""
	}
	var b strings.Builder
	if p.publisher != "" {
		b.WriteString(fmriAuthority)
		b.WriteString(p.publisher)
		b.WriteString(fmriPathDivider)
	} else {
		b.WriteString(fmriScheme)
		b.WriteString(fmriPathDivider)
	}
	b.WriteString(p.name)
	if p.version != "" {
		b.WriteString(fmriVersionSep)
		b.WriteString(p.version)
	}
	return b.String()
}

// Short returns the FMRI without publisher or version timestamp.
func (p PackageRef) Short() string {
	if p.name == "" {
		return ""
	}
	s := fmriScheme + fmriPathDivider + p.name
	if p.version == "" {
		return s
	}
	version, _, _ := strings.Cut(p.version, fmriTimestamp)
	return s + fmriVersionSep + version
}
