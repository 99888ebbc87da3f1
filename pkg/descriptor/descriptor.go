// Package descriptor extracts the project descriptor (pom.xml) embedded in
// a packaged build artifact.
package descriptor

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	descriptorName   = "pom.xml"
	defaultPackaging = "jar"
)

var (
	ErrNotABuildArtifact = errors.New("archive contains no pom.xml")
	ErrDescriptorParse   = errors.New("descriptor parse failed")
)

// ParseError reports a descriptor that could not be decoded.
type ParseError struct {
	Archive string
	Entry   string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Archive == "" {
		return fmt.Sprintf("parse %s: %v", e.Entry, e.Err)
	}
	return fmt.Sprintf("parse %s in %s: %v", e.Entry, e.Archive, e.Err)
}

func (e *ParseError) Unwrap() []error { return []error{ErrDescriptorParse, e.Err} }

// Parent is the <parent> block of a descriptor.
type Parent struct {
	GroupID    string `xml:"groupId" json:"group_id" yaml:"group_id"`
	ArtifactID string `xml:"artifactId" json:"artifact_id" yaml:"artifact_id"`
	Version    string `xml:"version" json:"version" yaml:"version"`
}

// Descriptor is the subset of a project model needed to identify an artifact.
type Descriptor struct {
	ID          string  `xml:"-" json:"id" yaml:"id"`
	GroupID     string  `xml:"groupId" json:"group_id" yaml:"group_id"`
	ArtifactID  string  `xml:"artifactId" json:"artifact_id" yaml:"artifact_id"`
	Version     string  `xml:"version" json:"version" yaml:"version"`
	Packaging   string  `xml:"packaging" json:"packaging" yaml:"packaging"`
	Name        string  `xml:"name" json:"name,omitempty" yaml:"name,omitempty"`
	Description string  `xml:"description" json:"description,omitempty" yaml:"description,omitempty"`
	URL         string  `xml:"url" json:"url,omitempty" yaml:"url,omitempty"`
	Parent      *Parent `xml:"parent" json:"parent,omitempty" yaml:"parent,omitempty"`
	Entry       string  `xml:"-" json:"entry,omitempty" yaml:"entry,omitempty"`
}

// Coordinates renders group:artifact:packaging:version.
func (d *Descriptor) Coordinates() string {
	return strings.Join([]string{d.GroupID, d.ArtifactID, d.Packaging, d.Version}, ":")
}

// Read opens a zip-format archive and parses the first pom.xml entry found
// in archive order.
func Read(path string) (*Descriptor, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", path, err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if !isDescriptor(f.Name) {
			continue
		}
		d, err := readEntry(f)
		if err != nil {
			var pe *ParseError
			if errors.As(err, &pe) {
				pe.Archive = path
				return nil, pe
			}
			return nil, fmt.Errorf("read %s in %s: %w", f.Name, path, err)
		}
		return d, nil
	}
	return nil, fmt.Errorf("%s: %w", path, ErrNotABuildArtifact)
}

func isDescriptor(name string) bool {
	if strings.HasSuffix(name, "/") {
		return false
	}
	return name == descriptorName || strings.HasSuffix(name, "/"+descriptorName)
}

func readEntry(f *zip.File) (*Descriptor, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	d, err := Parse(rc)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			pe.Entry = f.Name
		}
		return nil, err
	}
	d.Entry = f.Name
	return d, nil
}

// Parse decodes a descriptor and fills inherited and defaulted fields.
func Parse(r io.Reader) (*Descriptor, error) {
	var d Descriptor
	if err := xml.NewDecoder(r).Decode(&d); err != nil {
		return nil, &ParseError{Entry: descriptorName, Err: err}
	}
	trim(&d)

	if d.Parent != nil {
		if d.GroupID == "" {
			d.GroupID = d.Parent.GroupID
		}
		if d.Version == "" {
			d.Version = d.Parent.Version
		}
	}
	if d.Packaging == "" {
		d.Packaging = defaultPackaging
	}
	if d.ArtifactID == "" {
		return nil, &ParseError{Entry: descriptorName, Err: errors.New("artifactId is missing")}
	}
	d.ID = d.Coordinates()
	return &d, nil
}

func trim(d *Descriptor) {
	for _, s := range []*string{&d.GroupID, &d.ArtifactID, &d.Version, &d.Packaging, &d.Name, &d.Description, &d.URL} {
		*s = strings.TrimSpace(*s)
	}
	if d.Parent != nil {
		d.Parent.GroupID = strings.TrimSpace(d.Parent.GroupID)
		d.Parent.ArtifactID = strings.TrimSpace(d.Parent.ArtifactID)
		d.Parent.Version = strings.TrimSpace(d.Parent.Version)
	}
}
