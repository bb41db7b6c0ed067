// Package importer is the entry point of the import pipeline: it detects
// the input format, runs the matching parser or decoder, and assembles the
// resulting document into a scene graph.
package importer

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Faultbox/sceneport/pkg/ase"
	"github.com/Faultbox/sceneport/pkg/assemble"
	"github.com/Faultbox/sceneport/pkg/asset"
	"github.com/Faultbox/sceneport/pkg/diag"
	"github.com/Faultbox/sceneport/pkg/gltf"
	"github.com/Faultbox/sceneport/pkg/scene"
)

// Format identifies a supported input format.
type Format int

const (
	FormatUnknown Format = iota
	FormatASE
	FormatASK
	FormatGLTF
	FormatGLB
)

func (f Format) String() string {
	switch f {
	case FormatASE:
		return "ase"
	case FormatASK:
		return "ask"
	case FormatGLTF:
		return "gltf"
	case FormatGLB:
		return "glb"
	default:
		return "unknown"
	}
}

var (
	// ErrUnknownFormat is returned when neither the file extension nor
	// the content identifies a supported format.
	ErrUnknownFormat = errors.New("unknown scene format")

	// ErrFileTooLarge is returned when the input exceeds Options.MaxFileSize.
	ErrFileTooLarge = errors.New("file exceeds the size limit")
)

// Options tunes one import call. The zero value imports without limits and
// discards diagnostics.
type Options struct {
	// MaxFileSize bounds the input size in bytes; 0 disables the check.
	MaxFileSize int64

	// Sink receives recoverable diagnostics.
	Sink diag.Sink
}

// DetectFormat maps a file extension onto a format.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ase":
		return FormatASE
	case ".ask":
		return FormatASK
	case ".gltf":
		return FormatGLTF
	case ".glb":
		return FormatGLB
	default:
		return FormatUnknown
	}
}

var glbMagic = []byte("glTF")

// sniffFormat guesses the format from the first significant bytes: the GLB
// magic, a JSON document opener, or the section keyword marker.
func sniffFormat(data []byte) Format {
	if bytes.HasPrefix(data, glbMagic) {
		return FormatGLB
	}
	for _, b := range data {
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		case '{':
			return FormatGLTF
		case '*':
			return FormatASE
		default:
			return FormatUnknown
		}
	}
	return FormatUnknown
}

// Import reads and imports one file. The format follows from the extension,
// falling back to content sniffing.
func Import(path string, opts Options) (*scene.Scene, error) {
	if opts.MaxFileSize > 0 {
		if fi, err := os.Stat(path); err == nil && fi.Size() > opts.MaxFileSize {
			return nil, fmt.Errorf("%s: %w", path, ErrFileTooLarge)
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	s, err := ImportBytes(data, DetectFormat(path), opts)
	if err != nil {
		return nil, fmt.Errorf("importing %s: %w", path, err)
	}
	return s, nil
}

// ImportBytes imports one in-memory asset. Every call builds fresh state;
// nothing is shared between imports. A fatal parse error returns a nil
// scene and a *diag.FatalError carrying the first fatal message and line.
func ImportBytes(data []byte, format Format, opts Options) (*scene.Scene, error) {
	if opts.MaxFileSize > 0 && int64(len(data)) > opts.MaxFileSize {
		return nil, ErrFileTooLarge
	}
	if format == FormatUnknown {
		format = sniffFormat(data)
	}

	var doc *asset.Document
	switch format {
	case FormatASE, FormatASK:
		version := uint32(ase.FormatCurrent)
		if format == FormatASK {
			version = ase.FormatOld
		}
		p := ase.NewParser(data, version, opts.Sink)
		if err := p.Parse(); err != nil {
			return nil, err
		}
		doc = p.Build()
	case FormatGLTF, FormatGLB:
		var err error
		doc, err = gltf.Decode(data, opts.Sink)
		if err != nil {
			return nil, err
		}
	default:
		return nil, ErrUnknownFormat
	}
	return assemble.Build(doc, opts.Sink), nil
}
