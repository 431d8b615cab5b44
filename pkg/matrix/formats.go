package matrix

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
)

// FileFormat represents the matrix file formats the loader understands
type FileFormat int

const (
	FormatUnknown FileFormat = iota
	// FormatText is the NCBI text layout.
	FormatText
	// FormatTOML is a TOML document.
	FormatTOML
)

// FormatInfo contains metadata about a matrix file format
type FormatInfo struct {
	Format      FileFormat
	Description string
	Extensions  []string
	MinSize     int64 // Minimum expected file size in bytes
}

var supportedFormats = map[FileFormat]FormatInfo{
	FormatText: {
		Format:      FormatText,
		Description: "NCBI Text Matrix",
		Extensions:  []string{".txt", ".mat", ""},
		MinSize:     4, // header symbol plus one row
	},
	FormatTOML: {
		Format:      FormatTOML,
		Description: "TOML Matrix",
		Extensions:  []string{".toml"},
		MinSize:     12,
	},
}

// DetectFileFormat picks a format from the file extension
func DetectFileFormat(filename string) FileFormat {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, format := range []FileFormat{FormatTOML, FormatText} {
		for _, e := range supportedFormats[format].Extensions {
			if ext == e {
				return format
			}
		}
	}
	return FormatUnknown
}

// GetFormatInfo returns information about a specific format
func GetFormatInfo(format FileFormat) (FormatInfo, bool) {
	info, exists := supportedFormats[format]
	return info, exists
}

// ListSupportedFormats returns all supported formats ordered by format
func ListSupportedFormats() []FormatInfo {
	formats := make([]FormatInfo, 0, len(supportedFormats))
	for _, info := range supportedFormats {
		formats = append(formats, info)
	}
	sort.Slice(formats, func(i, j int) bool {
		return formats[i].Format < formats[j].Format
	})
	return formats
}

// LoadFile reads and parses a matrix file. The matrix is named after the file
// without its extension unless the document carries a name.
func LoadFile(filename string) (*Matrix, error) {
	format := DetectFileFormat(filename)
	info, ok := GetFormatInfo(format)
	if !ok {
		return nil, fmt.Errorf("unable to detect matrix format for file %s", filename)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read matrix file %s: %w", filename, err)
	}
	if int64(len(data)) < info.MinSize {
		return nil, fmt.Errorf("%w: file %s is too small (%d bytes) for format %s (minimum: %d bytes)",
			ErrMalformed, filename, len(data), info.Description, info.MinSize)
	}

	name := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	var m *Matrix
	switch format {
	case FormatTOML:
		m, err = ParseTOML(name, data)
	default:
		m, err = ParseText(name, bytes.NewReader(data))
	}
	if err != nil {
		return nil, err
	}
	log.Debugf("Matrix file %s loaded as %s: %d symbols", filename, info.Description, len(m.alphabet))
	return m, nil
}
