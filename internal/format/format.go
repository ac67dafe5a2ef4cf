// Package format infers the file format of an upload from its declared name.
package format

import (
	"errors"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned when an uploaded file is not supported.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Kind is the closed set of file formats the pipeline can parse.
type Kind string

const (
	KindCSV           Kind = "csv"
	KindDelimitedText Kind = "text"
	KindJSON          Kind = "json"
	KindSpreadsheet   Kind = "spreadsheet"
	KindUnknown       Kind = "unknown"
)

var extensions = map[string]Kind{
	".csv":  KindCSV,
	".txt":  KindDelimitedText,
	".json": KindJSON,
	".xlsx": KindSpreadsheet,
	".xls":  KindSpreadsheet,
}

// Detect maps a filename's extension to a format Kind. The comparison is
// case-insensitive; unrecognized extensions yield KindUnknown.
func Detect(filename string) Kind {
	ext := strings.ToLower(filepath.Ext(filename))
	if kind, ok := extensions[ext]; ok {
		return kind
	}
	return KindUnknown
}
