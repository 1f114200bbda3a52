package scene

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownFileType is returned when a file category is not one of KnownFileTypes.
var ErrUnknownFileType = errors.New("unknown file type")

// ParmKind is the template kind of a parameter.
type ParmKind string

const (
	KindString ParmKind = "string"
	KindFloat  ParmKind = "float"
	KindInt    ParmKind = "int"
	KindToggle ParmKind = "toggle"
	KindMenu   ParmKind = "menu"
)

// StringType refines string parameters.
type StringType string

const (
	StringRegular       StringType = "regular"
	StringFileReference StringType = "file_reference"
	StringNodeReference StringType = "node_reference"
)

// FileType is the category of file a file-reference parameter points at.
type FileType string

const (
	FileAny       FileType = "any"
	FileImage     FileType = "image"
	FileGeometry  FileType = "geometry"
	FileRamp      FileType = "ramp"
	FileCapture   FileType = "capture"
	FileClip      FileType = "clip"
	FileLut       FileType = "lut"
	FileCmd       FileType = "cmd"
	FileMidi      FileType = "midi"
	FileI3d       FileType = "i3d"
	FileChan      FileType = "chan"
	FileSim       FileType = "sim"
	FileSimData   FileType = "simdata"
	FileHip       FileType = "hip"
	FileOtl       FileType = "otl"
	FileDae       FileType = "dae"
	FileGallery   FileType = "gallery"
	FileDirectory FileType = "directory"
	FileIcon      FileType = "icon"
	FileDs        FileType = "ds"
	FileAlembic   FileType = "alembic"
	FilePsd       FileType = "psd"
	FileLightRig  FileType = "lightrig"
	FileFbx       FileType = "fbx"
	FileUsd       FileType = "usd"
	FileSqlite    FileType = "sqlite"
)

// KnownFileTypes lists every file category the host declares.
var KnownFileTypes = []FileType{
	FileAny, FileImage, FileGeometry, FileRamp, FileCapture, FileClip, FileLut,
	FileCmd, FileMidi, FileI3d, FileChan, FileSim, FileSimData, FileHip, FileOtl,
	FileDae, FileGallery, FileDirectory, FileIcon, FileDs, FileAlembic, FilePsd,
	FileLightRig, FileFbx, FileUsd, FileSqlite,
}

// ParseFileType normalises s (case-insensitive) to a known FileType.
func ParseFileType(s string) (FileType, error) {
	ft := FileType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range KnownFileTypes {
		if ft == known {
			return ft, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFileType, s)
}

// Template describes a parameter's declared type.
type Template struct {
	Kind       ParmKind
	StringType StringType
	FileType   FileType
}

// IsFileReference reports whether the template declares a file reference.
func (t Template) IsFileReference() bool {
	return t.Kind == KindString && t.StringType == StringFileReference
}
