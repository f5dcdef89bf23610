package models

import (
	"time"
)

// Media types accepted for diagram artifacts
const (
	MediaTypeSVG  = "image/svg+xml"
	MediaTypePNG  = "image/png"
	MediaTypeJPEG = "image/jpeg"
)

// Diagram is the illustration half of an example: SVG markup for generated
// examples, or a raster image for uploads.
type Diagram struct {
	MediaType string
	Data      []byte
}

// IsSVG reports whether the diagram holds vector markup
func (d Diagram) IsSVG() bool {
	return d.MediaType == MediaTypeSVG
}

// Extension returns the artifact file extension for the media type
func (d Diagram) Extension() string {
	return ExtensionForMediaType(d.MediaType)
}

// ExtensionForMediaType maps a diagram media type to its file extension.
// Returns "" for unsupported types.
func ExtensionForMediaType(mediaType string) string {
	switch mediaType {
	case MediaTypeSVG:
		return ".svg"
	case MediaTypePNG:
		return ".png"
	case MediaTypeJPEG:
		return ".jpg"
	default:
		return ""
	}
}

// MediaTypeForExtension is the inverse of ExtensionForMediaType
func MediaTypeForExtension(ext string) string {
	switch ext {
	case ".svg":
		return MediaTypeSVG
	case ".png":
		return MediaTypePNG
	case ".jpg", ".jpeg":
		return MediaTypeJPEG
	default:
		return ""
	}
}

// Example is one persisted (diagram, question) training pair.
// Examples are immutable once saved.
type Example struct {
	ID        string    `json:"id"`
	Question  string    `json:"question"`
	Diagram   Diagram   `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// TrashedExample is an example moved out of the active set by a soft delete.
// OriginalID is stored verbatim alongside the artifacts.
type TrashedExample struct {
	TrashID    string    `json:"trash_id"`
	OriginalID string    `json:"original_id"`
	DeletedAt  time.Time `json:"deleted_at"`
	Example    Example   `json:"-"`
}
