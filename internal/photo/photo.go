// Package photo defines the photo record model and the local folder
// scanner that enriches records with EXIF-derived metadata.
package photo

// Source identifies where a photo record came from.
type Source string

const (
	SourceLocal  Source = "local"
	SourceRemote Source = "remote"
)

// Meta holds the display metadata derived for a photo. Both fields are
// optional; empty strings are omitted from JSON.
type Meta struct {
	Date     string `json:"date,omitempty"`
	Location string `json:"location,omitempty"`
}

// Record is a single photo as served to the display client. Identity is
// URL for local photos and ID for remote ones.
type Record struct {
	URL      string `json:"url"`
	Exif     Meta   `json:"exif"`
	Source   Source `json:"source"`
	Filename string `json:"filename,omitempty"`
	ID       string `json:"id,omitempty"`
}
