package photo

import (
	"os"

	"github.com/rwcarlsen/goexif/exif"
)

// DateFormat is the layout used for capture dates shown to the client,
// e.g. "May 4, 2021".
const DateFormat = "January 2, 2006"

// ExifMeta is the raw result of EXIF extraction: a formatted capture
// date and, when GPS tags are present and well formed, decimal degree
// coordinates. Lat and Lng are either both set or both nil.
type ExifMeta struct {
	Date string
	Lat  *float64
	Lng  *float64
}

// ExtractMeta reads EXIF metadata from the image at path. It never
// fails: a missing file, an unsupported format, corrupt metadata or
// malformed GPS tags all yield a zero ExifMeta.
func ExtractMeta(path string) ExifMeta {
	var meta ExifMeta

	f, err := os.Open(path)
	if err != nil {
		return meta
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil || x == nil {
		return meta
	}

	if t, err := x.DateTime(); err == nil {
		meta.Date = t.Format(DateFormat)
	}

	// LatLong converts the degree/minute/second rationals to signed
	// decimal degrees, flipping the sign for S and W references.
	// Malformed components surface as an error, not a coordinate.
	if lat, lng, err := x.LatLong(); err == nil {
		meta.Lat = &lat
		meta.Lng = &lng
	}

	return meta
}
