package media

import (
	"bytes"
	"fmt"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
)

// ExtractEXIF decodes EXIF metadata, dropping MakerNote (proprietary,
// often oversized binary blobs) and reducing GPS coordinates to decimal
// degrees.
func ExtractEXIF(data []byte) map[string]string {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return nil
	}

	out := make(map[string]string)
	x.Walk(exifWalker(out))

	delete(out, string(exif.MakerNote))

	if lat, lon, err := x.LatLong(); err == nil {
		out["GPSLatitude"] = fmt.Sprintf("%.6f", lat)
		out["GPSLongitude"] = fmt.Sprintf("%.6f", lon)
	}

	return out
}

type exifWalker map[string]string

func (w exifWalker) Walk(name exif.FieldName, tag *tiff.Tag) error {
	if name == exif.MakerNote || name == exif.GPSLatitude || name == exif.GPSLongitude {
		return nil
	}
	w[string(name)] = tag.String()
	return nil
}
