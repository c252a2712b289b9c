package device

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	exif "github.com/dsoprea/go-exif/v3"
	exifcommon "github.com/dsoprea/go-exif/v3/common"
	exifundefined "github.com/dsoprea/go-exif/v3/undefined"
	jpegstructure "github.com/dsoprea/go-jpeg-image-structure/v2"
)

// ExifTags is the metadata record the persistence workflow embeds into every
// saved image.
type ExifTags struct {
	Latitude         float64
	Longitude        float64
	Altitude         float64
	PositioningError float64

	UserComment      string
	MakerNote        string
	HostComputer     string
	Software         string
	Artist           string
	ImageDescription string
	ImageUniqueID    string
	DateTimeOriginal time.Time
}

// DemoTags returns the fixed placeholder tag set. The GPS coordinates and
// free-text fields are demo values, not derived from device sensors.
func DemoTags(now time.Time) ExifTags {
	return ExifTags{
		Latitude:         48.137154,
		Longitude:        11.576124,
		Altitude:         520,
		PositioningError: 5,

		UserComment:      "CUSTOM: hard-coded dummy user comment",
		MakerNote:        "CUSTOM: hard-coded maker note payload",
		HostComputer:     "CUSTOM: SpeciesID",
		Software:         "SpeciesID (dummy-exif)",
		Artist:           "Demo",
		ImageDescription: "Dummy image with injected EXIF",
		ImageUniqueID:    "dummy-unique-id-0001",
		DateTimeOriginal: now,
	}
}

// ExifWriter embeds ExifTags into JPEG files. Non-JPEG inputs are copied
// through without tags, since the payload pipeline re-encodes to JPEG anyway.
type ExifWriter struct {
	// TempDir receives the tagged copies. Defaults to the OS temp dir.
	TempDir string
	files   FileStore
}

func NewExifWriter(tempDir string, files FileStore) *ExifWriter {
	return &ExifWriter{TempDir: tempDir, files: files}
}

func (w *ExifWriter) Write(uri string, tags ExifTags) (string, error) {
	src := URIToPath(uri)
	dir := w.TempDir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := w.files.EnsureDir(dir); err != nil {
		return "", fmt.Errorf("failed to create temp dir: %w", err)
	}
	dst := filepath.Join(dir, fmt.Sprintf("exif-%d-%s", time.Now().UnixNano(), filepath.Base(src)))

	jmp := jpegstructure.NewJpegMediaParser()
	intfc, err := jmp.ParseFile(src)
	if err != nil {
		// Not a JPEG we can segment. Pass the image through untouched.
		if err := w.files.Copy(src, dst); err != nil {
			return "", fmt.Errorf("failed to copy non-jpeg image: %w", err)
		}
		return NormalizeURI(dst), nil
	}

	sl := intfc.(*jpegstructure.SegmentList)

	rootIb, err := sl.ConstructExifBuilder()
	if err != nil {
		// Source has no EXIF segment yet (typical for freshly encoded
		// JPEGs). Start from an empty builder.
		im := exifcommon.NewIfdMapping()
		if err := exifcommon.LoadStandardIfds(im); err != nil {
			return "", fmt.Errorf("failed to load standard ifds: %w", err)
		}
		ti := exif.NewTagIndex()
		rootIb = exif.NewIfdBuilder(im, ti, exifcommon.IfdStandardIfdIdentity, exifcommon.EncodeDefaultByteOrder)
	}

	if err := setIfd0Tags(rootIb, tags); err != nil {
		return "", err
	}
	if err := setExifIfdTags(rootIb, tags); err != nil {
		return "", err
	}
	if err := setGpsTags(rootIb, tags); err != nil {
		return "", err
	}

	if err := sl.SetExif(rootIb); err != nil {
		return "", fmt.Errorf("failed to set exif segment: %w", err)
	}

	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("failed to create tagged copy: %w", err)
	}
	defer out.Close()

	if err := sl.Write(out); err != nil {
		return "", fmt.Errorf("failed to write tagged jpeg: %w", err)
	}

	return NormalizeURI(dst), nil
}

func setIfd0Tags(rootIb *exif.IfdBuilder, tags ExifTags) error {
	ifdIb, err := exif.GetOrCreateIbFromRootIb(rootIb, "IFD0")
	if err != nil {
		return fmt.Errorf("failed to get IFD0 builder: %w", err)
	}

	for name, value := range map[string]string{
		"Software":         tags.Software,
		"Artist":           tags.Artist,
		"ImageDescription": tags.ImageDescription,
		"HostComputer":     tags.HostComputer,
	} {
		if value == "" {
			continue
		}
		if err := ifdIb.SetStandardWithName(name, value); err != nil {
			return fmt.Errorf("failed to set %s: %w", name, err)
		}
	}
	return nil
}

func setExifIfdTags(rootIb *exif.IfdBuilder, tags ExifTags) error {
	exifIb, err := exif.GetOrCreateIbFromRootIb(rootIb, "IFD/Exif")
	if err != nil {
		return fmt.Errorf("failed to get Exif IFD builder: %w", err)
	}

	if tags.ImageUniqueID != "" {
		if err := exifIb.SetStandardWithName("ImageUniqueID", tags.ImageUniqueID); err != nil {
			return fmt.Errorf("failed to set ImageUniqueID: %w", err)
		}
	}
	if !tags.DateTimeOriginal.IsZero() {
		stamp := tags.DateTimeOriginal.Format("2006:01:02 15:04:05")
		if err := exifIb.SetStandardWithName("DateTimeOriginal", stamp); err != nil {
			return fmt.Errorf("failed to set DateTimeOriginal: %w", err)
		}
	}
	if tags.UserComment != "" {
		comment := exifundefined.Tag9286UserComment{
			EncodingType:  exifundefined.TagUndefinedType_9286_UserComment_Encoding_ASCII,
			EncodingBytes: []byte(tags.UserComment),
		}
		if err := exifIb.SetStandardWithName("UserComment", comment); err != nil {
			return fmt.Errorf("failed to set UserComment: %w", err)
		}
	}
	if tags.MakerNote != "" {
		note := exifundefined.Tag927CMakerNote{
			MakerNoteType:  []byte(tags.MakerNote),
			MakerNoteBytes: []byte(tags.MakerNote),
		}
		if err := exifIb.SetStandardWithName("MakerNote", note); err != nil {
			return fmt.Errorf("failed to set MakerNote: %w", err)
		}
	}
	return nil
}

func setGpsTags(rootIb *exif.IfdBuilder, tags ExifTags) error {
	gpsIb, err := exif.GetOrCreateIbFromRootIb(rootIb, "IFD/GPSInfo")
	if err != nil {
		return fmt.Errorf("failed to get GPS IFD builder: %w", err)
	}

	latRef, lonRef := "N", "E"
	if tags.Latitude < 0 {
		latRef = "S"
	}
	if tags.Longitude < 0 {
		lonRef = "W"
	}

	set := func(name string, value interface{}) error {
		if err := gpsIb.SetStandardWithName(name, value); err != nil {
			return fmt.Errorf("failed to set %s: %w", name, err)
		}
		return nil
	}

	if err := set("GPSLatitudeRef", latRef); err != nil {
		return err
	}
	if err := set("GPSLatitude", degreesToRationals(tags.Latitude)); err != nil {
		return err
	}
	if err := set("GPSLongitudeRef", lonRef); err != nil {
		return err
	}
	if err := set("GPSLongitude", degreesToRationals(tags.Longitude)); err != nil {
		return err
	}
	if err := set("GPSAltitudeRef", []byte{0}); err != nil {
		return err
	}
	if err := set("GPSAltitude", []exifcommon.Rational{{Numerator: uint32(math.Round(tags.Altitude * 100)), Denominator: 100}}); err != nil {
		return err
	}
	if tags.PositioningError > 0 {
		// go-exif registers tag 0x001f under this misspelled name.
		if err := set("GPSHPositioningErrorr", []exifcommon.Rational{{Numerator: uint32(math.Round(tags.PositioningError * 100)), Denominator: 100}}); err != nil {
			return err
		}
	}
	return nil
}

// degreesToRationals converts decimal degrees to the EXIF D/M/S triplet.
// Seconds carry two decimal places.
func degreesToRationals(deg float64) []exifcommon.Rational {
	deg = math.Abs(deg)
	d := math.Floor(deg)
	minutes := (deg - d) * 60
	m := math.Floor(minutes)
	s := (minutes - m) * 60

	return []exifcommon.Rational{
		{Numerator: uint32(d), Denominator: 1},
		{Numerator: uint32(m), Denominator: 1},
		{Numerator: uint32(math.Round(s * 100)), Denominator: 100},
	}
}
