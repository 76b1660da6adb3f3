package catalog

import (
	"fmt"

	"photocat/internal/xmp"
)

// PropertyIndex identifies one metadata field.
type PropertyIndex uint32

const (
	PropFileName PropertyIndex = iota + 1
	PropFileType
	PropFolder
	PropSidecars
	PropRating
	PropLabel
	PropOrientation
	PropMake
	PropModel
	PropLens
	PropExposureProgram
	PropExposureTime
	PropFNumber
	PropIsoSpeedRatings
	PropExposureBias
	PropFlashCompensation
	PropWhiteBalance
	PropDateTimeOriginal
	PropFocalLength
	PropGpsLongitude
	PropGpsLatitude
	PropHeadline
	PropDescription
	PropKeywords
	PropFlag
	PropRenderEngine
)

type xmpName struct {
	ns   string
	name string
}

var propToXmp = map[PropertyIndex]xmpName{
	PropRating:            {xmp.NSXAP, "Rating"},
	PropLabel:             {xmp.NSXAP, "Label"},
	PropOrientation:       {xmp.NSTIFF, "Orientation"},
	PropMake:              {xmp.NSTIFF, "Make"},
	PropModel:             {xmp.NSTIFF, "Model"},
	PropLens:              {xmp.NSEXIFAux, "Lens"},
	PropExposureProgram:   {xmp.NSEXIF, "ExposureProgram"},
	PropExposureTime:      {xmp.NSEXIF, "ExposureTime"},
	PropFNumber:           {xmp.NSEXIF, "FNumber"},
	PropIsoSpeedRatings:   {xmp.NSEXIF, "ISOSpeedRatings"},
	PropExposureBias:      {xmp.NSEXIF, "ExposureBiasValue"},
	PropFlashCompensation: {xmp.NSEXIFAux, "FlashCompensation"},
	PropWhiteBalance:      {xmp.NSEXIF, "WhiteBalance"},
	PropDateTimeOriginal:  {xmp.NSEXIF, "DateTimeOriginal"},
	PropFocalLength:       {xmp.NSEXIF, "FocalLength"},
	PropGpsLongitude:      {xmp.NSEXIF, "GPSLongitude"},
	PropGpsLatitude:       {xmp.NSEXIF, "GPSLatitude"},
	PropHeadline:          {xmp.NSPhotoshop, "Headline"},
	PropDescription:       {xmp.NSDC, "description"},
	PropKeywords:          {xmp.NSDC, "subject"},
	PropFlag:              {xmp.NSPhotocat, "Flag"},
	PropRenderEngine:      {xmp.NSPhotocat, "RenderEngine"},
}

var propNames = map[PropertyIndex]string{
	PropFileName:          "file_name",
	PropFileType:          "file_type",
	PropFolder:            "folder",
	PropSidecars:          "sidecars",
	PropRating:            "rating",
	PropLabel:             "label",
	PropOrientation:       "orientation",
	PropMake:              "make",
	PropModel:             "model",
	PropLens:              "lens",
	PropExposureProgram:   "exposure_program",
	PropExposureTime:      "exposure_time",
	PropFNumber:           "fnumber",
	PropIsoSpeedRatings:   "iso",
	PropExposureBias:      "exposure_bias",
	PropFlashCompensation: "flash_compensation",
	PropWhiteBalance:      "white_balance",
	PropDateTimeOriginal:  "date_time_original",
	PropFocalLength:       "focal_length",
	PropGpsLongitude:      "gps_longitude",
	PropGpsLatitude:       "gps_latitude",
	PropHeadline:          "headline",
	PropDescription:       "description",
	PropKeywords:          "keywords",
	PropFlag:              "flag",
	PropRenderEngine:      "render_engine",
}

// AllProperties returns every property index in declaration order.
func AllProperties() []PropertyIndex {
	out := make([]PropertyIndex, 0, PropRenderEngine)
	for p := PropFileName; p <= PropRenderEngine; p++ {
		out = append(out, p)
	}
	return out
}

func (p PropertyIndex) String() string {
	if n, ok := propNames[p]; ok {
		return n
	}
	return fmt.Sprintf("property(%d)", uint32(p))
}

// ParsePropertyIndex maps a property name as returned by String back to its index.
func ParsePropertyIndex(name string) (PropertyIndex, error) {
	for idx, n := range propNames {
		if n == name {
			return idx, nil
		}
	}
	return 0, &ValidationError{Field: "property", Message: fmt.Sprintf("unknown property %q", name)}
}

// Column returns the files column that mirrors p, if any.
func (p PropertyIndex) Column() (string, bool) {
	switch p {
	case PropRating:
		return "rating", true
	case PropLabel:
		return "label", true
	case PropOrientation:
		return "orientation", true
	case PropFlag:
		return "flag", true
	}
	return "", false
}
