package xmp

// Well-known XMP namespace URIs.
const (
	NSMeta      = "adobe:ns:meta/"
	NSRDF       = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	NSXML       = "http://www.w3.org/XML/1998/namespace"
	NSXAP       = "http://ns.adobe.com/xap/1.0/"
	NSDC        = "http://purl.org/dc/elements/1.1/"
	NSTIFF      = "http://ns.adobe.com/tiff/1.0/"
	NSEXIF      = "http://ns.adobe.com/exif/1.0/"
	NSEXIFAux   = "http://ns.adobe.com/exif/1.0/aux/"
	NSPhotoshop = "http://ns.adobe.com/photoshop/1.0/"
	NSPhotocat  = "http://ns.photocat.dev/xmp/1.0/"
)

var defaultPrefixes = map[string]string{
	NSMeta:      "x",
	NSRDF:       "rdf",
	NSXML:       "xml",
	NSXAP:       "xmp",
	NSDC:        "dc",
	NSTIFF:      "tiff",
	NSEXIF:      "exif",
	NSEXIFAux:   "aux",
	NSPhotoshop: "photoshop",
	NSPhotocat:  "pcat",
}

// PrefixFor returns the conventional prefix for a namespace URI, or "" if
// the namespace is not one of the well-known ones.
func PrefixFor(ns string) string {
	return defaultPrefixes[ns]
}
