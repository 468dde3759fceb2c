package image

// RawImage is the payload exactly as the caller uploaded it. It is never
// mutated; the pipeline derives a CompressedImage from it and leaves the
// original alone.
type RawImage struct {
	Data      []byte
	MediaType string
	FileName  string
}

// CompressedImage is the normalized payload handed to the vision model and
// the artifact store. It only lives for the duration of one pipeline run.
type CompressedImage struct {
	Data      []byte
	MediaType string
	FileName  string
	Width     int
	Height    int
}
