package inference

import (
	"context"
	"fmt"
)

// Client sends one chat-style request to a hosted model and returns its text
// completion. Implementations make a single attempt; they never retry.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Request is a single inference call. Image is optional; when set, the
// backend sends Text as a label followed by the inline base64 image.
type Request struct {
	System    string
	Text      string
	Image     []byte
	MIMEType  string
	MaxTokens int
}

// HasImage reports whether the request carries inline image data.
func (r Request) HasImage() bool {
	return len(r.Image) > 0
}

// AnalyzeImageRequest builds the analyze-image call for a photo.
func AnalyzeImageRequest(image []byte, mimeType string) Request {
	return Request{
		System:    AnalysisPrompt,
		Text:      ImageLabel,
		Image:     image,
		MIMEType:  NormaliseMIME(mimeType),
		MaxTokens: AnalysisMaxTokens,
	}
}

// ListingRequest builds the generate-listing call from a prior analysis.
func ListingRequest(analysis string) Request {
	return Request{
		System:    ListingPrompt,
		Text:      analysis,
		MaxTokens: ListingMaxTokens,
	}
}

// Error is returned by every backend when a call fails, times out, or the
// response carries no usable text.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("inference: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Wrap returns err as an *Error tagged with op, or nil if err is nil.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}

// NormaliseMIME maps image types to the set hosted vision APIs accept. The
// Telegram photo API always serves JPEG, so unknown types fall back to it.
func NormaliseMIME(mimeType string) string {
	switch mimeType {
	case "image/png", "image/gif", "image/webp":
		return mimeType
	default:
		return "image/jpeg"
	}
}
