package domain

import "fmt"

// PayloadKind classifies why a payload failed format validation.
type PayloadKind string

const (
	// PayloadHTML means the upstream returned an HTML document instead of
	// the expected format, typically a blocked/redirect/proxy page.
	PayloadHTML PayloadKind = "html"
	// PayloadNotXML means the body does not start with an XML root element.
	PayloadNotXML PayloadKind = "not-xml"
	// PayloadInvalid means the body looked plausible but failed to parse.
	PayloadInvalid PayloadKind = "invalid"
)

// TransportError is a network-level fetch failure: timeout, DNS, connection
// reset, or a non-2xx status. Always recoverable via the snapshot fallback.
type TransportError struct {
	Source string
	Status int // 0 when the request never got a response
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: upstream returned status %d", e.Source, e.Status)
	}
	return fmt.Sprintf("%s: request failed: %v", e.Source, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// MalformedPayloadError means the upstream responded, but the body is not
// parseable as the expected format. Kind distinguishes the HTML block-page
// case so the diagnostic tells the operator what actually happened.
type MalformedPayloadError struct {
	Source  string
	Kind    PayloadKind
	Snippet string // first chars of the offending body, for diagnostics
	Err     error
}

func (e *MalformedPayloadError) Error() string {
	switch e.Kind {
	case PayloadHTML:
		return fmt.Sprintf("%s: upstream returned HTML instead of the expected format (blocked/redirect/proxy page); first chars: %q", e.Source, e.Snippet)
	case PayloadNotXML:
		return fmt.Sprintf("%s: response does not look like XML; first chars: %q", e.Source, e.Snippet)
	default:
		return fmt.Sprintf("%s: malformed payload: %v", e.Source, e.Err)
	}
}

func (e *MalformedPayloadError) Unwrap() error { return e.Err }
