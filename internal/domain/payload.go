package domain

import "strings"

// headProbe is how much of the body gets classified. Block pages announce
// themselves well within the first 200 characters.
const headProbe = 200

// CleanXMLPayload strips a UTF-8 byte-order-mark and surrounding whitespace,
// then sniffs the head of the body. It returns the cleaned text, or a
// *MalformedPayloadError when the body is an HTML page (PayloadHTML) or does
// not open with an XML root element (PayloadNotXML). Some networks hand back
// HTML block pages with a 200 status; catching that here keeps the XML
// decoder's vaguer errors out of the diagnostics.
func CleanXMLPayload(source string, body []byte) (string, error) {
	text, head := cleanHead(body)

	if isHTMLHead(head) {
		return "", &MalformedPayloadError{Source: source, Kind: PayloadHTML, Snippet: snippet(text)}
	}
	if !strings.HasPrefix(text, "<") {
		return "", &MalformedPayloadError{Source: source, Kind: PayloadNotXML, Snippet: snippet(text)}
	}
	return text, nil
}

// CleanJSONPayload is the JSON counterpart of CleanXMLPayload. The HTML
// block-page failure mode applies to the USGS endpoint just as much as to
// GDACS, and the distinct diagnostic is worth the extra sniff.
func CleanJSONPayload(source string, body []byte) (string, error) {
	text, head := cleanHead(body)

	if isHTMLHead(head) {
		return "", &MalformedPayloadError{Source: source, Kind: PayloadHTML, Snippet: snippet(text)}
	}
	return text, nil
}

func cleanHead(body []byte) (text, head string) {
	text = strings.TrimSpace(strings.TrimPrefix(string(body), "\ufeff"))
	head = strings.ToLower(text)
	if len(head) > headProbe {
		head = head[:headProbe]
	}
	return text, head
}

func isHTMLHead(head string) bool {
	return strings.HasPrefix(head, "<!doctype html") ||
		strings.HasPrefix(head, "<html") ||
		strings.Contains(head, "<html")
}

func snippet(text string) string {
	if len(text) > headProbe {
		return text[:headProbe]
	}
	return text
}
