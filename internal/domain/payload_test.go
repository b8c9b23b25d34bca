package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanXMLPayload(t *testing.T) {
	t.Run("valid xml passes through", func(t *testing.T) {
		text, err := CleanXMLPayload(SourceGDACS, []byte("<rss><channel/></rss>"))
		require.NoError(t, err)
		assert.Equal(t, "<rss><channel/></rss>", text)
	})

	t.Run("strips BOM and whitespace", func(t *testing.T) {
		text, err := CleanXMLPayload(SourceGDACS, []byte("\ufeff  \n<rss/>\n"))
		require.NoError(t, err)
		assert.Equal(t, "<rss/>", text)
	})

	t.Run("html document is the blocked case", func(t *testing.T) {
		bodies := [][]byte{
			[]byte("<html><body>blocked</body></html>"),
			[]byte("<!DOCTYPE html><html></html>"),
			[]byte("<!doctype HTML>\n<HTML>"),
		}
		for _, body := range bodies {
			_, err := CleanXMLPayload(SourceGDACS, body)
			var malformed *MalformedPayloadError
			require.ErrorAs(t, err, &malformed, "body %q", body)
			assert.Equal(t, PayloadHTML, malformed.Kind)
			assert.Contains(t, malformed.Error(), "blocked/redirect")
		}
	})

	t.Run("non-xml body is the generic case", func(t *testing.T) {
		_, err := CleanXMLPayload(SourceGDACS, []byte("503 Service Unavailable"))
		var malformed *MalformedPayloadError
		require.ErrorAs(t, err, &malformed)
		assert.Equal(t, PayloadNotXML, malformed.Kind)
		assert.Contains(t, malformed.Snippet, "503")
	})

	t.Run("html and generic cases are distinguishable", func(t *testing.T) {
		_, htmlErr := CleanXMLPayload(SourceGDACS, []byte("<html>"))
		_, genericErr := CleanXMLPayload(SourceGDACS, []byte("plain text"))

		var m1, m2 *MalformedPayloadError
		require.ErrorAs(t, htmlErr, &m1)
		require.ErrorAs(t, genericErr, &m2)
		assert.NotEqual(t, m1.Kind, m2.Kind)
	})

	t.Run("snippet is capped", func(t *testing.T) {
		long := make([]byte, 1000)
		for i := range long {
			long[i] = 'x'
		}
		_, err := CleanXMLPayload(SourceGDACS, long)
		var malformed *MalformedPayloadError
		require.ErrorAs(t, err, &malformed)
		assert.Len(t, malformed.Snippet, 200)
	})
}

func TestCleanJSONPayload(t *testing.T) {
	t.Run("json passes through", func(t *testing.T) {
		text, err := CleanJSONPayload(SourceUSGS, []byte("\ufeff{\"features\":[]}"))
		require.NoError(t, err)
		assert.Equal(t, `{"features":[]}`, text)
	})

	t.Run("html is rejected", func(t *testing.T) {
		_, err := CleanJSONPayload(SourceUSGS, []byte("<!doctype html><html>denied</html>"))
		var malformed *MalformedPayloadError
		require.ErrorAs(t, err, &malformed)
		assert.Equal(t, PayloadHTML, malformed.Kind)
	})
}

func TestErrorTaxonomy(t *testing.T) {
	t.Run("transport error reports status", func(t *testing.T) {
		err := &TransportError{Source: SourceGDACS, Status: 503}
		assert.Contains(t, err.Error(), "503")
	})

	t.Run("transport error wraps the cause", func(t *testing.T) {
		cause := errors.New("dial tcp: timeout")
		err := &TransportError{Source: SourceUSGS, Err: cause}
		assert.ErrorIs(t, err, cause)
	})
}
