package helpers

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/net/html/charset"
)

// BrowserHeaders returns the request headers sent with every page fetch.
// The returned header is built once and never mutated afterwards.
func BrowserHeaders(userAgent, acceptLanguage string) http.Header {
	h := make(http.Header)
	h.Set("User-Agent", userAgent)
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	h.Set("Accept-Language", acceptLanguage)
	h.Set("Connection", "keep-alive")
	return h
}

// ReadUTF8 reads the whole body and converts it to UTF-8 based on the
// Content-Type header and the body content.
func ReadUTF8(body io.Reader, contentType string) (string, error) {
	bodyBytes, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	encoding, name, _ := charset.DetermineEncoding(bodyBytes, contentType)

	// If already UTF-8, return as is
	if strings.EqualFold(name, "utf-8") {
		return string(bodyBytes), nil
	}

	utf8Reader := encoding.NewDecoder().Reader(bytes.NewReader(bodyBytes))
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, utf8Reader); err != nil {
		return "", fmt.Errorf("failed to read converted UTF-8 body: %w", err)
	}

	return buf.String(), nil
}
