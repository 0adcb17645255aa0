package domain

import "net/url"

// Payload is the tagged variant behind pasta_type. Classification happens
// before any encryption transform, so the public type reflects the shape
// of the original payload even when the stored bytes end up opaque.
type Payload interface {
	PastaType() string
}

type TextPayload struct {
	Content string
}

func (TextPayload) PastaType() string { return TypeText }

type URLPayload struct {
	Content string
}

func (URLPayload) PastaType() string { return TypeURL }

type FilePayload struct {
	Name  string
	Bytes []byte
}

func (FilePayload) PastaType() string { return TypeFile }

// ClassifyContent decides between url and text for a non-empty content
// string. Returns nil for empty content.
func ClassifyContent(content string) Payload {
	if content == "" {
		return nil
	}
	if IsValidURL(content) {
		return URLPayload{Content: content}
	}
	return TextPayload{Content: content}
}

// IsValidURL accepts absolute http/https URLs with a host.
func IsValidURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != ""
}
