package models

import "strings"

// ContentType names the kind of content an interaction targets
type ContentType string

const (
	ContentTypeMedia ContentType = "media"
	ContentTypePost  ContentType = "post"
	ContentTypeTrack ContentType = "track"
	ContentTypeVideo ContentType = "video"
	ContentTypeForum ContentType = "forum"
)

// DefaultContentType is used on the wire when a caller never supplied a type
const DefaultContentType = ContentTypeMedia

const keySeparator = ":"

// ContentKey is the canonical (type, id) identity of a content item.
// A key with an empty Type is degenerate: it is what a bare legacy id
// resolves to before any typed call registered it.
type ContentKey struct {
	Type ContentType `json:"contentType"`
	ID   string      `json:"contentId"`
}

// MakeKey builds the canonical key for a content item
func MakeKey(contentID string, contentType ContentType) ContentKey {
	return ContentKey{Type: contentType, ID: contentID}
}

// String serializes the key as "{type}:{id}", or the bare id for degenerate keys
func (k ContentKey) String() string {
	if k.Type == "" {
		return k.ID
	}
	return string(k.Type) + keySeparator + k.ID
}

// IsCanonical reports whether the key carries a content type
func (k ContentKey) IsCanonical() bool {
	return k.Type != ""
}

// WireType returns the type used in request paths
func (k ContentKey) WireType() ContentType {
	if k.Type == "" {
		return DefaultContentType
	}
	return k.Type
}

// ParseContentKey is the inverse of ContentKey.String. Strings without a
// separator parse to a degenerate key.
func ParseContentKey(s string) ContentKey {
	typ, id, ok := strings.Cut(s, keySeparator)
	if !ok {
		return ContentKey{ID: s}
	}
	return ContentKey{Type: ContentType(typ), ID: id}
}

var knownContentTypes = map[ContentType]bool{
	ContentTypeMedia: true,
	ContentTypePost:  true,
	ContentTypeTrack: true,
	ContentTypeVideo: true,
	ContentTypeForum: true,
}

// ParseContentType validates a content type taken from a request path
func ParseContentType(s string) (ContentType, bool) {
	t := ContentType(strings.ToLower(strings.TrimSpace(s)))
	return t, knownContentTypes[t]
}
