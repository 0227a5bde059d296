// Package content models the positioned overlay elements of a certificate:
// a tagged union of text-like and image-like items, each carrying
// kind-specific layout metadata. Construction and mutation go through this
// package so that a text item can never carry image metadata and vice versa.
package content

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Type discriminates the content union. The wire spellings (including
// "sertificate_signee") match the persisted payload format.
type Type string

const (
	TypeImage             Type = "image"
	TypeText              Type = "text"
	TypeCertificateNumber Type = "certificate_number"
	TypeLocation          Type = "location"
	TypeFullName          Type = "fullname"
	TypeEmployeeID        Type = "employee_id"
	TypeEventTitle        Type = "event_title"
	TypeValidThru         Type = "valid_thru"
	TypeSignee            Type = "sertificate_signee"
)

// Kind groups types by metadata shape.
type Kind int

const (
	KindInvalid Kind = iota
	KindImage
	KindText
	KindLocation // text metadata plus location/date_format
)

// Kind returns the metadata kind for the type, or KindInvalid for an
// unknown type.
func (t Type) Kind() Kind {
	switch t {
	case TypeImage, TypeSignee:
		return KindImage
	case TypeLocation:
		return KindLocation
	case TypeText, TypeCertificateNumber, TypeFullName,
		TypeEmployeeID, TypeEventTitle, TypeValidThru:
		return KindText
	default:
		return KindInvalid
	}
}

// Valid reports whether t is one of the known content types.
func (t Type) Valid() bool { return t.Kind() != KindInvalid }

var (
	ErrUnknownType  = errors.New("unknown content type")
	ErrKindMismatch = errors.New("metadata field does not match content kind")
	ErrDuplicateKey = errors.New("duplicate content key")
	ErrNotFound     = errors.New("content key not found")
)

// Alignment is the horizontal text alignment of a text-kind item.
type Alignment string

const (
	AlignLeft   Alignment = "left"
	AlignCenter Alignment = "center"
	AlignRight  Alignment = "right"
)

// Defaults applied by New for text-kind items.
const (
	DefaultFontFamily = "Arial"
	DefaultFontSize   = 16
	DefaultFontWeight = 400
	DefaultColor      = "#000000"
	DefaultDateFormat = "DD/MM/YYYY"
)

// Metadata is the kind-specific layout payload of an item. Concrete types
// are ImageMetadata, TextMetadata and LocationMetadata.
type Metadata interface {
	kind() Kind
}

// ImageMetadata positions an image-kind item.
type ImageMetadata struct {
	Width          int `json:"width"`
	Height         int `json:"height"`
	Vertical       int `json:"vertical"`
	Horizontal     int `json:"horizontal"`
	OriginalWidth  int `json:"originalWidth,omitempty"`
	OriginalHeight int `json:"originalHeight,omitempty"`
}

func (ImageMetadata) kind() Kind { return KindImage }

// TextMetadata positions and styles a text-kind item.
type TextMetadata struct {
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	Color      string    `json:"color"`
	Alignment  Alignment `json:"alignment"`
	FontSize   int       `json:"font_size"`
	FontWeight int       `json:"font_weight"`
	FontFamily string    `json:"font_family"`
	Vertical   int       `json:"vertical"`
	Horizontal int       `json:"horizontal"`
}

func (TextMetadata) kind() Kind { return KindText }

// LocationMetadata extends TextMetadata for the location item, which renders
// a place name together with a formatted date.
type LocationMetadata struct {
	TextMetadata
	Location   string `json:"location"`
	DateFormat string `json:"date_format"`
}

func (LocationMetadata) kind() Kind { return KindLocation }

// PendingFile is a user-selected binary asset that has not been uploaded
// yet. It never serializes into a stored certificate; the submission
// pipeline must resolve it to a URL first.
type PendingFile struct {
	Name string
	MIME string
	Data []byte
}

// IsImage reports whether the declared media type is an image.
func (f *PendingFile) IsImage() bool {
	return f != nil && strings.HasPrefix(f.MIME, "image/")
}

// Item is one overlay element. Type and Key are fixed at construction;
// metadata and value mutate through ApplyMetadata/SetValue/SetFile, which
// enforce the kind rules.
type Item struct {
	itemType Type
	key      string
	value    string
	file     *PendingFile
	meta     Metadata
}

// New creates an item of the given type with kind-appropriate defaults:
// zero offsets everywhere, the standard font for text kinds.
func New(t Type, key string) (*Item, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, t)
	}
	if strings.TrimSpace(key) == "" {
		return nil, errors.New("content key is required")
	}

	it := &Item{itemType: t, key: key}
	switch t.Kind() {
	case KindImage:
		it.meta = ImageMetadata{}
	case KindLocation:
		it.meta = LocationMetadata{
			TextMetadata: defaultTextMetadata(),
			DateFormat:   DefaultDateFormat,
		}
	default:
		it.meta = defaultTextMetadata()
	}
	return it, nil
}

func defaultTextMetadata() TextMetadata {
	return TextMetadata{
		Color:      DefaultColor,
		Alignment:  AlignLeft,
		FontSize:   DefaultFontSize,
		FontWeight: DefaultFontWeight,
		FontFamily: DefaultFontFamily,
	}
}

// Type returns the immutable content type.
func (it *Item) Type() Type { return it.itemType }

// Key returns the immutable content key.
func (it *Item) Key() string { return it.key }

// Value returns the current resolved value (empty for an image item whose
// asset is still pending).
func (it *Item) Value() string { return it.value }

// File returns the pending binary asset, if any.
func (it *Item) File() *PendingFile { return it.file }

// Metadata returns the current metadata payload.
func (it *Item) Metadata() Metadata { return it.meta }

// SetValue sets the resolved content value. For image-kind items this is an
// already-uploaded asset URL and clears any pending file.
func (it *Item) SetValue(v string) {
	it.value = v
	if it.itemType.Kind() == KindImage {
		it.file = nil
	}
}

// SetFile attaches a pending binary asset to an image-kind item and clears
// any resolved value. Text-kind items reject files.
func (it *Item) SetFile(f *PendingFile) error {
	if it.itemType.Kind() != KindImage {
		return fmt.Errorf("%w: %s items do not carry files", ErrKindMismatch, it.itemType)
	}
	it.file = f
	if f != nil {
		it.value = ""
	}
	return nil
}

// MetadataPatch is a partial metadata update. Only non-nil fields are
// applied; setting a field that does not belong to the item's kind fails
// with ErrKindMismatch.
type MetadataPatch struct {
	Width      *int
	Height     *int
	Vertical   *int
	Horizontal *int

	// image kind only
	OriginalWidth  *int
	OriginalHeight *int

	// text kinds only
	Color      *string
	Alignment  *Alignment
	FontSize   *int
	FontWeight *int
	FontFamily *string

	// location only
	Location   *string
	DateFormat *string
}

func (p MetadataPatch) hasImageFields() bool {
	return p.OriginalWidth != nil || p.OriginalHeight != nil
}

func (p MetadataPatch) hasTextFields() bool {
	return p.Color != nil || p.Alignment != nil || p.FontSize != nil ||
		p.FontWeight != nil || p.FontFamily != nil
}

func (p MetadataPatch) hasLocationFields() bool {
	return p.Location != nil || p.DateFormat != nil
}

// ApplyMetadata merges the patch into the item's metadata, rejecting fields
// outside the item's kind before touching anything.
func (it *Item) ApplyMetadata(p MetadataPatch) error {
	switch m := it.meta.(type) {
	case ImageMetadata:
		if p.hasTextFields() || p.hasLocationFields() {
			return fmt.Errorf("%w: text fields on %s item %q", ErrKindMismatch, it.itemType, it.key)
		}
		applyCommon(&m.Width, &m.Height, &m.Vertical, &m.Horizontal, p)
		if p.OriginalWidth != nil {
			m.OriginalWidth = *p.OriginalWidth
		}
		if p.OriginalHeight != nil {
			m.OriginalHeight = *p.OriginalHeight
		}
		it.meta = m
	case TextMetadata:
		if p.hasImageFields() || p.hasLocationFields() {
			return fmt.Errorf("%w: non-text fields on %s item %q", ErrKindMismatch, it.itemType, it.key)
		}
		applyCommon(&m.Width, &m.Height, &m.Vertical, &m.Horizontal, p)
		applyText(&m, p)
		it.meta = m
	case LocationMetadata:
		if p.hasImageFields() {
			return fmt.Errorf("%w: image fields on %s item %q", ErrKindMismatch, it.itemType, it.key)
		}
		applyCommon(&m.Width, &m.Height, &m.Vertical, &m.Horizontal, p)
		applyText(&m.TextMetadata, p)
		if p.Location != nil {
			m.Location = *p.Location
		}
		if p.DateFormat != nil {
			m.DateFormat = *p.DateFormat
		}
		it.meta = m
	default:
		return fmt.Errorf("%w: %q", ErrUnknownType, it.itemType)
	}
	return nil
}

func applyCommon(width, height, vertical, horizontal *int, p MetadataPatch) {
	if p.Width != nil {
		*width = *p.Width
	}
	if p.Height != nil {
		*height = *p.Height
	}
	if p.Vertical != nil {
		*vertical = *p.Vertical
	}
	if p.Horizontal != nil {
		*horizontal = *p.Horizontal
	}
}

func applyText(m *TextMetadata, p MetadataPatch) {
	if p.Color != nil {
		m.Color = *p.Color
	}
	if p.Alignment != nil {
		m.Alignment = *p.Alignment
	}
	if p.FontSize != nil {
		m.FontSize = *p.FontSize
	}
	if p.FontWeight != nil {
		m.FontWeight = *p.FontWeight
	}
	if p.FontFamily != nil {
		m.FontFamily = *p.FontFamily
	}
}

type itemJSON struct {
	Type     Type            `json:"type"`
	Key      string          `json:"key"`
	Value    *string         `json:"value"`
	Metadata json.RawMessage `json:"metadata"`
}

// MarshalJSON serializes the item with a null value for image-kind items
// whose asset is unresolved. Pending files never serialize.
func (it Item) MarshalJSON() ([]byte, error) {
	out := itemJSON{Type: it.itemType, Key: it.key}
	if it.value != "" || it.itemType.Kind() != KindImage {
		v := it.value
		out.Value = &v
	}
	meta, err := json.Marshal(it.meta)
	if err != nil {
		return nil, err
	}
	out.Metadata = meta
	return json.Marshal(out)
}

// UnmarshalJSON decodes an item, dispatching the metadata shape on the
// declared type. Unknown types and metadata fields outside the type's kind
// are rejected.
func (it *Item) UnmarshalJSON(b []byte) error {
	var raw itemJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if !raw.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownType, raw.Type)
	}
	if raw.Key == "" {
		return errors.New("content key is required")
	}

	it.itemType = raw.Type
	it.key = raw.Key
	it.value = ""
	it.file = nil
	if raw.Value != nil {
		it.value = *raw.Value
	}

	meta := raw.Metadata
	if len(meta) == 0 {
		meta = []byte("{}")
	}
	dec := json.NewDecoder(bytes.NewReader(meta))
	dec.DisallowUnknownFields()

	switch raw.Type.Kind() {
	case KindImage:
		var m ImageMetadata
		if err := dec.Decode(&m); err != nil {
			return fmt.Errorf("%w: %s item %q: %v", ErrKindMismatch, raw.Type, raw.Key, err)
		}
		it.meta = m
	case KindLocation:
		var m LocationMetadata
		if err := dec.Decode(&m); err != nil {
			return fmt.Errorf("%w: %s item %q: %v", ErrKindMismatch, raw.Type, raw.Key, err)
		}
		it.meta = m
	default:
		var m TextMetadata
		if err := dec.Decode(&m); err != nil {
			return fmt.Errorf("%w: %s item %q: %v", ErrKindMismatch, raw.Type, raw.Key, err)
		}
		it.meta = m
	}
	return nil
}

// List is the ordered content of one certificate. Keys are unique within a
// list.
type List []*Item

// Add appends an item, rejecting duplicate keys.
func (l *List) Add(it *Item) error {
	if it == nil {
		return errors.New("nil content item")
	}
	if _, ok := l.Get(it.key); ok {
		return fmt.Errorf("%w: %q", ErrDuplicateKey, it.key)
	}
	*l = append(*l, it)
	return nil
}

// Remove deletes the item with the given key. Removing an absent key is an
// error rather than a silent no-op.
func (l *List) Remove(key string) error {
	for i, it := range *l {
		if it.key == key {
			*l = append((*l)[:i], (*l)[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrNotFound, key)
}

// Get returns the item with the given key.
func (l List) Get(key string) (*Item, bool) {
	for _, it := range l {
		if it.key == key {
			return it, true
		}
	}
	return nil, false
}

// Keys returns the item keys in list order.
func (l List) Keys() []string {
	keys := make([]string, 0, len(l))
	for _, it := range l {
		keys = append(keys, it.key)
	}
	return keys
}

// HasPendingFiles reports whether any item still holds an unresolved binary
// asset.
func (l List) HasPendingFiles() bool {
	for _, it := range l {
		if it.file != nil {
			return true
		}
	}
	return false
}

// Validate checks list-level invariants: unique keys and known types.
// Kind-consistent metadata holds by construction and by the JSON codec.
func (l List) Validate() error {
	seen := make(map[string]struct{}, len(l))
	for _, it := range l {
		if !it.itemType.Valid() {
			return fmt.Errorf("%w: %q", ErrUnknownType, it.itemType)
		}
		if _, dup := seen[it.key]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateKey, it.key)
		}
		seen[it.key] = struct{}{}
	}
	return nil
}

// Clone returns a deep copy of the list. Metadata values copy by value;
// pending file data is shared (the bytes are immutable by convention).
func (l List) Clone() List {
	if l == nil {
		return nil
	}
	out := make(List, 0, len(l))
	for _, it := range l {
		cp := *it
		out = append(out, &cp)
	}
	return out
}

// SafeZone bounds where content may be placed, as margins from each edge.
type SafeZone struct {
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
	Left   int `json:"left"`
}

// DefaultSafeZone is the initial margin set for a new certificate.
func DefaultSafeZone() SafeZone {
	return SafeZone{Top: 50, Right: 50, Bottom: 50, Left: 50}
}

// Validate rejects negative margins.
func (z SafeZone) Validate() error {
	if z.Top < 0 || z.Right < 0 || z.Bottom < 0 || z.Left < 0 {
		return errors.New("safe zone margins must be non-negative")
	}
	return nil
}
