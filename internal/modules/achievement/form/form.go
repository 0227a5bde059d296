// Package form holds the client-side core of the achievement module: the
// badge/certificate form values, the declarative validation schema, the
// per-session state container and the submission pipeline that resolves
// pending uploads before create/update.
package form

import (
	"time"

	"github.com/achievement-space/core/internal/modules/achievement/content"
)

// Kind selects which entity a form edits.
type Kind string

const (
	KindBadge       Kind = "badge"
	KindCertificate Kind = "certificate"
)

// ImageValue is the tri-state primary image field: a resolved URL, a pending
// binary file, or empty. URL and File are mutually exclusive.
type ImageValue struct {
	URL  string
	File *content.PendingFile
}

// IsZero reports whether neither a URL nor a pending file is set.
func (v ImageValue) IsZero() bool { return v.URL == "" && v.File == nil }

// Resolved reports whether the image is an already-uploaded reference.
func (v ImageValue) Resolved() bool { return v.URL != "" }

// Form is a plain snapshot of the current values. Certificate-only fields
// stay at their zero values on badge forms.
type Form struct {
	Kind            Kind
	Title           string
	Description     string
	CertificateType string
	Image           ImageValue
	Contents        content.List
	SafeZone        content.SafeZone
}

func initialForm(kind Kind) Form {
	f := Form{Kind: kind}
	if kind == KindCertificate {
		f.Contents = content.List{}
		f.SafeZone = content.DefaultSafeZone()
	}
	return f
}

// clone deep-copies the snapshot so pipeline resolution never mutates the
// container's state.
func (f Form) clone() Form {
	cp := f
	cp.Contents = f.Contents.Clone()
	return cp
}

// Detail is the server-authoritative record of a badge or certificate. It is
// only ever built from a fetch or create/update response, never from form
// values directly.
type Detail struct {
	ID                string     `json:"id"`
	Title             string     `json:"title"`
	Description       string     `json:"description,omitempty"`
	CertificateType   string     `json:"certificate_type,omitempty"`
	ImageURL          string     `json:"image_url,omitempty"`
	CreatedAt         *time.Time `json:"created_at,omitempty"`
	UpdatedAt         *time.Time `json:"updated_at,omitempty"`
	CreatedByID       string     `json:"created_by_id,omitempty"`
	CreatedByFullName string     `json:"created_by_full_name,omitempty"`
	IsDelete          bool       `json:"is_delete,omitempty"`
}
