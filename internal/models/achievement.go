package models

import "github.com/achievement-space/core/internal/modules/achievement/content"

// Accessibility values shown in list views.
const (
	AccessibilityPublic     = "PUBLIC"
	AccessibilityRestricted = "RESTRICTED"
)

// Certificate type options.
const (
	CertificateTypeAttendance  = "attendance"
	CertificateTypeRecognition = "recognition"
	CertificateTypeCompletion  = "completion"
)

// BadgeModel is a stored badge definition.
type BadgeModel struct {
	AuditBase
	Title         string `json:"title"         gorm:"size:255;not null;index"`
	Description   string `json:"description"   gorm:"size:1000;not null"`
	ImageURL      string `json:"image_url"     gorm:"not null"`
	Accessibility string `json:"accessibility" gorm:"size:20;default:'PUBLIC';index"`
}

func (BadgeModel) TableName() string { return "badges" }

// CertificateModel is a stored certificate template: top-level fields plus
// the positioned content overlays and the placement safe zone.
type CertificateModel struct {
	AuditBase
	Title           string           `json:"title"            gorm:"size:255;not null;index"`
	Description     string           `json:"description"      gorm:"size:1000;not null"`
	CertificateType string           `json:"certificate_type" gorm:"size:50;not null;index"`
	ImageURL        string           `json:"image_url"        gorm:"not null"`
	Accessibility   string           `json:"accessibility"    gorm:"size:20;default:'PUBLIC';index"`
	Contents        content.List     `json:"contents"         gorm:"type:longtext;serializer:json"`
	SafeZone        content.SafeZone `json:"safe_zone"        gorm:"serializer:json"`
}

func (CertificateModel) TableName() string { return "certificates" }

// FileReferenceModel tracks uploaded assets and which entity claimed them.
type FileReferenceModel struct {
	Base
	FileURL          string `json:"file_url"           gorm:"index;not null"`
	FileName         string `json:"file_name"`
	OriginalFileName string `json:"original_file_name"`
	MIME             string `json:"file_mime"`
	UploadKey        string `json:"upload_key"         gorm:"index"`
	Status           string `json:"status"             gorm:"index;default:'pending'"` // pending | active
	RefID            string `json:"ref_id"             gorm:"index"`
	RefType          string `json:"ref_type"           gorm:"index"` // badge | certificate
}

func (FileReferenceModel) TableName() string { return "file_references" }

// OptionModel is a generic key-value store; the feature module keeps its
// remote feature flags here.
type OptionModel struct {
	ID    uint   `json:"-"     gorm:"primaryKey;autoIncrement"`
	Name  string `json:"name"  gorm:"uniqueIndex;not null"`
	Value string `json:"value" gorm:"type:longtext"`
}

func (OptionModel) TableName() string { return "options" }
