package contractor

import (
	"time"

	"gorm.io/datatypes"
)

type Contractor struct {
	ID              int64     `gorm:"primaryKey"`
	Name            string    `gorm:"column:name;not null;index"`
	TaxID           string    `gorm:"column:tax_id;not null;index"`
	Status          string    `gorm:"column:status;not null"`
	IsChain         bool      `gorm:"column:is_chain;not null;default:false"`
	Notes           string    `gorm:"column:notes"`
	Description     string    `gorm:"column:description"`
	IndividualTerms string    `gorm:"column:individual_terms"`
	PrimaryCityID   *int64    `gorm:"column:primary_city_id;index"`
	AgreementID     *int64    `gorm:"column:agreement_id;index"`
	ManagerID       *int64    `gorm:"column:manager_id;index"`
	CreatorID       *int64    `gorm:"column:creator_id;index"`
	IsHidden        bool      `gorm:"column:is_hidden;not null;default:false"`
	Version         int64     `gorm:"column:version;not null;default:1"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Contractor) TableName() string { return "contractors" }

type ContractorSuggestion struct {
	ID            int64          `gorm:"primaryKey"`
	ContractorID  int64          `gorm:"column:contractor_id;not null;index"`
	AuthorID      *int64         `gorm:"column:author_id;index"`
	Changes       datatypes.JSON `gorm:"column:changes;not null"`
	Status        string         `gorm:"column:status;not null;index"`
	ReviewerID    *int64         `gorm:"column:reviewer_id"`
	ReviewedAt    *time.Time     `gorm:"column:reviewed_at"`
	ReviewComment string         `gorm:"column:review_comment"`
	CreatedAt     time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (ContractorSuggestion) TableName() string { return "contractor_suggestions" }

type ContractorFile struct {
	ID             int64     `gorm:"primaryKey"`
	ContractorID   int64     `gorm:"column:contractor_id;not null;index"`
	ServicePointID *int64    `gorm:"column:service_point_id"`
	SuggestionID   *int64    `gorm:"column:suggestion_id;index"`
	Staged         bool      `gorm:"column:staged;not null;default:false"`
	Name           string    `gorm:"column:name;not null"`
	MimeType       string    `gorm:"column:mime_type"`
	SizeBytes      int64     `gorm:"column:size_bytes;not null;default:0"`
	StorageKey     string    `gorm:"column:storage_key;not null;uniqueIndex"`
	UploadedBy     *int64    `gorm:"column:uploaded_by"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (ContractorFile) TableName() string { return "contractor_files" }
