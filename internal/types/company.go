package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ConfirmationStatus is a free-form verification tag, not an enforced state
// machine: any state may be set from any other.
type ConfirmationStatus string

const (
	ConfirmationUnconfirmed     ConfirmationStatus = "unconfirmed"
	ConfirmationUserConfirmed   ConfirmationStatus = "user_confirmed"
	ConfirmationSystemConfirmed ConfirmationStatus = "system_confirmed"
)

// ConfirmerKind selects the confirmation state set by Confirm operations.
type ConfirmerKind string

const (
	ConfirmerUser   ConfirmerKind = "USER"
	ConfirmerSystem ConfirmerKind = "SYSTEM"
)

// Status returns the confirmation state a confirmer of this kind produces.
func (k ConfirmerKind) Status() ConfirmationStatus {
	if k == ConfirmerSystem {
		return ConfirmationSystemConfirmed
	}
	return ConfirmationUserConfirmed
}

// Company is one ingested registry row. INN intentionally carries no
// uniqueness constraint: re-ingesting the same tax identifier produces a
// new row (observed upstream behavior, pending product clarification).
type Company struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	INN              int64     `gorm:"column:inn;index" json:"inn"`
	Name             string    `gorm:"column:name" json:"name"`
	FullName         string    `gorm:"column:full_name" json:"full_name"`
	SparkStatus      string    `gorm:"column:spark_status" json:"spark_status"`
	MainIndustry     string    `gorm:"column:main_industry" json:"main_industry"`
	CompanySizeFinal string    `gorm:"column:company_size_final" json:"company_size_final"`
	OrganizationType *string   `gorm:"column:organization_type" json:"organization_type"`
	SupportMeasures  *bool     `gorm:"column:support_measures" json:"support_measures"`
	SpecialStatus    *string   `gorm:"column:special_status" json:"special_status"`

	ConfirmationStatus  ConfirmationStatus `gorm:"column:confirmation_status;not null;default:'unconfirmed'" json:"confirmation_status"`
	ConfirmedAt         *time.Time         `gorm:"column:confirmed_at" json:"confirmed_at"`
	ConfirmerIdentifier *string            `gorm:"column:confirmer_identifier" json:"confirmer_identifier"`

	JSONData datatypes.JSON `gorm:"column:json_data;type:jsonb" json:"json_data"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Company) TableName() string {
	return "company"
}

// UserCompanyLink ties an uploading user to a company it introduced.
// A pure join row: composite key, no attributes.
type UserCompanyLink struct {
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	CompanyID uuid.UUID `gorm:"type:uuid;primaryKey" json:"company_id"`
}

func (UserCompanyLink) TableName() string {
	return "user_company_link"
}

// CompanyPatch is a partial update of the company's main fields. Fields
// absent from the request body stay untouched.
type CompanyPatch struct {
	Name             Optional[string] `json:"name"`
	FullName         Optional[string] `json:"full_name"`
	SparkStatus      Optional[string] `json:"spark_status"`
	MainIndustry     Optional[string] `json:"main_industry"`
	CompanySizeFinal Optional[string] `json:"company_size_final"`
	OrganizationType Optional[string] `json:"organization_type"`
	SupportMeasures  Optional[bool]   `json:"support_measures"`
	SpecialStatus    Optional[string] `json:"special_status"`
}

func (p CompanyPatch) Columns() map[string]interface{} {
	columns := map[string]interface{}{}
	p.Name.Assign(columns, "name")
	p.FullName.Assign(columns, "full_name")
	p.SparkStatus.Assign(columns, "spark_status")
	p.MainIndustry.Assign(columns, "main_industry")
	p.CompanySizeFinal.Assign(columns, "company_size_final")
	p.OrganizationType.Assign(columns, "organization_type")
	p.SupportMeasures.Assign(columns, "support_measures")
	p.SpecialStatus.Assign(columns, "special_status")
	return columns
}

// CompanyKeyMetricsPatch narrows CompanyPatch to the classification fields.
type CompanyKeyMetricsPatch struct {
	MainIndustry     Optional[string] `json:"main_industry"`
	CompanySizeFinal Optional[string] `json:"company_size_final"`
	OrganizationType Optional[string] `json:"organization_type"`
	SupportMeasures  Optional[bool]   `json:"support_measures"`
	SpecialStatus    Optional[string] `json:"special_status"`
}

func (p CompanyKeyMetricsPatch) Columns() map[string]interface{} {
	columns := map[string]interface{}{}
	p.MainIndustry.Assign(columns, "main_industry")
	p.CompanySizeFinal.Assign(columns, "company_size_final")
	p.OrganizationType.Assign(columns, "organization_type")
	p.SupportMeasures.Assign(columns, "support_measures")
	p.SpecialStatus.Assign(columns, "special_status")
	return columns
}
