package types

import (
	"time"

	"github.com/google/uuid"
)

// ConsolidatedRecord is one (inn, year) financial and tax snapshot. The
// composite unique index is the only race-safety mechanism for concurrent
// ingestions of overlapping tax identifiers: the second committer is
// rejected, never merged.
type ConsolidatedRecord struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	INN  string    `gorm:"column:inn;uniqueIndex:idx_consolidated_inn_year" json:"inn"`
	Year int       `gorm:"column:year;uniqueIndex:idx_consolidated_inn_year" json:"year"`

	Name             string  `gorm:"column:name" json:"name"`
	OrganizationType *string `gorm:"column:organization_type" json:"organization_type"`
	MainIndustry     *string `gorm:"column:main_industry" json:"main_industry"`
	SubIndustry      *string `gorm:"column:sub_industry" json:"sub_industry"`
	District         *string `gorm:"column:district" json:"district"`
	Region           *string `gorm:"column:region" json:"region"`
	Coordinates      *string `gorm:"column:coordinates" json:"coordinates"`

	RevenueThousRub             *float64 `gorm:"column:revenue_thous_rub" json:"revenue_thous_rub"`
	NetProfitThousRub           *float64 `gorm:"column:net_profit_thous_rub" json:"net_profit_thous_rub"`
	TaxesToMoscowThousRub       *float64 `gorm:"column:taxes_to_moscow_thous_rub" json:"taxes_to_moscow_thous_rub"`
	ProfitTaxThousRub           *float64 `gorm:"column:profit_tax_thous_rub" json:"profit_tax_thous_rub"`
	PropertyTaxThousRub         *float64 `gorm:"column:property_tax_thous_rub" json:"property_tax_thous_rub"`
	LandTaxThousRub             *float64 `gorm:"column:land_tax_thous_rub" json:"land_tax_thous_rub"`
	PersonalIncomeTaxThousRub   *float64 `gorm:"column:personal_income_tax_thous_rub" json:"personal_income_tax_thous_rub"`
	TransportTaxThousRub        *float64 `gorm:"column:transport_tax_thous_rub" json:"transport_tax_thous_rub"`
	OtherTaxesThousRub          *float64 `gorm:"column:other_taxes_thous_rub" json:"other_taxes_thous_rub"`
	ExciseTaxesThousRub         *float64 `gorm:"column:excise_taxes_thous_rub" json:"excise_taxes_thous_rub"`
	InvestmentsInMoscowThousRub *float64 `gorm:"column:investments_in_moscow_thous_rub" json:"investments_in_moscow_thous_rub"`
	AvgPersonnelMoscow          *int     `gorm:"column:avg_personnel_moscow" json:"avg_personnel_moscow"`
	PayrollMoscowThousRub       *float64 `gorm:"column:payroll_moscow_thous_rub" json:"payroll_moscow_thous_rub"`
	AvgSalaryMoscowThousRub     *float64 `gorm:"column:avg_salary_moscow_thous_rub" json:"avg_salary_moscow_thous_rub"`
	ExportVolumeThousRub        *float64 `gorm:"column:export_volume_thous_rub" json:"export_volume_thous_rub"`
	PrevYearExportVolumeMlnRub  *float64 `gorm:"column:prev_year_export_volume_mln_rub" json:"prev_year_export_volume_mln_rub"`
	CapacityUtilizationPercent  *int     `gorm:"column:capacity_utilization_percent" json:"capacity_utilization_percent"`
	HasExports                  *bool    `gorm:"column:has_exports" json:"has_exports"`

	SupportMeasures *string `gorm:"column:support_measures" json:"support_measures"`
	SpecialStatus   *string `gorm:"column:special_status" json:"special_status"`

	ConfirmationStatus  ConfirmationStatus `gorm:"column:confirmation_status;not null;default:'unconfirmed'" json:"confirmation_status"`
	ConfirmedAt         *time.Time         `gorm:"column:confirmed_at" json:"confirmed_at"`
	ConfirmerIdentifier *string            `gorm:"column:confirmer_identifier" json:"confirmer_identifier"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (ConsolidatedRecord) TableName() string {
	return "consolidated_record"
}

// ConsolidatedRecordPatch is the partial-update shape for a consolidated
// record. Identity fields (inn, year) are not patchable.
type ConsolidatedRecordPatch struct {
	Name             Optional[string] `json:"name"`
	OrganizationType Optional[string] `json:"organization_type"`
	MainIndustry     Optional[string] `json:"main_industry"`
	SubIndustry      Optional[string] `json:"sub_industry"`
	District         Optional[string] `json:"district"`
	Region           Optional[string] `json:"region"`
	Coordinates      Optional[string] `json:"coordinates"`

	RevenueThousRub             Optional[float64] `json:"revenue_thous_rub"`
	NetProfitThousRub           Optional[float64] `json:"net_profit_thous_rub"`
	TaxesToMoscowThousRub       Optional[float64] `json:"taxes_to_moscow_thous_rub"`
	ProfitTaxThousRub           Optional[float64] `json:"profit_tax_thous_rub"`
	PropertyTaxThousRub         Optional[float64] `json:"property_tax_thous_rub"`
	LandTaxThousRub             Optional[float64] `json:"land_tax_thous_rub"`
	PersonalIncomeTaxThousRub   Optional[float64] `json:"personal_income_tax_thous_rub"`
	TransportTaxThousRub        Optional[float64] `json:"transport_tax_thous_rub"`
	OtherTaxesThousRub          Optional[float64] `json:"other_taxes_thous_rub"`
	ExciseTaxesThousRub         Optional[float64] `json:"excise_taxes_thous_rub"`
	InvestmentsInMoscowThousRub Optional[float64] `json:"investments_in_moscow_thous_rub"`
	AvgPersonnelMoscow          Optional[int]     `json:"avg_personnel_moscow"`
	PayrollMoscowThousRub       Optional[float64] `json:"payroll_moscow_thous_rub"`
	AvgSalaryMoscowThousRub     Optional[float64] `json:"avg_salary_moscow_thous_rub"`
	ExportVolumeThousRub        Optional[float64] `json:"export_volume_thous_rub"`
	PrevYearExportVolumeMlnRub  Optional[float64] `json:"prev_year_export_volume_mln_rub"`
	CapacityUtilizationPercent  Optional[int]     `json:"capacity_utilization_percent"`
	HasExports                  Optional[bool]    `json:"has_exports"`

	SupportMeasures Optional[string] `json:"support_measures"`
	SpecialStatus   Optional[string] `json:"special_status"`
}

func (p ConsolidatedRecordPatch) Columns() map[string]interface{} {
	columns := map[string]interface{}{}
	p.Name.Assign(columns, "name")
	p.OrganizationType.Assign(columns, "organization_type")
	p.MainIndustry.Assign(columns, "main_industry")
	p.SubIndustry.Assign(columns, "sub_industry")
	p.District.Assign(columns, "district")
	p.Region.Assign(columns, "region")
	p.Coordinates.Assign(columns, "coordinates")
	p.RevenueThousRub.Assign(columns, "revenue_thous_rub")
	p.NetProfitThousRub.Assign(columns, "net_profit_thous_rub")
	p.TaxesToMoscowThousRub.Assign(columns, "taxes_to_moscow_thous_rub")
	p.ProfitTaxThousRub.Assign(columns, "profit_tax_thous_rub")
	p.PropertyTaxThousRub.Assign(columns, "property_tax_thous_rub")
	p.LandTaxThousRub.Assign(columns, "land_tax_thous_rub")
	p.PersonalIncomeTaxThousRub.Assign(columns, "personal_income_tax_thous_rub")
	p.TransportTaxThousRub.Assign(columns, "transport_tax_thous_rub")
	p.OtherTaxesThousRub.Assign(columns, "other_taxes_thous_rub")
	p.ExciseTaxesThousRub.Assign(columns, "excise_taxes_thous_rub")
	p.InvestmentsInMoscowThousRub.Assign(columns, "investments_in_moscow_thous_rub")
	p.AvgPersonnelMoscow.Assign(columns, "avg_personnel_moscow")
	p.PayrollMoscowThousRub.Assign(columns, "payroll_moscow_thous_rub")
	p.AvgSalaryMoscowThousRub.Assign(columns, "avg_salary_moscow_thous_rub")
	p.ExportVolumeThousRub.Assign(columns, "export_volume_thous_rub")
	p.PrevYearExportVolumeMlnRub.Assign(columns, "prev_year_export_volume_mln_rub")
	p.CapacityUtilizationPercent.Assign(columns, "capacity_utilization_percent")
	p.HasExports.Assign(columns, "has_exports")
	p.SupportMeasures.Assign(columns, "support_measures")
	p.SpecialStatus.Assign(columns, "special_status")
	return columns
}
