package csvreader

import "strconv"

// Source header names for the relational key-field subset. Field names are
// matched exactly as they appear in the registry exports.
const (
	HeaderINN              = "ИНН"
	HeaderName             = "Наименование организации"
	HeaderFullName         = "Полное наименование организации"
	HeaderSparkStatus      = "Статус СПАРК"
	HeaderMainIndustry     = "Основная отрасль"
	HeaderCompanySizeFinal = "Размер предприятия (итог)"
	HeaderOrganizationType = "Тип организации"
	HeaderSupportMeasures  = "Данные о мерах поддержки"
	HeaderSpecialStatus    = "Наличие особого статуса"
)

// SupportGrantedSentinel is the single recognized "granted" spelling.
// Locale variants are deliberately not matched.
const SupportGrantedSentinel = "Получены"

// KeyFields is the fixed projection of a RawRecord onto the relational
// schema. Missing source fields yield empty strings or nils; extraction
// never fails.
type KeyFields struct {
	INN              string
	Name             string
	FullName         string
	SparkStatus      string
	MainIndustry     string
	CompanySizeFinal string
	OrganizationType *string
	SupportMeasures  bool
	SpecialStatus    *string
}

// ExtractKeyFields projects one parsed row onto KeyFields by header name.
func ExtractKeyFields(record RawRecord) KeyFields {
	return KeyFields{
		INN:              asString(record[HeaderINN]),
		Name:             asString(record[HeaderName]),
		FullName:         asString(record[HeaderFullName]),
		SparkStatus:      asString(record[HeaderSparkStatus]),
		MainIndustry:     asString(record[HeaderMainIndustry]),
		CompanySizeFinal: asString(record[HeaderCompanySizeFinal]),
		OrganizationType: asStringPtr(record[HeaderOrganizationType]),
		SupportMeasures:  record[HeaderSupportMeasures] == SupportGrantedSentinel,
		SpecialStatus:    asStringPtr(record[HeaderSpecialStatus]),
	}
}

// INNInt64 converts the tax identifier to its stored integer form. An
// empty identifier maps to zero; a non-numeric one reports ok=false so the
// caller can record a per-row validation failure.
func (kf KeyFields) INNInt64() (int64, bool) {
	if kf.INN == "" {
		return 0, true
	}
	n, err := strconv.ParseInt(kf.INN, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func asString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return ""
	}
}

func asStringPtr(v interface{}) *string {
	if v == nil {
		return nil
	}
	s := asString(v)
	return &s
}
