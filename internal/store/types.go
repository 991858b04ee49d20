package store

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

// Page carries limit/offset pagination. A zero Limit means the default page size.
type Page struct {
	Limit  int
	Offset int
}

func (p Page) limit() int {
	switch {
	case p.Limit <= 0:
		return defaultPageSize
	case p.Limit > maxPageSize:
		return maxPageSize
	default:
		return p.Limit
	}
}

// DisasterFilter narrows disaster listings.
type DisasterFilter struct {
	Page
	Status  string
	Type    string
	MinTier int
}

// ShelterFilter narrows shelter listings.
type ShelterFilter struct {
	Page
	DisasterID *int64
	Status     string
}

// VolunteerFilter narrows volunteer listings.
type VolunteerFilter struct {
	Page
	Availability string
}

// AssignmentFilter narrows assignment listings; at least one field is usually set.
type AssignmentFilter struct {
	Page
	VolunteerID *int64
	DisasterID  *int64
	Status      string
}

// SupplyFilter narrows relief supply listings.
type SupplyFilter struct {
	Page
	DisasterID *int64
	ShelterID  *int64
	Category   string
	LowStock   bool
}

// ActivationFilter narrows agency activation listings.
type ActivationFilter struct {
	Page
	AgencyID   *int64
	DisasterID *int64
	Status     string
}

// ReportFilter narrows citizen report listings.
type ReportFilter struct {
	Page
	DisasterID *int64
	Status     string
	Category   string
}
