package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"relief-ops-backend/internal/intel"
	"relief-ops-backend/internal/model"
)

var (
	// ErrNotFound is returned when the addressed record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when the request clashes with the current state of the data.
	ErrConflict = errors.New("conflict")
	// ErrInvalid is returned for requests the store refuses on semantic grounds.
	ErrInvalid = errors.New("invalid")
	// ErrInsufficient is returned when a stock or capacity cannot cover a request.
	ErrInsufficient = errors.New("insufficient")
)

// Store defines the interface for all database operations.
type Store interface {
	DB() *gorm.DB
	Ping(ctx context.Context) error

	ListDisasters(ctx context.Context, f DisasterFilter) ([]model.Disaster, error)
	ListOpenDisasters(ctx context.Context) ([]model.Disaster, error)
	GetDisaster(ctx context.Context, id int64) (*model.Disaster, error)
	CreateDisaster(ctx context.Context, d *model.Disaster) error
	UpdateDisaster(ctx context.Context, d *model.Disaster) error
	DeleteDisaster(ctx context.Context, id int64) error
	SetDisasterTier(ctx context.Context, id int64, tier int) error
	RaiseDisasterTier(ctx context.Context, id int64, tier int) (bool, error)
	ActivateAgenciesForTier(ctx context.Context, disasterID int64, tier int, now time.Time) ([]model.AgencyActivation, error)

	ListShelters(ctx context.Context, f ShelterFilter) ([]model.Shelter, error)
	GetShelter(ctx context.Context, id int64) (*model.Shelter, error)
	CreateShelter(ctx context.Context, s *model.Shelter) error
	UpdateShelter(ctx context.Context, s *model.Shelter) error
	DeleteShelter(ctx context.Context, id int64) error
	AdjustShelterOccupancy(ctx context.Context, id int64, delta int) (*model.Shelter, error)

	ListVolunteers(ctx context.Context, f VolunteerFilter) ([]model.Volunteer, error)
	GetVolunteer(ctx context.Context, id int64) (*model.Volunteer, error)
	CreateVolunteer(ctx context.Context, v *model.Volunteer) error
	UpdateVolunteer(ctx context.Context, v *model.Volunteer) error
	DeleteVolunteer(ctx context.Context, id int64) error
	AssignVolunteer(ctx context.Context, volunteerID, disasterID int64, role string, now time.Time) (*model.VolunteerAssignment, error)
	EndAssignment(ctx context.Context, id int64, status string, now time.Time) (*model.VolunteerAssignment, error)
	ListAssignments(ctx context.Context, f AssignmentFilter) ([]model.VolunteerAssignment, error)

	ListSupplies(ctx context.Context, f SupplyFilter) ([]model.ReliefSupply, error)
	GetSupply(ctx context.Context, id int64) (*model.ReliefSupply, error)
	CreateSupply(ctx context.Context, s *model.ReliefSupply) error
	UpdateSupply(ctx context.Context, s *model.ReliefSupply) error
	DeleteSupply(ctx context.Context, id int64) error
	AllocateSupply(ctx context.Context, id int64, quantity int) (*model.ReliefSupply, error)

	ListAgencies(ctx context.Context, f Page) ([]model.Agency, error)
	GetAgency(ctx context.Context, id int64) (*model.Agency, error)
	CreateAgency(ctx context.Context, a *model.Agency) error
	UpdateAgency(ctx context.Context, a *model.Agency) error
	DeleteAgency(ctx context.Context, id int64) error
	ListAgencyResources(ctx context.Context, agencyID int64) ([]model.AgencyResource, error)
	CreateAgencyResource(ctx context.Context, r *model.AgencyResource) error
	DeleteAgencyResource(ctx context.Context, agencyID, resourceID int64) error
	ListActivations(ctx context.Context, f ActivationFilter) ([]model.AgencyActivation, error)
	ActivateAgency(ctx context.Context, agencyID, disasterID int64, now time.Time) (*model.AgencyActivation, bool, error)
	StandDownActivation(ctx context.Context, id int64, now time.Time) (*model.AgencyActivation, error)

	ListReports(ctx context.Context, f ReportFilter) ([]model.UserReport, error)
	GetReport(ctx context.Context, id int64) (*model.UserReport, error)
	GetReportByTrackingID(ctx context.Context, trackingID string) (*model.UserReport, error)
	CreateReport(ctx context.Context, r *model.UserReport) error
	UpdateReport(ctx context.Context, r *model.UserReport) error
	DeleteReport(ctx context.Context, id int64) error
	ReviewReport(ctx context.Context, id int64, status, notes string, disasterID *int64) (*model.UserReport, error)

	FindLocations(ctx context.Context, query string) ([]model.Location, error)
	SaveLocations(ctx context.Context, query string, locations []model.Location) error

	UpsertSubscription(ctx context.Context, sub *model.PushSubscription, disasterIDs []int64) error
	GetSubscription(ctx context.Context, endpoint string) (*model.PushSubscription, error)
	DeleteSubscription(ctx context.Context, endpoint string) error
	SubscriptionsForDisaster(ctx context.Context, disasterID int64) ([]model.PushSubscription, error)

	ResourceSnapshot(ctx context.Context, disasterID int64) (*intel.Snapshot, error)
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

func (s *gormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// wrap maps gorm errors onto the store's sentinel errors.
func wrap(err error, kind string, id any) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%w: %s %v", ErrNotFound, kind, id)
	case isDuplicate(err):
		return fmt.Errorf("%w: %s already exists", ErrConflict, kind)
	default:
		return err
	}
}

// isDuplicate recognises unique-constraint violations from every supported driver,
// including drivers that predate gorm's error translation.
func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "Duplicate entry") ||
		strings.Contains(msg, "duplicate key value")
}

// mustExist returns ErrNotFound when no row of type T has the given id.
func mustExist[T any](tx *gorm.DB, kind string, id int64) error {
	var count int64
	if err := tx.Model(new(T)).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("%w: %s %d", ErrNotFound, kind, id)
	}
	return nil
}

func paginate(q *gorm.DB, p Page) *gorm.DB {
	return q.Limit(p.limit()).Offset(p.Offset)
}
