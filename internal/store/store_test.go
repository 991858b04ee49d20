package store

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"relief-ops-backend/config"
	"relief-ops-backend/internal/db"
	"relief-ops-backend/internal/model"
)

// A helper function to create a mock database connection.
func newTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: sqlDB,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

// newSQLiteStore opens a migrated in-memory database on a single connection,
// so concurrent callers are serialized the way row locks serialize them in MySQL.
func newSQLiteStore(t *testing.T) Store {
	t.Helper()
	gormDB, err := db.Open(&config.DatabaseConfig{
		Driver:       "sqlite",
		DSN:          ":memory:",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	}, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gormDB, zap.NewNop()))

	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	return NewGormStore(gormDB)
}

func seedDisaster(t *testing.T, s Store, mutate ...func(*model.Disaster)) *model.Disaster {
	t.Helper()
	d := &model.Disaster{
		Name:      "Valley flood",
		Type:      "flood",
		Status:    model.DisasterActive,
		Severity:  model.SeverityModerate,
		Tier:      1,
		StartedAt: time.Now().UTC(),
	}
	for _, m := range mutate {
		m(d)
	}
	require.NoError(t, s.CreateDisaster(context.Background(), d))
	return d
}

func seedVolunteer(t *testing.T, s Store, email string) *model.Volunteer {
	t.Helper()
	v := &model.Volunteer{Name: "Vol " + email, Email: email}
	require.NoError(t, s.CreateVolunteer(context.Background(), v))
	return v
}

func TestAssignVolunteer_ConcurrentRequests(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()
	d := seedDisaster(t, s)
	v := seedVolunteer(t, s, "busy@example.org")

	const attempts = 5
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.AssignVolunteer(ctx, v.ID, d.ID, "runner", time.Now())
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, attempts-1, conflicts)

	active, err := s.ListAssignments(ctx, AssignmentFilter{VolunteerID: &v.ID, Status: model.AssignmentActive})
	require.NoError(t, err)
	assert.Len(t, active, 1)

	got, err := s.GetVolunteer(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, model.VolunteerAssigned, got.Availability)
}

func TestAssignVolunteer_Lifecycle(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()
	d := seedDisaster(t, s)
	other := seedDisaster(t, s, func(d *model.Disaster) { d.Name = "Hill fire"; d.Type = "wildfire" })
	v := seedVolunteer(t, s, "lifecycle@example.org")

	_, err := s.AssignVolunteer(ctx, 999, d.ID, "medic", time.Now())
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.AssignVolunteer(ctx, v.ID, 999, "medic", time.Now())
	assert.ErrorIs(t, err, ErrNotFound)

	first, err := s.AssignVolunteer(ctx, v.ID, d.ID, "medic", time.Now())
	require.NoError(t, err)
	assert.Equal(t, model.AssignmentActive, first.Status)

	_, err = s.AssignVolunteer(ctx, v.ID, other.ID, "driver", time.Now())
	assert.ErrorIs(t, err, ErrConflict, "a second disaster is still a second active assignment")

	_, err = s.EndAssignment(ctx, first.ID, "paused", time.Now())
	assert.ErrorIs(t, err, ErrInvalid)

	ended, err := s.EndAssignment(ctx, first.ID, model.AssignmentCompleted, time.Now())
	require.NoError(t, err)
	assert.Equal(t, model.AssignmentCompleted, ended.Status)
	assert.NotNil(t, ended.EndedAt)

	_, err = s.EndAssignment(ctx, first.ID, model.AssignmentCancelled, time.Now())
	assert.ErrorIs(t, err, ErrConflict)

	got, err := s.GetVolunteer(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, model.VolunteerAvailable, got.Availability)

	second, err := s.AssignVolunteer(ctx, v.ID, other.ID, "driver", time.Now())
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	history, err := s.ListAssignments(ctx, AssignmentFilter{VolunteerID: &v.ID})
	require.NoError(t, err)
	assert.Len(t, history, 2)
	require.NotNil(t, history[0].Volunteer)
	assert.Equal(t, v.Email, history[0].Volunteer.Email)
}

func TestAssignVolunteer_Refusals(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()
	resolved := seedDisaster(t, s, func(d *model.Disaster) { d.Status = model.DisasterResolved })
	open := seedDisaster(t, s)

	v := seedVolunteer(t, s, "resting@example.org")
	v.Availability = model.VolunteerUnavailable
	require.NoError(t, s.UpdateVolunteer(ctx, v))

	_, err := s.AssignVolunteer(ctx, v.ID, open.ID, "cook", time.Now())
	assert.ErrorIs(t, err, ErrConflict)

	w := seedVolunteer(t, s, "keen@example.org")
	_, err = s.AssignVolunteer(ctx, w.ID, resolved.ID, "cook", time.Now())
	assert.ErrorIs(t, err, ErrConflict)

	_, err = s.AssignVolunteer(ctx, w.ID, open.ID, "cook", time.Now())
	require.NoError(t, err)

	w.Availability = model.VolunteerUnavailable
	assert.ErrorIs(t, s.UpdateVolunteer(ctx, w), ErrConflict)
	assert.ErrorIs(t, s.DeleteVolunteer(ctx, w.ID), ErrConflict)
}

func TestCreateVolunteer_DuplicateEmail(t *testing.T) {
	s := newSQLiteStore(t)
	seedVolunteer(t, s, "twice@example.org")
	err := s.CreateVolunteer(context.Background(), &model.Volunteer{Name: "Again", Email: "twice@example.org"})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestAdjustShelterOccupancy(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	sh := &model.Shelter{Name: "School gym", Capacity: 10, CurrentOccupancy: 8}
	require.NoError(t, s.CreateShelter(ctx, sh))
	assert.Equal(t, model.ShelterOpen, sh.Status)

	got, err := s.AdjustShelterOccupancy(ctx, sh.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 10, got.CurrentOccupancy)
	assert.Equal(t, model.ShelterFull, got.Status)

	_, err = s.AdjustShelterOccupancy(ctx, sh.ID, 1)
	assert.ErrorIs(t, err, ErrInsufficient)

	got, err = s.AdjustShelterOccupancy(ctx, sh.ID, -4)
	require.NoError(t, err)
	assert.Equal(t, 6, got.CurrentOccupancy)
	assert.Equal(t, model.ShelterOpen, got.Status)

	_, err = s.AdjustShelterOccupancy(ctx, sh.ID, -7)
	assert.ErrorIs(t, err, ErrInsufficient)

	_, err = s.AdjustShelterOccupancy(ctx, sh.ID, 0)
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = s.AdjustShelterOccupancy(ctx, 404, 1)
	assert.ErrorIs(t, err, ErrNotFound)

	got.Status = model.ShelterClosed
	require.NoError(t, s.UpdateShelter(ctx, got))
	_, err = s.AdjustShelterOccupancy(ctx, sh.ID, 1)
	assert.ErrorIs(t, err, ErrConflict)

	got, err = s.AdjustShelterOccupancy(ctx, sh.ID, -6)
	require.NoError(t, err)
	assert.Equal(t, 0, got.CurrentOccupancy)
	assert.Equal(t, model.ShelterClosed, got.Status)
}

func TestAdjustShelterOccupancy_ConcurrentCheckIns(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()
	sh := &model.Shelter{Name: "Church hall", Capacity: 5}
	require.NoError(t, s.CreateShelter(ctx, sh))

	var wg sync.WaitGroup
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.AdjustShelterOccupancy(ctx, sh.ID, 1)
		}()
	}
	wg.Wait()

	got, err := s.GetShelter(ctx, sh.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.CurrentOccupancy)
	assert.Equal(t, model.ShelterFull, got.Status)
}

func TestAllocateSupply(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()
	d := seedDisaster(t, s)

	sup := &model.ReliefSupply{DisasterID: &d.ID, Name: "Water", Category: model.CategoryWater, Quantity: 100, Unit: "L", ReorderLevel: 20}
	require.NoError(t, s.CreateSupply(ctx, sup))

	got, err := s.AllocateSupply(ctx, sup.ID, 85)
	require.NoError(t, err)
	assert.Equal(t, 15, got.Quantity)
	assert.True(t, got.LowStock())

	_, err = s.AllocateSupply(ctx, sup.ID, 16)
	assert.ErrorIs(t, err, ErrInsufficient)

	_, err = s.AllocateSupply(ctx, sup.ID, -1)
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = s.AllocateSupply(ctx, 999, 1)
	assert.ErrorIs(t, err, ErrNotFound)

	low, err := s.ListSupplies(ctx, SupplyFilter{LowStock: true})
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, sup.ID, low[0].ID)

	missing := int64(404)
	err = s.CreateSupply(ctx, &model.ReliefSupply{ShelterID: &missing, Name: "Cots", Category: model.CategoryShelter})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestActivateAgenciesForTier(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()
	d := seedDisaster(t, s)

	local := &model.Agency{Name: "County EMS", Type: "local", ActivationTier: 2}
	state := &model.Agency{Name: "State Guard", Type: "state", ActivationTier: 3}
	federal := &model.Agency{Name: "Federal Relief", Type: "federal", ActivationTier: 4}
	for _, a := range []*model.Agency{local, state, federal} {
		require.NoError(t, s.CreateAgency(ctx, a))
	}

	created, err := s.ActivateAgenciesForTier(ctx, d.ID, 2, time.Now())
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, local.ID, created[0].AgencyID)

	created, err = s.ActivateAgenciesForTier(ctx, d.ID, 3, time.Now())
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, state.ID, created[0].AgencyID)
	assert.Equal(t, 3, created[0].Tier)

	created, err = s.ActivateAgenciesForTier(ctx, d.ID, 3, time.Now())
	require.NoError(t, err)
	assert.Empty(t, created)

	all, err := s.ListActivations(ctx, ActivationFilter{DisasterID: &d.ID})
	require.NoError(t, err)
	assert.Len(t, all, 2)
	for _, a := range all {
		require.NotNil(t, a.Agency)
		assert.NotEqual(t, federal.ID, a.AgencyID)
	}
}

func TestActivateAgency_ManualAndStandDown(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()
	d := seedDisaster(t, s, func(d *model.Disaster) { d.Tier = 2 })
	a := &model.Agency{Name: "Red Cross Chapter", Type: "ngo", ActivationTier: 4}
	require.NoError(t, s.CreateAgency(ctx, a))

	act, changed, err := s.ActivateAgency(ctx, a.ID, d.ID, time.Now())
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, model.ActivationActive, act.Status)
	assert.Equal(t, 2, act.Tier)

	again, changed, err := s.ActivateAgency(ctx, a.ID, d.ID, time.Now())
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, act.ID, again.ID)

	down, err := s.StandDownActivation(ctx, act.ID, time.Now())
	require.NoError(t, err)
	assert.Equal(t, model.ActivationStoodDown, down.Status)
	assert.NotNil(t, down.StoodDownAt)

	_, err = s.StandDownActivation(ctx, act.ID, time.Now())
	assert.ErrorIs(t, err, ErrConflict)

	created, err := s.ActivateAgenciesForTier(ctx, d.ID, 4, time.Now())
	require.NoError(t, err)
	assert.Empty(t, created, "stood-down agencies are not re-activated by escalation")

	reopened, changed, err := s.ActivateAgency(ctx, a.ID, d.ID, time.Now())
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, act.ID, reopened.ID)
	assert.Equal(t, model.ActivationActive, reopened.Status)
	assert.Nil(t, reopened.StoodDownAt)

	_, _, err = s.ActivateAgency(ctx, 999, d.ID, time.Now())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestActivateAgency_ConcurrentFirstActivations(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()
	d := seedDisaster(t, s)
	a := &model.Agency{Name: "Harbour Rescue", Type: "ngo", ActivationTier: 3}
	require.NoError(t, s.CreateAgency(ctx, a))

	const callers = 6
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
		ids     = map[int64]bool{}
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			act, changed, err := s.ActivateAgency(ctx, a.ID, d.ID, time.Now())
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			ids[act.ID] = true
			if changed {
				created++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Len(t, ids, 1)
}

func TestAgencyResources(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()
	a := &model.Agency{Name: "Water Board", Type: "utility", ActivationTier: 3}
	require.NoError(t, s.CreateAgency(ctx, a))

	r := &model.AgencyResource{AgencyID: a.ID, Name: "Tanker", Category: model.CategoryWater, Quantity: 8000, Unit: "L"}
	require.NoError(t, s.CreateAgencyResource(ctx, r))

	got, err := s.GetAgency(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, got.Resources, 1)

	assert.ErrorIs(t, s.DeleteAgencyResource(ctx, a.ID+1, r.ID), ErrNotFound)
	require.NoError(t, s.DeleteAgencyResource(ctx, a.ID, r.ID))

	list, err := s.ListAgencyResources(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = s.ListAgencyResources(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, s.CreateAgency(ctx, &model.Agency{Name: "Water Board", Type: "utility"}), ErrConflict)
}

func TestDeleteDisaster(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()
	d := seedDisaster(t, s)
	v := seedVolunteer(t, s, "stays@example.org")

	sh := &model.Shelter{DisasterID: &d.ID, Name: "Arena", Capacity: 100}
	require.NoError(t, s.CreateShelter(ctx, sh))
	rep := &model.UserReport{TrackingID: "trk-1", DisasterID: &d.ID, Category: "flooding", Description: "Road under water"}
	require.NoError(t, s.CreateReport(ctx, rep))

	assignment, err := s.AssignVolunteer(ctx, v.ID, d.ID, "logistics", time.Now())
	require.NoError(t, err)

	assert.ErrorIs(t, s.DeleteDisaster(ctx, d.ID), ErrConflict)

	_, err = s.EndAssignment(ctx, assignment.ID, model.AssignmentCompleted, time.Now())
	require.NoError(t, err)
	require.NoError(t, s.DeleteDisaster(ctx, d.ID))

	_, err = s.GetDisaster(ctx, d.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	gotShelter, err := s.GetShelter(ctx, sh.ID)
	require.NoError(t, err)
	assert.Nil(t, gotShelter.DisasterID)

	gotReport, err := s.GetReport(ctx, rep.ID)
	require.NoError(t, err)
	assert.Nil(t, gotReport.DisasterID)

	assert.ErrorIs(t, s.DeleteDisaster(ctx, d.ID), ErrNotFound)
}

func TestListDisasters_Filters(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()
	seedDisaster(t, s, func(d *model.Disaster) { d.Type = "flood"; d.Tier = 1 })
	seedDisaster(t, s, func(d *model.Disaster) { d.Type = "wildfire"; d.Tier = 3 })
	seedDisaster(t, s, func(d *model.Disaster) { d.Type = "flood"; d.Tier = 4; d.Status = model.DisasterResolved })

	floods, err := s.ListDisasters(ctx, DisasterFilter{Type: "flood"})
	require.NoError(t, err)
	assert.Len(t, floods, 2)

	severe, err := s.ListDisasters(ctx, DisasterFilter{MinTier: 3})
	require.NoError(t, err)
	assert.Len(t, severe, 2)

	active, err := s.ListDisasters(ctx, DisasterFilter{Status: model.DisasterActive, Page: Page{Limit: 1}})
	require.NoError(t, err)
	assert.Len(t, active, 1)

	open, err := s.ListOpenDisasters(ctx)
	require.NoError(t, err)
	assert.Len(t, open, 2)
}

func TestReviewReport(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()
	d := seedDisaster(t, s)

	r := &model.UserReport{TrackingID: "trk-review", Category: "infrastructure", Description: "Bridge cracked"}
	require.NoError(t, s.CreateReport(ctx, r))
	assert.Equal(t, model.ReportPending, r.Status)

	_, err := s.ReviewReport(ctx, r.ID, model.ReportResolved, "", nil)
	assert.ErrorIs(t, err, ErrConflict)

	missing := int64(999)
	_, err = s.ReviewReport(ctx, r.ID, model.ReportVerified, "", &missing)
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := s.ReviewReport(ctx, r.ID, model.ReportVerified, "confirmed by field team", &d.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReportVerified, got.Status)
	assert.Equal(t, d.ID, *got.DisasterID)

	got, err = s.ReviewReport(ctx, r.ID, model.ReportResolved, "", nil)
	require.NoError(t, err)
	assert.Equal(t, "confirmed by field team", got.ReviewNotes)

	tracked, err := s.GetReportByTrackingID(ctx, "trk-review")
	require.NoError(t, err)
	assert.Equal(t, model.ReportResolved, tracked.Status)

	_, err = s.GetReportByTrackingID(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSubscriptions(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()
	d1 := seedDisaster(t, s)
	d2 := seedDisaster(t, s, func(d *model.Disaster) { d.Name = "Quake" })

	mapped := &model.PushSubscription{Endpoint: "https://push.example/a", P256DH: "k", Auth: "a", CreatedAt: time.Now()}
	require.NoError(t, s.UpsertSubscription(ctx, mapped, []int64{d1.ID}))
	everything := &model.PushSubscription{Endpoint: "https://push.example/b", P256DH: "k", Auth: "a", AllDisasters: true, CreatedAt: time.Now()}
	require.NoError(t, s.UpsertSubscription(ctx, everything, nil))

	subs, err := s.SubscriptionsForDisaster(ctx, d1.ID)
	require.NoError(t, err)
	assert.Len(t, subs, 2)

	subs, err = s.SubscriptionsForDisaster(ctx, d2.ID)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, everything.Endpoint, subs[0].Endpoint)

	mapped.Auth = "rotated"
	require.NoError(t, s.UpsertSubscription(ctx, mapped, []int64{d2.ID}))
	got, err := s.GetSubscription(ctx, mapped.Endpoint)
	require.NoError(t, err)
	assert.Equal(t, "rotated", got.Auth)
	require.Len(t, got.Disasters, 1)
	assert.Equal(t, d2.ID, got.Disasters[0].ID)

	err = s.UpsertSubscription(ctx, mapped, []int64{404})
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.DeleteSubscription(ctx, mapped.Endpoint))
	_, err = s.GetSubscription(ctx, mapped.Endpoint)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocations(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveLocations(ctx, "springfield", []model.Location{
		{Name: "Springfield, IL", Latitude: 39.78, Longitude: -89.65, Source: "nominatim"},
		{Name: "Springfield, MA", Latitude: 42.10, Longitude: -72.59, Source: "nominatim"},
	}))

	got, err := s.FindLocations(ctx, "springfield")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Springfield, IL", got[0].Name)

	got, err = s.FindLocations(ctx, "shelbyville")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestResourceSnapshot(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()
	d := seedDisaster(t, s)
	other := seedDisaster(t, s, func(d *model.Disaster) { d.Name = "Elsewhere" })

	sh := &model.Shelter{DisasterID: &d.ID, Name: "Hall", Capacity: 50, CurrentOccupancy: 20}
	require.NoError(t, s.CreateShelter(ctx, sh))
	require.NoError(t, s.CreateSupply(ctx, &model.ReliefSupply{DisasterID: &d.ID, Name: "Water", Category: model.CategoryWater, Quantity: 100}))
	require.NoError(t, s.CreateSupply(ctx, &model.ReliefSupply{ShelterID: &sh.ID, Name: "Food", Category: model.CategoryFood, Quantity: 40}))
	require.NoError(t, s.CreateSupply(ctx, &model.ReliefSupply{DisasterID: &other.ID, Name: "Other water", Category: model.CategoryWater, Quantity: 999}))

	active := &model.Agency{Name: "Active Co", Type: "ngo", ActivationTier: 2}
	idle := &model.Agency{Name: "Idle Co", Type: "ngo", ActivationTier: 4}
	require.NoError(t, s.CreateAgency(ctx, active))
	require.NoError(t, s.CreateAgency(ctx, idle))
	require.NoError(t, s.CreateAgencyResource(ctx, &model.AgencyResource{AgencyID: active.ID, Name: "Tanker", Category: model.CategoryWater, Quantity: 500}))
	require.NoError(t, s.CreateAgencyResource(ctx, &model.AgencyResource{AgencyID: idle.ID, Name: "Tanker", Category: model.CategoryWater, Quantity: 700}))
	_, err := s.ActivateAgenciesForTier(ctx, d.ID, 2, time.Now())
	require.NoError(t, err)

	v := seedVolunteer(t, s, "snap@example.org")
	_, err = s.AssignVolunteer(ctx, v.ID, d.ID, "runner", time.Now())
	require.NoError(t, err)

	snap, err := s.ResourceSnapshot(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, d.ID, snap.Disaster.ID)
	assert.Len(t, snap.Shelters, 1)
	assert.Len(t, snap.Supplies, 2)
	require.Len(t, snap.AgencyResources, 1)
	assert.Equal(t, 500, snap.AgencyResources[0].Quantity)
	assert.Equal(t, int64(1), snap.ActiveVolunteers)

	_, err = s.ResourceSnapshot(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGormStore_AllocateSupply_Insufficient(t *testing.T) {
	gormDB, mock := newTestDB(t)
	s := NewGormStore(gormDB)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "relief_supplies" SET "quantity"=quantity - $1`)).
		WithArgs(10, Any{}, 7, 10).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "relief_supplies" WHERE "relief_supplies"."id" = $1`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "category", "quantity", "unit"}).
			AddRow(7, "Water", "water", 4, "L"))
	mock.ExpectRollback()

	_, err := s.AllocateSupply(context.Background(), 7, 10)
	assert.ErrorIs(t, err, ErrInsufficient)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_SetDisasterTier_NotFound(t *testing.T) {
	gormDB, mock := newTestDB(t)
	s := NewGormStore(gormDB)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "disasters" SET "tier"=$1`)).
		WithArgs(3, Any{}, 42).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := s.SetDisasterTier(context.Background(), 42, 3)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_SubscriptionsForDisaster(t *testing.T) {
	gormDB, mock := newTestDB(t)
	s := NewGormStore(gormDB)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "push_subscriptions" WHERE all_disasters = $1 OR endpoint IN (SELECT push_subscription_endpoint FROM "subscription_disaster_mapping" WHERE disaster_id = $2)`)).
		WithArgs(true, 5).
		WillReturnRows(sqlmock.NewRows([]string{"endpoint", "p256dh", "auth", "all_disasters"}).
			AddRow("https://push.example/x", "k", "a", true))

	subs, err := s.SubscriptionsForDisaster(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.True(t, subs[0].AllDisasters)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignVolunteer_UniqueActiveIndex(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()
	d := seedDisaster(t, s)
	v := seedVolunteer(t, s, "racer@example.org")

	// A row holding the active slot that the status count does not see, as left
	// by a transaction that committed between the count and the insert.
	held := v.ID
	require.NoError(t, s.DB().Create(&model.VolunteerAssignment{
		VolunteerID:       v.ID,
		DisasterID:        d.ID,
		Role:              "medic",
		Status:            model.AssignmentCompleted,
		ActiveVolunteerID: &held,
		AssignedAt:        time.Now(),
	}).Error)

	_, err := s.AssignVolunteer(ctx, v.ID, d.ID, "runner", time.Now())
	assert.ErrorIs(t, err, ErrConflict)

	got, err := s.GetVolunteer(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, model.VolunteerAvailable, got.Availability)
}

func TestGormStore_AssignVolunteer_LocksVolunteerRow(t *testing.T) {
	gormDB, mock := newTestDB(t)
	s := NewGormStore(gormDB)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "volunteers" WHERE "volunteers"\."id" = \$1 .*FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "availability"}).
			AddRow(7, "Kai", "kai@example.org", model.VolunteerAvailable))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "disasters" WHERE "disasters"."id" = $1`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, err := s.AssignVolunteer(context.Background(), 7, 3, "runner", time.Now())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateDisaster_KeepsStoredTier(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()
	d := seedDisaster(t, s)

	stale, err := s.GetDisaster(ctx, d.ID)
	require.NoError(t, err)
	require.NoError(t, s.SetDisasterTier(ctx, d.ID, 4))

	stale.Casualties = 12
	require.NoError(t, s.UpdateDisaster(ctx, stale))

	got, err := s.GetDisaster(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Tier)
	assert.Equal(t, 12, got.Casualties)
}

func TestRaiseDisasterTier(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()
	d := seedDisaster(t, s)

	raised, err := s.RaiseDisasterTier(ctx, d.ID, 3)
	require.NoError(t, err)
	assert.True(t, raised)

	raised, err = s.RaiseDisasterTier(ctx, d.ID, 2)
	require.NoError(t, err)
	assert.False(t, raised)
	raised, err = s.RaiseDisasterTier(ctx, d.ID, 3)
	require.NoError(t, err)
	assert.False(t, raised)

	got, err := s.GetDisaster(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Tier)
}

// Any is a helper for sqlmock to match any argument.
type Any struct{}

// Match satisfies the sqlmock.Argument interface
func (a Any) Match(v driver.Value) bool {
	return true
}
