package donations

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/pawhaven-backend/internal/pets"
	"github.com/angelmondragon/pawhaven-backend/pkg/auth"
	"github.com/angelmondragon/pawhaven-backend/pkg/db/dbtest"
	"github.com/angelmondragon/pawhaven-backend/pkg/db/models"
	"github.com/angelmondragon/pawhaven-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/pawhaven-backend/pkg/errors"
	"github.com/angelmondragon/pawhaven-backend/pkg/logger"
	"github.com/angelmondragon/pawhaven-backend/pkg/outbox"
)

type stubStore struct {
	err     error
	copies  [][2]string
	deleted []string
}

func (s *stubStore) CopyObject(_ context.Context, src, dst string) error {
	if s.err != nil {
		return s.err
	}
	s.copies = append(s.copies, [2]string{src, dst})
	return nil
}

func (s *stubStore) DeleteObject(_ context.Context, key string) error {
	s.deleted = append(s.deleted, key)
	return nil
}

// failUpdates makes every UPDATE against table fail.
func failUpdates(t *testing.T, conn *gorm.DB, table string) {
	t.Helper()
	err := conn.Callback().Update().Before("gorm:update").Register("test:fail_"+table, func(db *gorm.DB) {
		if db.Statement.Table == table {
			_ = db.AddError(errors.New(table + " write refused"))
		}
	})
	require.NoError(t, err)
}

type stubMetrics struct {
	approved    int
	copyOK      int
	copyFailed  int
	transitions []string
}

func (m *stubMetrics) Transition(entity, from, to string) {
	m.transitions = append(m.transitions, entity+":"+from+"->"+to)
}

func (m *stubMetrics) DonationApproved() { m.approved++ }

func (m *stubMetrics) PhotoCopy(ok bool) {
	if ok {
		m.copyOK++
		return
	}
	m.copyFailed++
}

type fixture struct {
	svc      Service
	conn     *gorm.DB
	store    *stubStore
	metrics  *stubMetrics
	donor    auth.Actor
	reviewer auth.Actor
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	client, conn := dbtest.Client(t)
	store := &stubStore{}
	metrics := &stubMetrics{}
	events := outbox.NewService(outbox.NewRepository(conn), logger.Nop())
	svc, err := NewService(NewRepository(conn), pets.NewRepository(conn), client, events, Options{
		MaxPhotos: 3,
		PetPrefix: "pets",
		Store:     store,
		Metrics:   metrics,
		Logger:    logger.Nop(),
	})
	require.NoError(t, err)
	return fixture{
		svc:      svc,
		conn:     conn,
		store:    store,
		metrics:  metrics,
		donor:    auth.Actor{UserID: uuid.New(), Role: enums.UserRoleUser},
		reviewer: auth.Actor{UserID: uuid.New(), Role: enums.UserRoleStaff},
	}
}

func (f fixture) submit(t *testing.T, photos ...string) *DonationView {
	t.Helper()
	breed := "Tabby"
	view, err := f.svc.Create(context.Background(), f.donor, CreateInput{
		Name:        "Milo",
		Species:     "Cat",
		Breed:       &breed,
		AgeYears:    2,
		AgeMonths:   3,
		Description: `<p>Loves naps</p><script>alert(1)</script>`,
		Vaccinated:  true,
		PhotoKeys:   photos,
	})
	require.NoError(t, err)
	return view
}

func (f fixture) countEvents(t *testing.T, eventType enums.OutboxEventType) int64 {
	t.Helper()
	var count int64
	require.NoError(t, f.conn.Model(&models.OutboxEvent{}).Where("event_type = ?", eventType).Count(&count).Error)
	return count
}

func (f fixture) countPets(t *testing.T) int64 {
	t.Helper()
	var count int64
	require.NoError(t, f.conn.Model(&models.Pet{}).Count(&count).Error)
	return count
}

func TestCreateStoresPhotosAndQueuesEvent(t *testing.T) {
	f := newFixture(t)
	view := f.submit(t, "uploads/a.jpg", "uploads/b.jpg")

	assert.Equal(t, enums.DonationStatusSubmitted, view.Status)
	assert.Equal(t, f.donor.UserID, view.DonorID)
	assert.Equal(t, []string{"uploads/a.jpg", "uploads/b.jpg"}, view.PhotoKeys)
	assert.EqualValues(t, 1, f.countEvents(t, enums.EventDonationSubmitted))
}

func TestCreateValidatesInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.donor, CreateInput{Species: "Cat"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.Create(ctx, f.donor, CreateInput{Name: "Milo", Species: "Cat", PhotoKeys: []string{"a", "b", "c", "d"}})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.Create(ctx, auth.Actor{}, CreateInput{Name: "Milo", Species: "Cat"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestApproveWithoutPhotosCreatesAvailablePet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	donation := f.submit(t)

	res, err := f.svc.Approve(ctx, donation.ID, f.reviewer, nil)
	require.NoError(t, err)
	require.True(t, res.Created)

	var pet models.Pet
	require.NoError(t, f.conn.First(&pet, "id = ?", res.Pet.ID).Error)
	assert.Equal(t, enums.PetStatusAvailable, pet.Status)
	assert.Equal(t, f.donor.UserID, pet.CreatedBy)
	assert.Equal(t, "Milo", pet.Name)
	assert.Equal(t, "<p>Loves naps</p>", pet.Description)
	assert.Nil(t, pet.CoverKey)

	var stored models.Donation
	require.NoError(t, f.conn.First(&stored, "id = ?", donation.ID).Error)
	assert.Equal(t, enums.DonationStatusApproved, stored.Status)
	require.NotNil(t, stored.CreatedPetID)
	assert.Equal(t, pet.ID, *stored.CreatedPetID)
	require.NotNil(t, stored.ReviewerID)
	assert.Equal(t, f.reviewer.UserID, *stored.ReviewerID)

	assert.Empty(t, f.store.copies)
	assert.EqualValues(t, 1, f.countEvents(t, enums.EventDonationApproved))
	assert.EqualValues(t, 1, f.countEvents(t, enums.EventPetStatusChanged))
	assert.EqualValues(t, 1, f.countEvents(t, enums.EventPetCreated))
	assert.Equal(t, 1, f.metrics.approved)
}

func TestApproveTwiceReturnsSamePet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	donation := f.submit(t)

	first, err := f.svc.Approve(ctx, donation.ID, f.reviewer, nil)
	require.NoError(t, err)
	second, err := f.svc.Approve(ctx, donation.ID, f.reviewer, nil)
	require.NoError(t, err)

	assert.Equal(t, first.Pet.ID, second.Pet.ID)
	assert.False(t, second.Created)
	assert.EqualValues(t, 1, f.countPets(t))
	assert.EqualValues(t, 1, f.countEvents(t, enums.EventDonationApproved))
}

func TestApproveRejectedDonationFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	donation := f.submit(t)
	note := "not a fit"

	rejected, err := f.svc.Reject(ctx, donation.ID, f.reviewer, &note)
	require.NoError(t, err)
	assert.Equal(t, enums.DonationStatusRejected, rejected.Status)
	require.NotNil(t, rejected.ReviewNote)
	assert.Equal(t, note, *rejected.ReviewNote)

	_, err = f.svc.Approve(ctx, donation.ID, f.reviewer, nil)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
	assert.Zero(t, f.countPets(t))
}

func TestApproveCopiesFirstPhotoAsCover(t *testing.T) {
	f := newFixture(t)
	donation := f.submit(t, "uploads/first.jpg", "uploads/second.jpg")

	res, err := f.svc.Approve(context.Background(), donation.ID, f.reviewer, nil)
	require.NoError(t, err)

	want := "pets/" + res.Pet.ID.String() + "_first.jpg"
	require.Len(t, f.store.copies, 1)
	assert.Equal(t, [2]string{"uploads/first.jpg", want}, f.store.copies[0])
	require.NotNil(t, res.Pet.CoverKey)
	assert.Equal(t, want, *res.Pet.CoverKey)
	assert.Equal(t, 1, f.metrics.copyOK)
}

func TestApproveSwallowsPhotoCopyFailure(t *testing.T) {
	f := newFixture(t)
	f.store.err = errors.New("bucket unavailable")
	donation := f.submit(t, "uploads/first.jpg")

	res, err := f.svc.Approve(context.Background(), donation.ID, f.reviewer, nil)
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Nil(t, res.Pet.CoverKey)
	assert.Equal(t, 1, f.metrics.copyFailed)
}

func TestApproveSurvivesCoverWriteFailure(t *testing.T) {
	f := newFixture(t)
	donation := f.submit(t, "uploads/first.jpg")
	failUpdates(t, f.conn, "pets")

	res, err := f.svc.Approve(context.Background(), donation.ID, f.reviewer, nil)
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Nil(t, res.Pet.CoverKey)

	want := "pets/" + res.Pet.ID.String() + "_first.jpg"
	assert.Equal(t, []string{want}, f.store.deleted)

	var stored models.Donation
	require.NoError(t, f.conn.First(&stored, "id = ?", donation.ID).Error)
	assert.Equal(t, enums.DonationStatusApproved, stored.Status)
	require.NotNil(t, stored.CreatedPetID)
	assert.Equal(t, res.Pet.ID, *stored.CreatedPetID)
}

func TestApproveRollbackRemovesCopiedCover(t *testing.T) {
	f := newFixture(t)
	donation := f.submit(t, "uploads/first.jpg")
	failUpdates(t, f.conn, "donations")

	_, err := f.svc.Approve(context.Background(), donation.ID, f.reviewer, nil)
	require.Error(t, err)

	require.Len(t, f.store.copies, 1)
	assert.Equal(t, []string{f.store.copies[0][1]}, f.store.deleted)
	assert.Zero(t, f.countPets(t))
}

func TestApproveRequiresStaffAndShortNote(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	donation := f.submit(t)

	_, err := f.svc.Approve(ctx, donation.ID, f.donor, nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	note := strings.Repeat("x", MaxReviewNoteLength+1)
	_, err = f.svc.Approve(ctx, donation.ID, f.reviewer, &note)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.Approve(ctx, uuid.New(), f.reviewer, nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestReviewAndCloseTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	donation := f.submit(t)

	reviewing, err := f.svc.StartReview(ctx, donation.ID, f.reviewer)
	require.NoError(t, err)
	assert.Equal(t, enums.DonationStatusReviewing, reviewing.Status)

	_, err = f.svc.StartReview(ctx, donation.ID, f.reviewer)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	closed, err := f.svc.Close(ctx, donation.ID, f.donor)
	require.NoError(t, err)
	assert.Equal(t, enums.DonationStatusClosed, closed.Status)

	_, err = f.svc.Close(ctx, donation.ID, f.reviewer)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	_, err = f.svc.Approve(ctx, donation.ID, f.reviewer, nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	stranger := auth.Actor{UserID: uuid.New(), Role: enums.UserRoleUser}
	other := f.submit(t)
	_, err = f.svc.Close(ctx, other.ID, stranger)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	assert.EqualValues(t, 2, f.countEvents(t, enums.EventDonationStatusChanged))
}

func TestGetAndListScopeToDonor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mine := f.submit(t)

	other := auth.Actor{UserID: uuid.New(), Role: enums.UserRoleUser}
	_, err := f.svc.Create(ctx, other, CreateInput{Name: "Bo", Species: "Dog"})
	require.NoError(t, err)

	got, err := f.svc.Get(ctx, mine.ID, f.donor)
	require.NoError(t, err)
	assert.Equal(t, mine.ID, got.ID)

	_, err = f.svc.Get(ctx, mine.ID, other)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	own, err := f.svc.List(ctx, f.donor, ListParams{})
	require.NoError(t, err)
	require.Len(t, own.Items, 1)
	assert.Equal(t, mine.ID, own.Items[0].ID)

	all, err := f.svc.List(ctx, f.reviewer, ListParams{})
	require.NoError(t, err)
	assert.Len(t, all.Items, 2)
}

func TestBatchApproveAggregatesFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ok := f.submit(t)
	rejected := f.submit(t)
	_, err := f.svc.Reject(ctx, rejected.ID, f.reviewer, nil)
	require.NoError(t, err)

	res, err := f.svc.BatchApprove(ctx, []uuid.UUID{ok.ID, rejected.ID, uuid.New()}, f.reviewer)
	require.Error(t, err)
	assert.Equal(t, 1, res.Succeeded)
	assert.Equal(t, 2, res.Failed)
	assert.Len(t, multierr.Errors(err), 2)
	assert.EqualValues(t, 1, f.countPets(t))
}

func TestBatchApproveDedupesAndRecordsNote(t *testing.T) {
	f := newFixture(t)
	donation := f.submit(t)

	res, err := f.svc.BatchApprove(context.Background(), []uuid.UUID{donation.ID, donation.ID}, f.reviewer)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Succeeded)
	assert.Zero(t, res.Failed)
	assert.EqualValues(t, 1, f.countPets(t))

	var stored models.Donation
	require.NoError(t, f.conn.First(&stored, "id = ?", donation.ID).Error)
	require.NotNil(t, stored.ReviewNote)
	assert.Equal(t, BatchApproveNote, *stored.ReviewNote)
}

func TestBatchCloseSkipsClosed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.submit(t)
	b := f.submit(t)
	_, err := f.svc.Close(ctx, b.ID, f.reviewer)
	require.NoError(t, err)

	res, err := f.svc.BatchClose(ctx, []uuid.UUID{a.ID, b.ID}, f.reviewer)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Succeeded)
	assert.Equal(t, 1, res.Failed)

	var stored models.Donation
	require.NoError(t, f.conn.First(&stored, "id = ?", a.ID).Error)
	assert.Equal(t, enums.DonationStatusClosed, stored.Status)
}
