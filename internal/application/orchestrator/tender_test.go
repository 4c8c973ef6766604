package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ningi265/hrms-client-sub001/internal/domain/entity"
	domainwf "github.com/ningi265/hrms-client-sub001/internal/domain/workflow"
)

func TestTenderCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.tenders.Create(ctx, "proc-1", &entity.TenderPayload{
		Deadline: time.Now().Add(time.Hour),
	})
	assert.Error(t, err, "title is required")

	_, err = f.tenders.Create(ctx, "proc-1", &entity.TenderPayload{
		Title:    "Fuel supply framework",
		Deadline: time.Now().Add(-time.Hour),
	})
	assert.Error(t, err, "deadline must be in the future")
}

func TestSweepExpiredClosesOnlyLapsedTenders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	lapsed := f.entities.seed(domainwf.KindTender, domainwf.StateTenderOpen, &entity.TenderPayload{
		Title:    "Generator maintenance",
		Deadline: time.Now().Add(-time.Hour),
	})
	current := f.entities.seed(domainwf.KindTender, domainwf.StateTenderOpen, &entity.TenderPayload{
		Title:    "Cleaning services",
		Deadline: time.Now().Add(24 * time.Hour),
	})
	drafted := f.entities.seed(domainwf.KindTender, domainwf.StateTenderDraft, &entity.TenderPayload{
		Title:    "Security services",
		Deadline: time.Now().Add(-time.Hour),
	})

	closed, err := f.tenders.SweepExpired(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, closed)

	got, err := f.entities.GetByID(ctx, lapsed.ID)
	require.NoError(t, err)
	assert.Equal(t, domainwf.StateTenderClosed, got.State)

	got, err = f.entities.GetByID(ctx, current.ID)
	require.NoError(t, err)
	assert.Equal(t, domainwf.StateTenderOpen, got.State)

	got, err = f.entities.GetByID(ctx, drafted.ID)
	require.NoError(t, err)
	assert.Equal(t, domainwf.StateTenderDraft, got.State, "the sweep only looks at OPEN tenders")
}

func TestSweptTenderProceedsToAward(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	lapsed := f.entities.seed(domainwf.KindTender, domainwf.StateTenderOpen, &entity.TenderPayload{
		Title:    "Vehicle hire",
		Deadline: time.Now().Add(-time.Minute),
	})

	_, err := f.tenders.SweepExpired(ctx, time.Now())
	require.NoError(t, err)

	// Closed tenders can still go to review and award.
	_, err = f.tenders.StartReview(ctx, lapsed.ID, procurementOfficer)
	require.NoError(t, err)

	vendorID := f.approvedVendor(t)
	awarded, err := f.tenders.Award(ctx, lapsed.ID, procurementOfficer, vendorID)
	require.NoError(t, err)
	assert.Equal(t, domainwf.StateTenderAwarded, awarded.State)
}

func TestStartReviewOnLapsedOpenTender(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	lapsed := f.entities.seed(domainwf.KindTender, domainwf.StateTenderOpen, &entity.TenderPayload{
		Title:    "Borehole drilling",
		Deadline: time.Now().Add(-time.Hour),
	})

	// The deadline has passed but the sweep has not run yet: review must not
	// start straight from OPEN.
	_, err := f.tenders.StartReview(ctx, lapsed.ID, procurementOfficer)
	assert.ErrorIs(t, err, domainwf.ErrExpiredDeadline)
}

func TestManualCloseBeforeDeadlineBlocked(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tender, err := f.tenders.Create(ctx, "proc-1", &entity.TenderPayload{
		Title:    "Solar installation",
		Deadline: time.Now().Add(72 * time.Hour),
	})
	require.NoError(t, err)
	_, err = f.tenders.Open(ctx, tender.ID, procurementOfficer)
	require.NoError(t, err)

	_, err = f.tenders.Close(ctx, tender.ID, procurementOfficer)
	assert.ErrorIs(t, err, domainwf.ErrGuardFailed)
}
