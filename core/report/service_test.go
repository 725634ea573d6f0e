package report_test

import (
	"log"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lusambya/kazi/core"
	"github.com/lusambya/kazi/core/activity"
	"github.com/lusambya/kazi/core/deadline"
	"github.com/lusambya/kazi/core/report"
	"github.com/lusambya/kazi/core/staff"
	"github.com/lusambya/kazi/services/notification"
	"github.com/lusambya/kazi/storage/database/inmem"
	"github.com/lusambya/kazi/tests"
)

func TestMain(m *testing.M) {
	core.LoadConfig()
	os.Exit(m.Run())
}

func dayOffset(days int) time.Time {
	return time.Now().UTC().AddDate(0, 0, days)
}

type fixture struct {
	repo       report.Repository
	actRepo    activity.Repository
	svc        report.Service
	activities activity.Service
	logger     core.Logger
	notifier   *notification.RecorderNotifier

	owner    staff.Staff
	reviewer staff.Staff
	admin    staff.Staff
	periodID int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := inmemdb.Open()
	require.NoError(t, err)

	f := &fixture{
		repo:     inmemdb.NewReportRepository(db),
		actRepo:  inmemdb.NewActivityRepository(db),
		notifier: &notification.RecorderNotifier{},
	}
	f.logger = core.StdLogger{Std: log.New(os.Stdout, "TEST : ", log.LstdFlags)}
	deadlineSvc := deadline.NewService(inmemdb.NewDeadlineRepository(db), f.notifier, f.logger)
	f.activities = activity.NewService(f.actRepo, deadlineSvc)
	f.svc = report.NewService(f.repo, f.activities, f.notifier, f.logger)

	staffRepo := inmemdb.NewStaffRepository(db)
	f.owner = testutil.CreateStaff(t, staffRepo, "Ayo", "ayo@kazi.test", "", staff.RoleTeacher, true)
	f.reviewer = testutil.CreateStaff(t, staffRepo, "Bintou", "bintou@kazi.test", "", staff.RoleCoordinator, true)
	f.admin = testutil.CreateStaff(t, staffRepo, "Chiku", "chiku@kazi.test", "", staff.RoleAdministrator, true)
	f.periodID = testutil.CreatePeriod(t, inmemdb.NewPeriodRepository(db), "2026-S1",
		dayOffset(-30), dayOffset(120), true).ID
	return f
}

func (f *fixture) newDraft(t *testing.T) report.Report {
	t.Helper()
	a := testutil.CreateActivity(t, f.actRepo, f.owner.ID, f.periodID, "Intro lectures", activity.CategoryTeaching)
	r, err := f.svc.Create(report.NewReport{
		PeriodID:   f.periodID,
		Title:      "Semester plan",
		Type:       report.TypePlanned,
		Activities: []report.ActivityRef{{ActivityID: a.ID, Position: 1}},
	}, f.owner.ID)
	require.NoError(t, err)
	return r
}

func (f *fixture) apply(t *testing.T, r report.Report, event report.Event, actor staff.Staff, comment ...string) report.Report {
	t.Helper()
	req := report.TransitionRequest{Event: event}
	if len(comment) > 0 {
		req.Comment = comment[0]
	}
	res, err := f.svc.ApplyTransition(r.ID, req, actor.ID, actor.Role)
	require.NoError(t, err)
	return res.Report
}

func TestCreateStartsInDraft(t *testing.T) {
	f := newFixture(t)
	r := f.newDraft(t)

	assert.Equal(t, report.StateDraft, r.State)
	assert.Equal(t, 1, r.Version)
	assert.Len(t, r.Activities, 1)
}

func TestCreateRejectsForeignActivity(t *testing.T) {
	f := newFixture(t)
	a := testutil.CreateActivity(t, f.actRepo, f.reviewer.ID, f.periodID, "Not yours", activity.CategoryResearch)

	_, err := f.svc.Create(report.NewReport{
		PeriodID:   f.periodID,
		Title:      "Semester plan",
		Type:       report.TypePlanned,
		Activities: []report.ActivityRef{{ActivityID: a.ID}},
	}, f.owner.ID)
	var vErr *core.ValidationError
	require.ErrorAs(t, err, &vErr)
}

func TestSubmitHappyPath(t *testing.T) {
	f := newFixture(t)
	r := f.newDraft(t)

	res, err := f.svc.ApplyTransition(r.ID, report.TransitionRequest{Event: report.EventSubmit}, f.owner.ID, f.owner.Role)
	require.NoError(t, err)

	assert.Equal(t, report.StateSubmitted, res.Report.State)
	assert.True(t, res.Report.SubmittedAt.Valid)
	assert.Empty(t, res.Warnings)

	trail, err := f.svc.AuditTrail(r.ID)
	require.NoError(t, err)
	require.Len(t, trail, 1)
	assert.Equal(t, report.StateDraft, trail[0].FromState)
	assert.Equal(t, report.StateSubmitted, trail[0].ToState)
	assert.Equal(t, f.owner.ID, trail[0].ActorID)

	events := f.notifier.Published()
	require.Len(t, events, 1)
	assert.Equal(t, core.EventReportStateChanged, events[0].Name)
}

func TestSubmitRequiresActivities(t *testing.T) {
	f := newFixture(t)
	r, err := f.svc.Create(report.NewReport{
		PeriodID: f.periodID,
		Title:    "Empty plan",
		Type:     report.TypePlanned,
	}, f.owner.ID)
	require.NoError(t, err)

	_, err = f.svc.ApplyTransition(r.ID, report.TransitionRequest{Event: report.EventSubmit}, f.owner.ID, f.owner.Role)
	assert.True(t, core.IsGuardFailed(err), "want GuardFailedError, got %v", err)

	got, err := f.svc.GetByID(r.ID)
	require.NoError(t, err)
	assert.Equal(t, report.StateDraft, got.State, "state must not change on a failed guard")
}

func TestSubmitByNonOwnerForbidden(t *testing.T) {
	f := newFixture(t)
	r := f.newDraft(t)

	_, err := f.svc.ApplyTransition(r.ID, report.TransitionRequest{Event: report.EventSubmit}, f.reviewer.ID, f.reviewer.Role)
	assert.True(t, core.IsForbidden(err), "want ForbiddenError, got %v", err)
}

func TestReviewCycle(t *testing.T) {
	f := newFixture(t)
	r := f.newDraft(t)
	r = f.apply(t, r, report.EventSubmit, f.owner)
	r = f.apply(t, r, report.EventBeginReview, f.reviewer)
	assert.Equal(t, report.StateInReview, r.State)

	// a return without a comment fails its guard
	_, err := f.svc.ApplyTransition(r.ID, report.TransitionRequest{Event: report.EventReturn}, f.reviewer.ID, f.reviewer.Role)
	assert.True(t, core.IsGuardFailed(err), "want GuardFailedError, got %v", err)

	r = f.apply(t, r, report.EventReturn, f.reviewer, "needs a budget breakdown")
	assert.Equal(t, report.StateReturned, r.State)
	assert.Equal(t, "needs a budget breakdown", r.ReviewComments.String)
	assert.True(t, r.ReviewedAt.Valid)

	// the owner may edit and resubmit; the loop can repeat
	r = f.apply(t, r, report.EventReviseSubmit, f.owner)
	assert.Equal(t, report.StateSubmitted, r.State)

	r = f.apply(t, r, report.EventApprove, f.reviewer)
	assert.Equal(t, report.StateApproved, r.State)

	trail, err := f.svc.AuditTrail(r.ID)
	require.NoError(t, err)
	assert.Len(t, trail, 5)
}

func TestTeacherCannotReview(t *testing.T) {
	f := newFixture(t)
	r := f.newDraft(t)
	r = f.apply(t, r, report.EventSubmit, f.owner)

	_, err := f.svc.ApplyTransition(r.ID, report.TransitionRequest{Event: report.EventApprove}, f.owner.ID, f.owner.Role)
	assert.True(t, core.IsForbidden(err), "want ForbiddenError, got %v", err)
}

func TestApprovedIsLocked(t *testing.T) {
	f := newFixture(t)
	r := f.newDraft(t)
	r = f.apply(t, r, report.EventSubmit, f.owner)
	r = f.apply(t, r, report.EventApprove, f.reviewer)
	require.Equal(t, report.StateApproved, r.State)

	// the transition table is consulted before the policy: a nonsensical
	// event on APPROVED is an invalid transition, not a permission problem
	_, err := f.svc.ApplyTransition(r.ID, report.TransitionRequest{Event: report.EventApprove}, f.reviewer.ID, f.reviewer.Role)
	assert.True(t, core.IsInvalidTransition(err), "want InvalidTransitionError, got %v", err)

	// content edits are refused too
	_, err = f.svc.Update(r.ID, report.UpdateReport{Title: "sneaky edit"}, f.owner.ID)
	assert.True(t, core.IsGuardFailed(err), "want GuardFailedError, got %v", err)

	// a coordinator lacks the reset capability
	_, err = f.svc.ApplyTransition(r.ID, report.TransitionRequest{Event: report.EventAdministrativeReset}, f.reviewer.ID, f.reviewer.Role)
	assert.True(t, core.IsForbidden(err), "want ForbiddenError, got %v", err)
}

func TestAdministrativeReset(t *testing.T) {
	f := newFixture(t)
	r := f.newDraft(t)
	r = f.apply(t, r, report.EventSubmit, f.owner)
	r = f.apply(t, r, report.EventApprove, f.reviewer)

	res, err := f.svc.ApplyTransition(r.ID, report.TransitionRequest{
		Event:   report.EventAdministrativeReset,
		Comment: "approved by mistake",
		ResetTo: report.StateInReview,
	}, f.admin.ID, f.admin.Role)
	require.NoError(t, err)
	assert.Equal(t, report.StateInReview, res.Report.State)

	trail, err := f.svc.AuditTrail(r.ID)
	require.NoError(t, err)
	last := trail[len(trail)-1]
	assert.Equal(t, report.StateApproved, last.FromState)
	assert.Equal(t, report.StateInReview, last.ToState)
	assert.Equal(t, f.admin.ID, last.ActorID)
	assert.Equal(t, "approved by mistake", last.Comment.String)
}

func TestFailedNotificationIsAWarning(t *testing.T) {
	f := newFixture(t)
	r := f.newDraft(t)
	f.notifier.FailWith = errors.New("outbox unavailable")

	res, err := f.svc.ApplyTransition(r.ID, report.TransitionRequest{Event: report.EventSubmit}, f.owner.ID, f.owner.Role)
	require.NoError(t, err, "a failed notification must not fail the transition")
	assert.Equal(t, report.StateSubmitted, res.Report.State)
	assert.Len(t, res.Warnings, 1)
}

func TestConcurrentUpdateLosesRace(t *testing.T) {
	f := newFixture(t)
	r := f.newDraft(t)

	// both writers hold the same version; exactly one CAS must win
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			stale := r
			stale.Title = "writer " + string(rune('A'+i))
			_, errs[i] = f.repo.UpdateReport(stale)
		}(i)
	}
	wg.Wait()

	var conflicts int
	for _, err := range errs {
		if err != nil {
			assert.True(t, core.IsConcurrentModification(err), "unexpected error: %v", err)
			conflicts++
		}
	}
	assert.Equal(t, 1, conflicts, "exactly one writer must lose the version race")
}

// staleReadRepository serves a fixed snapshot on reads, simulating an
// orchestrator that loaded the report before a competing write landed.
type staleReadRepository struct {
	report.Repository
	snapshot report.Report
}

func (r *staleReadRepository) GetReportByID(id int) (report.Report, error) {
	return r.snapshot, nil
}

func TestConcurrentTransitionLosesRace(t *testing.T) {
	f := newFixture(t)
	r := f.newDraft(t)

	// a second orchestrator still holds the pre-submit snapshot
	staleSvc := report.NewService(
		&staleReadRepository{Repository: f.repo, snapshot: r},
		f.activities, f.notifier, f.logger,
	)

	winner := f.apply(t, r, report.EventSubmit, f.owner)

	_, err := staleSvc.ApplyTransition(r.ID, report.TransitionRequest{Event: report.EventSubmit}, f.owner.ID, f.owner.Role)
	assert.True(t, core.IsConcurrentModification(err), "want ConcurrentModificationError, got %v", err)

	// the loser leaves the winner's write untouched
	got, err := f.svc.GetByID(r.ID)
	require.NoError(t, err)
	assert.Equal(t, report.StateSubmitted, got.State)
	assert.Equal(t, winner.Version, got.Version)

	trail, err := f.svc.AuditTrail(r.ID)
	require.NoError(t, err)
	assert.Len(t, trail, 1, "a lost race must not append an audit entry")
}

func TestRemoveAttachmentPreservesEarlierReads(t *testing.T) {
	f := newFixture(t)
	r := f.newDraft(t)

	r, err := f.svc.AddAttachment(r.ID, report.AttachmentRef{Ref: "a", Filename: "plan.pdf"}, f.owner.ID)
	require.NoError(t, err)
	r, err = f.svc.AddAttachment(r.ID, report.AttachmentRef{Ref: "b", Filename: "notes.pdf"}, f.owner.ID)
	require.NoError(t, err)

	snapshot, err := f.svc.GetByID(r.ID)
	require.NoError(t, err)
	require.Len(t, snapshot.Attachments, 2)

	updated, err := f.svc.RemoveAttachment(r.ID, "a", f.owner.ID)
	require.NoError(t, err)
	require.Len(t, updated.Attachments, 1)
	assert.Equal(t, "b", updated.Attachments[0].Ref)

	// the earlier read must not be rewritten by the removal
	assert.Equal(t, "a", snapshot.Attachments[0].Ref)
	assert.Equal(t, "b", snapshot.Attachments[1].Ref)

	got, err := f.svc.GetByID(r.ID)
	require.NoError(t, err)
	require.Len(t, got.Attachments, 1)
	assert.Equal(t, "b", got.Attachments[0].Ref)
}

func TestDeleteApprovedRefused(t *testing.T) {
	f := newFixture(t)
	r := f.newDraft(t)
	r = f.apply(t, r, report.EventSubmit, f.owner)
	r = f.apply(t, r, report.EventApprove, f.reviewer)

	err := f.svc.Delete(r.ID, f.owner.ID, f.owner.Role)
	assert.True(t, core.IsGuardFailed(err), "want GuardFailedError, got %v", err)
}
