package deadline_test

import (
	"log"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lusambya/kazi/core"
	"github.com/lusambya/kazi/core/deadline"
	"github.com/lusambya/kazi/core/staff"
	"github.com/lusambya/kazi/services/notification"
	"github.com/lusambya/kazi/storage/database/inmem"
	"github.com/lusambya/kazi/tests"
)

func TestMain(m *testing.M) {
	core.LoadConfig()
	os.Exit(m.Run())
}

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return d
}

func newFixture(t *testing.T) (deadline.Service, deadline.Repository, *notification.RecorderNotifier, int) {
	t.Helper()
	db, err := inmemdb.Open()
	require.NoError(t, err)

	repo := inmemdb.NewDeadlineRepository(db)
	notifier := &notification.RecorderNotifier{}
	logger := core.StdLogger{Std: log.New(os.Stdout, "TEST : ", log.LstdFlags)}
	svc := deadline.NewService(repo, notifier, logger)

	p := testutil.CreatePeriod(t, inmemdb.NewPeriodRepository(db), "2026-S1",
		day(t, "2026-02-01"), day(t, "2026-07-31"), true)
	return svc, repo, notifier, p.ID
}

func TestIsMutationWindowOpen(t *testing.T) {
	svc, repo, _, periodID := newFixture(t)
	due := day(t, "2026-03-15")
	testutil.CreateDeadline(t, repo, periodID, "Activity registration", deadline.CategoryRegistration, due, true)

	tests := []struct {
		name string
		asOf time.Time
		want bool
	}{
		{"well before the due date", day(t, "2026-03-01"), true},
		{"the day before", day(t, "2026-03-14"), true},
		{"the due date itself is inclusive", day(t, "2026-03-15"), true},
		{"late on the due date", due.Add(23 * time.Hour), true},
		{"the day after", day(t, "2026-03-16"), false},
		{"long after", day(t, "2026-06-01"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			open, err := svc.IsMutationWindowOpen(periodID, deadline.CategoryRegistration, tt.asOf)
			require.NoError(t, err)
			assert.Equal(t, tt.want, open)
		})
	}
}

func TestWindowOpenWithoutDeadline(t *testing.T) {
	svc, repo, _, periodID := newFixture(t)

	// no deadline at all: open
	open, err := svc.IsMutationWindowOpen(periodID, deadline.CategoryRegistration, day(t, "2026-06-01"))
	require.NoError(t, err)
	assert.True(t, open)

	// an inactive deadline does not close the window either
	testutil.CreateDeadline(t, repo, periodID, "Old cutoff", deadline.CategoryRegistration, day(t, "2026-03-01"), false)
	open, err = svc.IsMutationWindowOpen(periodID, deadline.CategoryRegistration, day(t, "2026-06-01"))
	require.NoError(t, err)
	assert.True(t, open)

	// a deadline of another category is ignored
	testutil.CreateDeadline(t, repo, periodID, "Submission cutoff", deadline.CategorySubmission, day(t, "2026-03-01"), true)
	open, err = svc.IsMutationWindowOpen(periodID, deadline.CategoryRegistration, day(t, "2026-06-01"))
	require.NoError(t, err)
	assert.True(t, open)
}

func TestAuthoritativePicksMostRecentlyCreated(t *testing.T) {
	svc, repo, _, periodID := newFixture(t)
	older := time.Now().UTC().Add(-2 * time.Hour)
	newer := time.Now().UTC().Add(-1 * time.Hour)

	testutil.CreateDeadline(t, repo, periodID, "First cutoff", deadline.CategoryRegistration, day(t, "2026-03-01"), true, older)
	want := testutil.CreateDeadline(t, repo, periodID, "Extended cutoff", deadline.CategoryRegistration, day(t, "2026-04-01"), true, newer)
	// inactive deadlines never win, no matter how recent
	testutil.CreateDeadline(t, repo, periodID, "Draft cutoff", deadline.CategoryRegistration, day(t, "2026-05-01"), false)

	got, err := svc.Authoritative(periodID, deadline.CategoryRegistration)
	require.NoError(t, err)
	assert.Equal(t, want.ID, got.ID)
}

func TestWritesRequireCapability(t *testing.T) {
	svc, _, _, periodID := newFixture(t)

	nd := deadline.NewDeadline{
		PeriodID: periodID,
		Name:     "Registration cutoff",
		Category: deadline.CategoryRegistration,
		DueDate:  day(t, "2026-03-15"),
	}
	_, err := svc.Create(nd, staff.RoleTeacher)
	assert.True(t, core.IsForbidden(err), "want ForbiddenError, got %v", err)
	_, err = svc.Create(nd, staff.RoleCoordinator)
	assert.True(t, core.IsForbidden(err), "want ForbiddenError, got %v", err)

	d, err := svc.Create(nd, staff.RoleAdministrator)
	require.NoError(t, err)
	assert.True(t, d.IsActive)
	assert.Equal(t, core.Conf.DeadlineReminderDays, d.ReminderDays)
}

func TestUpdateEmitsExactlyOneEvent(t *testing.T) {
	svc, _, notifier, periodID := newFixture(t)

	d, err := svc.Create(deadline.NewDeadline{
		PeriodID: periodID,
		Name:     "Registration cutoff",
		Category: deadline.CategoryRegistration,
		DueDate:  day(t, "2026-03-15"),
	}, staff.RoleAdministrator)
	require.NoError(t, err)
	require.Len(t, notifier.Published(), 1, "create emits one event")

	// one write touching two tracked fields still emits a single event
	newDue := day(t, "2026-04-01")
	_, err = svc.Update(d.ID, deadline.UpdateDeadline{Name: "Extended cutoff", DueDate: &newDue}, staff.RoleAdministrator)
	require.NoError(t, err)

	events := notifier.Published()
	require.Len(t, events, 2, "update emits exactly one more event")

	payload, ok := events[1].Payload.(deadline.ChangedEvent)
	require.True(t, ok)
	assert.Equal(t, "updated", payload.Action)
	require.Len(t, payload.Changes, 2)
	fields := []string{payload.Changes[0].Field, payload.Changes[1].Field}
	assert.ElementsMatch(t, []string{"due_date", "name"}, fields)
	for _, c := range payload.Changes {
		if c.Field == "due_date" {
			assert.Equal(t, "2026-03-15", c.Old)
			assert.Equal(t, "2026-04-01", c.New)
		}
	}
}

func TestNoopUpdateEmitsNothing(t *testing.T) {
	svc, _, notifier, periodID := newFixture(t)

	d, err := svc.Create(deadline.NewDeadline{
		PeriodID: periodID,
		Name:     "Registration cutoff",
		Category: deadline.CategoryRegistration,
		DueDate:  day(t, "2026-03-15"),
	}, staff.RoleAdministrator)
	require.NoError(t, err)

	_, err = svc.Update(d.ID, deadline.UpdateDeadline{Name: "Registration cutoff"}, staff.RoleAdministrator)
	require.NoError(t, err)
	assert.Len(t, notifier.Published(), 1, "an update that changes nothing stays silent")
}

func TestUpcoming(t *testing.T) {
	svc, repo, _, periodID := newFixture(t)
	now := time.Now().UTC()

	within := testutil.CreateDeadline(t, repo, periodID, "Soon", deadline.CategorySubmission, now.AddDate(0, 0, 3), true)
	testutil.CreateDeadline(t, repo, periodID, "Far", deadline.CategoryReview, now.AddDate(0, 0, 30), true)
	testutil.CreateDeadline(t, repo, periodID, "Past", deadline.CategoryRegistration, now.AddDate(0, 0, -3), true)
	testutil.CreateDeadline(t, repo, periodID, "Soon but inactive", deadline.CategoryEvaluation, now.AddDate(0, 0, 3), false)

	upcoming, err := svc.Upcoming(periodID, 7)
	require.NoError(t, err)
	require.Len(t, upcoming, 1)
	assert.Equal(t, within.ID, upcoming[0].ID)
}
