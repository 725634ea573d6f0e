package notification_test

import (
	"log"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lusambya/kazi/core"
	"github.com/lusambya/kazi/core/deadline"
	"github.com/lusambya/kazi/core/report"
	"github.com/lusambya/kazi/core/staff"
	"github.com/lusambya/kazi/services/email"
	"github.com/lusambya/kazi/services/notification"
	"github.com/lusambya/kazi/storage/database/inmem"
	"github.com/lusambya/kazi/tests"
)

func TestMain(m *testing.M) {
	core.LoadConfig()
	os.Exit(m.Run())
}

func newDispatcher(t *testing.T) (*notification.Dispatcher, core.Notifier, notification.Repository, staff.Repository) {
	t.Helper()
	db, err := inmemdb.Open()
	require.NoError(t, err)

	outboxRepo := inmemdb.NewOutboxRepository(db)
	staffRepo := inmemdb.NewStaffRepository(db)
	staffSvc := staff.NewService(staffRepo)
	logger := core.StdLogger{Std: log.New(os.Stdout, "TEST : ", log.LstdFlags)}

	d := notification.NewDispatcher(
		outboxRepo,
		notification.NewComposer(staffSvc),
		emailsvc.NewConsoleServiceMock(),
		logger,
	)
	return d, notification.NewOutboxNotifier(outboxRepo), outboxRepo, staffRepo
}

func TestDispatchDeadlineChanged(t *testing.T) {
	emailsvc.ClearSentMessages()
	d, notifier, outboxRepo, staffRepo := newDispatcher(t)

	testutil.CreateStaff(t, staffRepo, "Ayo", "ayo@kazi.test", "", staff.RoleTeacher, true)
	testutil.CreateStaff(t, staffRepo, "Bintou", "bintou@kazi.test", "", staff.RoleCoordinator, true)
	testutil.CreateStaff(t, staffRepo, "Gone", "gone@kazi.test", "", staff.RoleTeacher, false)

	due := time.Now().UTC().AddDate(0, 0, 14)
	evt := core.NewEvent(core.EventDeadlineChanged, deadline.ChangedEvent{
		Deadline: deadline.Deadline{Name: "Registration cutoff", Category: deadline.CategoryRegistration, DueDate: due},
		Action:   "updated",
		Changes:  []deadline.FieldChange{{Field: "due_date", Old: "2026-03-15", New: due.Format("2006-01-02")}},
	})
	require.NoError(t, notifier.Publish(evt))

	require.NoError(t, d.DispatchPending())

	// deadline changes fan out to every active staff member
	require.Len(t, emailsvc.SentMessages, 1)
	assert.Len(t, emailsvc.SentMessages[0].To, 2)

	pending, err := outboxRepo.QueryPendingOutbox(10)
	require.NoError(t, err)
	assert.Empty(t, pending, "delivered entries leave the pending set")
}

func TestDispatchReportStateChanged(t *testing.T) {
	emailsvc.ClearSentMessages()
	d, notifier, _, staffRepo := newDispatcher(t)

	owner := testutil.CreateStaff(t, staffRepo, "Ayo", "ayo@kazi.test", "", staff.RoleTeacher, true)
	testutil.CreateStaff(t, staffRepo, "Bintou", "bintou@kazi.test", "", staff.RoleCoordinator, true)
	testutil.CreateStaff(t, staffRepo, "Chiku", "chiku@kazi.test", "", staff.RoleAdministrator, true)

	// a submission notifies the reviewers, not the owner
	evt := core.NewEvent(core.EventReportStateChanged, report.StateChangedEvent{
		Report:    report.Report{OwnerID: owner.ID, Title: "Semester plan", State: report.StateSubmitted},
		FromState: report.StateDraft,
		ToState:   report.StateSubmitted,
		ActorID:   owner.ID,
		ActorRole: owner.Role,
	})
	require.NoError(t, notifier.Publish(evt))
	require.NoError(t, d.DispatchPending())

	require.Len(t, emailsvc.SentMessages, 1)
	to := emailsvc.SentMessages[0].To
	require.Len(t, to, 2)
	for _, addr := range to {
		assert.NotEqual(t, owner.Email, addr.Address)
	}
}

func TestDispatchReturnNotifiesOwner(t *testing.T) {
	emailsvc.ClearSentMessages()
	d, notifier, _, staffRepo := newDispatcher(t)

	owner := testutil.CreateStaff(t, staffRepo, "Ayo", "ayo@kazi.test", "", staff.RoleTeacher, true)
	testutil.CreateStaff(t, staffRepo, "Bintou", "bintou@kazi.test", "", staff.RoleCoordinator, true)

	r := report.Report{OwnerID: owner.ID, Title: "Semester plan", State: report.StateReturned}
	r.ReviewComments.SetValid("needs a budget breakdown")
	evt := core.NewEvent(core.EventReportStateChanged, report.StateChangedEvent{
		Report:    r,
		FromState: report.StateInReview,
		ToState:   report.StateReturned,
	})
	require.NoError(t, notifier.Publish(evt))
	require.NoError(t, d.DispatchPending())

	require.Len(t, emailsvc.SentMessages, 1)
	msg := emailsvc.SentMessages[0]
	require.Len(t, msg.To, 1)
	assert.Equal(t, owner.Email, msg.To[0].Address)
	assert.Contains(t, msg.Body, "needs a budget breakdown")
}

func TestDispatchCountsFailedAttempts(t *testing.T) {
	emailsvc.ClearSentMessages()
	d, notifier, outboxRepo, _ := newDispatcher(t)

	// an unknown event name cannot be composed; it stays pending with an attempt
	require.NoError(t, notifier.Publish(core.NewEvent("bogus.event", nil)))
	require.NoError(t, d.DispatchPending())

	assert.Empty(t, emailsvc.SentMessages)
	pending, err := outboxRepo.QueryPendingOutbox(10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, 1, pending[0].Attempts)
}
