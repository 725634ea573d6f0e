package notification

import (
	"encoding/json"
	"fmt"
	"net/mail"

	"github.com/pkg/errors"

	"github.com/lusambya/kazi/core"
	"github.com/lusambya/kazi/core/deadline"
	"github.com/lusambya/kazi/core/report"
	"github.com/lusambya/kazi/core/staff"
)

// Composer turns outbox entries into emails for the affected users:
// deadline changes go to every active staff member, report submissions to
// the reviewers, and review outcomes to the report's owner.
type Composer struct {
	staffSvc staff.Service
}

func NewComposer(staffSvc staff.Service) *Composer {
	return &Composer{staffSvc: staffSvc}
}

func (c *Composer) Compose(entry OutboxEntry) ([]*core.EmailMessage, error) {
	switch entry.Name {
	case core.EventDeadlineChanged:
		var evt deadline.ChangedEvent
		if err := json.Unmarshal(entry.Payload, &evt); err != nil {
			return nil, errors.Wrap(err, "unmarshaling DeadlineChanged")
		}
		return c.composeDeadlineChanged(evt)
	case core.EventReportStateChanged:
		var evt report.StateChangedEvent
		if err := json.Unmarshal(entry.Payload, &evt); err != nil {
			return nil, errors.Wrap(err, "unmarshaling ReportStateChanged")
		}
		return c.composeReportStateChanged(evt)
	default:
		return nil, errors.Errorf("unknown event %q", entry.Name)
	}
}

func (c *Composer) composeDeadlineChanged(evt deadline.ChangedEvent) ([]*core.EmailMessage, error) {
	recipients, err := c.activeStaff(func(m staff.Staff) bool { return true })
	if err != nil {
		return nil, err
	}
	msg := &core.EmailMessage{
		To:      recipients,
		Subject: "A deadline has changed",
		Body: fmt.Sprintf("The following deadline was modified:\n\n%s\n\nDue date: %s",
			evt.Description(), evt.Deadline.DueDate.Format("2006-01-02")),
	}
	return []*core.EmailMessage{msg}, nil
}

func (c *Composer) composeReportStateChanged(evt report.StateChangedEvent) ([]*core.EmailMessage, error) {
	var recipients []mail.Address
	var err error

	switch evt.ToState {
	case report.StateSubmitted:
		// a (re)submission notifies the reviewers
		recipients, err = c.activeStaff(func(m staff.Staff) bool {
			return m.Role.Can(staff.CapReviewReports)
		})
	default:
		// review outcomes notify the owner
		var owner staff.Staff
		if owner, err = c.staffSvc.GetByID(evt.Report.OwnerID); err == nil {
			recipients = []mail.Address{{Name: owner.Name, Address: owner.Email}}
		}
	}
	if err != nil {
		return nil, err
	}

	body := fmt.Sprintf("Report %q moved from %s to %s.", evt.Report.Title, evt.FromState, evt.ToState)
	if evt.Report.ReviewComments.Valid && evt.ToState == report.StateReturned {
		body += "\n\nReviewer comment: " + evt.Report.ReviewComments.String
	}
	msg := &core.EmailMessage{
		To:      recipients,
		Subject: fmt.Sprintf("Report %q is now %s", evt.Report.Title, evt.ToState),
		Body:    body,
	}
	return []*core.EmailMessage{msg}, nil
}

func (c *Composer) activeStaff(keep func(staff.Staff) bool) ([]mail.Address, error) {
	all, err := c.staffSvc.QueryAll()
	if err != nil {
		return nil, err
	}
	recipients := make([]mail.Address, 0, len(all))
	for _, m := range all {
		if m.IsActive && keep(m) {
			recipients = append(recipients, mail.Address{Name: m.Name, Address: m.Email})
		}
	}
	return recipients, nil
}
