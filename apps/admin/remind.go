package main

import (
	"fmt"
	"net/mail"

	"github.com/lusambya/kazi/core"
)

// remind emails every active staff member about deadlines falling due within
// the horizon. Intended to run from a daily cron entry.
func (cli *commandLine) remind(days int) error {
	if days <= 0 {
		days = core.Conf.DeadlineReminderDays
	}

	active, err := cli.periodSvc.GetActivePeriod()
	if err != nil {
		return err
	}
	upcoming, err := cli.deadlineSvc.Upcoming(active.ID, days)
	if err != nil {
		return err
	}
	if len(upcoming) == 0 {
		logger.Println("no upcoming deadlines")
		return nil
	}

	members, err := cli.staffSvc.QueryAll()
	if err != nil {
		return err
	}
	recipients := make([]mail.Address, 0, len(members))
	for _, m := range members {
		if m.IsActive {
			recipients = append(recipients, mail.Address{Name: m.Name, Address: m.Email})
		}
	}

	body := fmt.Sprintf("The following deadlines fall due within %d days:\n", days)
	for _, d := range upcoming {
		body += fmt.Sprintf("\n- %s (%s): %s", d.Name, d.Category, d.DueDate.Format("2006-01-02"))
	}
	cli.mailSvc.SendMessages(&core.EmailMessage{
		To:      recipients,
		Subject: "Upcoming deadlines",
		Body:    body,
	})
	logger.Printf("reminded %d staff members about %d deadlines", len(recipients), len(upcoming))
	return nil
}
