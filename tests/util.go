package testutil

import (
	"testing"
	"time"

	"github.com/lusambya/kazi/core/activity"
	"github.com/lusambya/kazi/core/deadline"
	"github.com/lusambya/kazi/core/period"
	"github.com/lusambya/kazi/core/report"
	"github.com/lusambya/kazi/core/staff"
)

func CreateStaff(
	t *testing.T,
	repo staff.Repository,
	name, email, pwd string,
	role staff.Role,
	isActive bool,
) staff.Staff {
	t.Helper()
	now := time.Now().UTC()
	member := staff.Staff{
		Name:      name,
		Email:     email,
		Role:      role,
		IsActive:  isActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if pwd != "" {
		if err := member.SetPassword(pwd); err != nil {
			t.Fatalf("CreateStaff() failed: %v", err)
		}
	}
	member, err := repo.CreateStaff(member)
	if err != nil {
		t.Fatalf("CreateStaff() failed: %v", err)
	}
	return member
}

func CreatePeriod(t *testing.T, repo period.Repository, name string, start, end time.Time, isActive bool) period.AcademicPeriod {
	t.Helper()
	now := time.Now().UTC()
	p, err := repo.CreatePeriod(period.AcademicPeriod{
		Name:      name,
		StartDate: start,
		EndDate:   end,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreatePeriod() failed: %v", err)
	}
	if isActive {
		if p, err = repo.SetPeriodActive(p.ID, true); err != nil {
			t.Fatalf("CreatePeriod() failed: %v", err)
		}
	}
	return p
}

func CreateDeadline(
	t *testing.T,
	repo deadline.Repository,
	periodID int,
	name string,
	category deadline.Category,
	dueDate time.Time,
	isActive bool,
	createdAt ...time.Time,
) deadline.Deadline {
	t.Helper()
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	d, err := repo.CreateDeadline(deadline.Deadline{
		PeriodID:  periodID,
		Name:      name,
		Category:  category,
		DueDate:   dueDate,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	})
	if err != nil {
		t.Fatalf("CreateDeadline() failed: %v", err)
	}
	return d
}

func CreateActivity(
	t *testing.T,
	repo activity.Repository,
	ownerID, periodID int,
	title string,
	category activity.Category,
) activity.Activity {
	t.Helper()
	now := time.Now().UTC()
	a, err := repo.CreateActivity(activity.Activity{
		OwnerID:          ownerID,
		PeriodID:         periodID,
		Title:            title,
		Category:         category,
		StartDate:        now,
		EndDate:          now.AddDate(0, 1, 0),
		PlanningState:    activity.PlanningPending,
		RealizationState: activity.RealizationNotDone,
		Version:          1,
		CreatedAt:        now,
		UpdatedAt:        now,
	})
	if err != nil {
		t.Fatalf("CreateActivity() failed: %v", err)
	}
	return a
}

func CreateReport(
	t *testing.T,
	repo report.Repository,
	ownerID, periodID int,
	title string,
	state report.State,
	activities ...report.ActivityRef,
) report.Report {
	t.Helper()
	now := time.Now().UTC()
	r, err := repo.CreateReport(report.Report{
		OwnerID:    ownerID,
		PeriodID:   periodID,
		Title:      title,
		Type:       report.TypePlanned,
		State:      state,
		Activities: activities,
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		t.Fatalf("CreateReport() failed: %v", err)
	}
	return r
}
