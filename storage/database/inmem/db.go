package inmemdb

import (
	"sync"

	"github.com/lusambya/kazi/core/activity"
	"github.com/lusambya/kazi/core/deadline"
	"github.com/lusambya/kazi/core/period"
	"github.com/lusambya/kazi/core/report"
	"github.com/lusambya/kazi/core/staff"
	"github.com/lusambya/kazi/services/notification"
)

// DB is an in-memory database used by tests and local development. Each
// table is guarded by its own RWMutex; sequences are per table.
type (
	DB struct {
		staff    *staffTable
		period   *periodTable
		deadline *deadlineTable
		activity *activityTable
		report   *reportTable
		outbox   *outboxTable
	}

	staffTable struct {
		t     map[int]*staff.Staff
		seq   int
		mutex sync.RWMutex
	}

	periodTable struct {
		t     map[int]*period.AcademicPeriod
		seq   int
		mutex sync.RWMutex
	}

	deadlineTable struct {
		t     map[int]*deadline.Deadline
		seq   int
		mutex sync.RWMutex
	}

	activityTable struct {
		t     map[int]*activity.Activity
		seq   int
		mutex sync.RWMutex
	}

	reportTable struct {
		t        map[int]*report.Report
		audit    []report.AuditEntry
		auditSeq int
		seq      int
		mutex    sync.RWMutex
	}

	outboxTable struct {
		t     map[int]*notification.OutboxEntry
		seq   int
		mutex sync.RWMutex
	}
)

func Open() (*DB, error) {
	db := &DB{
		staff:    &staffTable{t: make(map[int]*staff.Staff)},
		period:   &periodTable{t: make(map[int]*period.AcademicPeriod)},
		deadline: &deadlineTable{t: make(map[int]*deadline.Deadline)},
		activity: &activityTable{t: make(map[int]*activity.Activity)},
		report:   &reportTable{t: make(map[int]*report.Report)},
		outbox:   &outboxTable{t: make(map[int]*notification.OutboxEntry)},
	}
	return db, nil
}
