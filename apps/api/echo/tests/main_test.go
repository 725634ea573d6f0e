package tests

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	. "github.com/lusambya/kazi/apps/api/echo"
	"github.com/lusambya/kazi/core"
	"github.com/lusambya/kazi/core/activity"
	"github.com/lusambya/kazi/core/deadline"
	"github.com/lusambya/kazi/core/period"
	"github.com/lusambya/kazi/core/report"
	"github.com/lusambya/kazi/core/staff"
	"github.com/lusambya/kazi/services/notification"
	"github.com/lusambya/kazi/storage/database/inmem"
	"github.com/lusambya/kazi/tests"
)

func TestMain(m *testing.M) {
	core.LoadConfig()
	core.Conf.Debug = false
	core.Conf.TestMode = true
	os.Exit(m.Run())
}

type env struct {
	app Server

	staffRepo    staff.Repository
	periodRepo   period.Repository
	deadlineRepo deadline.Repository
	activityRepo activity.Repository
	reportRepo   report.Repository

	teacher     staff.Staff
	coordinator staff.Staff
	admin       staff.Staff
	periodID    int
}

func setup(t *testing.T) *env {
	t.Helper()
	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}

	e := &env{
		staffRepo:    inmemdb.NewStaffRepository(db),
		periodRepo:   inmemdb.NewPeriodRepository(db),
		deadlineRepo: inmemdb.NewDeadlineRepository(db),
		activityRepo: inmemdb.NewActivityRepository(db),
		reportRepo:   inmemdb.NewReportRepository(db),
	}

	logger := core.StdLogger{Std: log.New(os.Stdout, "TEST : ", log.LstdFlags)}
	notifier := notification.NewOutboxNotifier(inmemdb.NewOutboxRepository(db))

	staffSvc := staff.NewService(e.staffRepo)
	periodSvc := period.NewService(e.periodRepo)
	deadlineSvc := deadline.NewService(e.deadlineRepo, notifier, logger)
	activitySvc := activity.NewService(e.activityRepo, deadlineSvc)
	reportSvc := report.NewService(e.reportRepo, activitySvc, notifier, logger)

	e.app = NewServer(&Options{
		DisableReqLogs: true,
		Logger:         logger,
		SignalShutdown: func() {},
		StaffSvc:       staffSvc,
		PeriodSvc:      periodSvc,
		DeadlineSvc:    deadlineSvc,
		ActivitySvc:    activitySvc,
		ReportSvc:      reportSvc,
	})

	e.teacher = testutil.CreateStaff(t, e.staffRepo, "Ayo", "ayo@kazi.test", "s3cr3t!", staff.RoleTeacher, true)
	e.coordinator = testutil.CreateStaff(t, e.staffRepo, "Bintou", "bintou@kazi.test", "s3cr3t!", staff.RoleCoordinator, true)
	e.admin = testutil.CreateStaff(t, e.staffRepo, "Chiku", "chiku@kazi.test", "s3cr3t!", staff.RoleAdministrator, true)

	now := time.Now().UTC()
	e.periodID = testutil.CreatePeriod(t, e.periodRepo, "2026-S1", now.AddDate(0, 0, -30), now.AddDate(0, 0, 120), true).ID
	return e
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, member staff.Staff) string {
	t.Helper()
	claims := GetStaffClaims(member)
	token, err := GenerateToken(claims)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marshallObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshallObj() failed: %v", err)
	}
	return data
}

func decodeObj(t *testing.T, rec *httptest.ResponseRecorder, obj interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), obj); err != nil {
		t.Fatalf("decodeObj() failed: %v; body: %s", err, rec.Body.String())
	}
}

func checkCode(t *testing.T, rec *httptest.ResponseRecorder, wantCode int) {
	t.Helper()
	if rec.Code != wantCode {
		t.Fatalf("failed! code = %v; wantCode %v; body: %s", rec.Code, wantCode, rec.Body.String())
	}
}
