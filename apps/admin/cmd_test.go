package main

import (
	"database/sql"
	"log"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/lusambya/kazi/core"
	"github.com/lusambya/kazi/core/deadline"
	"github.com/lusambya/kazi/core/period"
	"github.com/lusambya/kazi/core/staff"
	emailsvc "github.com/lusambya/kazi/services/email"
	"github.com/lusambya/kazi/services/notification"
	"github.com/lusambya/kazi/storage/database/inmem"
	"github.com/lusambya/kazi/tests"
)

func TestMain(m *testing.M) {
	core.LoadConfig()
	logger = log.New(os.Stdout, "TEST : ", log.LstdFlags)
	os.Exit(m.Run())
}

type fixture struct {
	cli          *commandLine
	staffRepo    staff.Repository
	periodRepo   period.Repository
	deadlineRepo deadline.Repository
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}

	appLogger := core.StdLogger{Std: logger}
	f := &fixture{
		staffRepo:    inmemdb.NewStaffRepository(db),
		periodRepo:   inmemdb.NewPeriodRepository(db),
		deadlineRepo: inmemdb.NewDeadlineRepository(db),
	}
	f.cli = &commandLine{
		staffSvc:  staff.NewService(f.staffRepo),
		periodSvc: period.NewService(f.periodRepo),
		deadlineSvc: deadline.NewService(
			f.deadlineRepo,
			notification.NewConsoleNotifier(appLogger),
			appLogger,
		),
		mailSvc: emailsvc.NewConsoleServiceMock(),
	}
	return f
}

type cliTest struct {
	name       string
	args       []string // without program name
	pwd        string
	wantErr    error
	wantErrStr string
}

func runCliTests(t *testing.T, cli *commandLine, tests []cliTest, check func(t *testing.T, tt cliTest)) {
	t.Helper()
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			return []byte(tt.pwd), nil
		}

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			switch {
			case tt.wantErr != nil:
				if errors.Cause(err) != tt.wantErr {
					t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
				}
			case tt.wantErrStr != "":
				if err == nil || err.Error() != tt.wantErrStr {
					t.Errorf("cli.run() error = %v, wantErrStr %s", err, tt.wantErrStr)
				}
			default:
				if err != nil {
					t.Fatalf("cli.run() unexpected error = %v", err)
				}
				if check != nil {
					check(t, tt)
				}
			}
		})
	}
}

func Test_commandLine_migrate(t *testing.T) {
	f := setup(t)

	migrateFunc = func(db *sql.DB) error { return nil }

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "migrate", args: []string{"migrate"}},
	}
	runCliTests(t, f.cli, tests, nil)
}

func Test_commandLine_addStaff(t *testing.T) {
	f := setup(t)

	existing := testutil.CreateStaff(t, f.staffRepo, "Ayo", "ayo@kazi.test", "0ldpwd!", staff.RoleTeacher, false)

	tests := []cliTest{
		{name: "no args", args: []string{"addstaff"}, wantErr: errHelp},
		{name: "no password", args: []string{"addstaff", "-name", "Ayo", "-email", "ayo@kazi.test"}, wantErr: errHelp},
		{
			name:       "unknown role",
			args:       []string{"addstaff", "-name", "Ayo", "-email", "ayo@kazi.test", "-role", "DEAN"},
			pwd:        "s3cr3t!",
			wantErrStr: `unknown role "DEAN"`,
		},
		{name: "create", args: []string{"addstaff", "-name", "Bintou", "-email", "bintou@kazi.test", "-role", "COORDINATOR"}, pwd: "s3cr3t!"},
		{name: "update existing", args: []string{"addstaff", "-name", "Ayo", "-email", "ayo@kazi.test", "-role", "ADMINISTRATOR"}, pwd: "s3cr3t!"},
	}
	runCliTests(t, f.cli, tests, nil)

	created, err := f.cli.staffSvc.GetByEmail("bintou@kazi.test")
	if err != nil {
		t.Fatalf("GetByEmail() failed: %v", err)
	}
	if created.Role != staff.RoleCoordinator {
		t.Errorf("created.Role = %s; want %s", created.Role, staff.RoleCoordinator)
	}

	updated, err := f.cli.staffSvc.GetByEmail(existing.Email)
	if err != nil {
		t.Fatalf("GetByEmail() failed: %v", err)
	}
	if updated.Role != staff.RoleAdministrator {
		t.Errorf("updated.Role = %s; want %s", updated.Role, staff.RoleAdministrator)
	}
	if !updated.IsActive {
		t.Error("updated.IsActive = false; addstaff reactivates the account")
	}
	if err = updated.CheckPassword("s3cr3t!"); err != nil {
		t.Errorf("CheckPassword() failed after addstaff: %v", err)
	}
}

func Test_commandLine_activatePeriod(t *testing.T) {
	f := setup(t)

	now := time.Now().UTC()
	p := testutil.CreatePeriod(t, f.periodRepo, "2026-S1", now.AddDate(0, 0, -30), now.AddDate(0, 0, 120), false)

	tests := []cliTest{
		{name: "no id", args: []string{"activateperiod"}, wantErr: errHelp},
		{name: "unknown id", args: []string{"activateperiod", "-id", "999"}, wantErr: period.ErrNotFound},
		{name: "activate", args: []string{"activateperiod", "-id", strconv.Itoa(p.ID)}},
	}
	runCliTests(t, f.cli, tests, nil)

	active, err := f.cli.periodSvc.GetActivePeriod()
	if err != nil {
		t.Fatalf("GetActivePeriod() failed: %v", err)
	}
	if active.ID != p.ID {
		t.Errorf("active.ID = %d; want %d", active.ID, p.ID)
	}
}

func Test_commandLine_remind(t *testing.T) {
	emailsvc.ClearSentMessages()
	f := setup(t)

	now := time.Now().UTC()
	p := testutil.CreatePeriod(t, f.periodRepo, "2026-S1", now.AddDate(0, 0, -30), now.AddDate(0, 0, 120), true)
	testutil.CreateDeadline(t, f.deadlineRepo, p.ID, "Registration cutoff", deadline.CategoryRegistration, now.AddDate(0, 0, 3), true)
	testutil.CreateStaff(t, f.staffRepo, "Ayo", "ayo@kazi.test", "", staff.RoleTeacher, true)
	testutil.CreateStaff(t, f.staffRepo, "Gone", "gone@kazi.test", "", staff.RoleTeacher, false)

	if err := f.cli.run([]string{"admin", "remind"}); err != nil {
		t.Fatalf("cli.run() failed: %v", err)
	}

	if len(emailsvc.SentMessages) != 1 {
		t.Fatalf("len(SentMessages) = %d; want 1", len(emailsvc.SentMessages))
	}
	msg := emailsvc.SentMessages[0]
	if len(msg.To) != 1 || msg.To[0].Address != "ayo@kazi.test" {
		t.Errorf("msg.To = %v; want the single active member", msg.To)
	}
}
