package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"syscall"

	"golang.org/x/term"

	"github.com/lusambya/kazi/core"
	"github.com/lusambya/kazi/core/deadline"
	"github.com/lusambya/kazi/core/period"
	"github.com/lusambya/kazi/core/staff"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db          *sql.DB
	staffSvc    staff.Service
	periodSvc   period.Service
	deadlineSvc deadline.Service
	mailSvc     core.EmailService
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate                                        - apply pending database migrations")
	fmt.Println("  addstaff -name NAME -email EMAIL [-role ROLE]  - add or update a staff member; the password is prompted next")
	fmt.Println("  activateperiod -id ID                          - mark an academic period as the active one")
	fmt.Println("  remind [-days DAYS]                            - email active staff about upcoming deadlines")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addStaffCmd := flag.NewFlagSet("addstaff", flag.ExitOnError)
	addStaffName := addStaffCmd.String("name", "", "The staff member's full name.")
	addStaffEmail := addStaffCmd.String("email", "", "The staff member's email.")
	addStaffRole := addStaffCmd.String("role", string(staff.RoleTeacher), "TEACHER | COORDINATOR | ADMINISTRATOR.")

	activatePeriodCmd := flag.NewFlagSet("activateperiod", flag.ExitOnError)
	activatePeriodID := activatePeriodCmd.Int("id", 0, "The period's ID.")

	remindCmd := flag.NewFlagSet("remind", flag.ExitOnError)
	remindDays := remindCmd.Int("days", 0, "Horizon in days; defaults to the configured reminder lead time.")

	switch args[1] {
	case "migrate":
		return cli.migrate()
	case "addstaff":
		if err := addStaffCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addStaffName == "" || *addStaffEmail == "" {
			addStaffCmd.Usage()
			return errHelp
		}
		fmt.Print("Enter password:")
		pwd, err := readPasswordFunc(syscall.Stdin)
		fmt.Println()
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			addStaffCmd.Usage()
			return errHelp
		}
		return cli.addStaff(*addStaffName, *addStaffEmail, staff.Role(*addStaffRole), string(pwd))
	case "activateperiod":
		if err := activatePeriodCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *activatePeriodID == 0 {
			activatePeriodCmd.Usage()
			return errHelp
		}
		return cli.activatePeriod(*activatePeriodID)
	case "remind":
		if err := remindCmd.Parse(args[2:]); err != nil {
			return err
		}
		return cli.remind(*remindDays)
	default:
		cli.printUsage()
		return errHelp
	}
}
