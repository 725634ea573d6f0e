package main

import (
	"log"
	"os"

	"github.com/lusambya/kazi/core"
	"github.com/lusambya/kazi/core/deadline"
	"github.com/lusambya/kazi/core/period"
	"github.com/lusambya/kazi/core/staff"
	emailsvc "github.com/lusambya/kazi/services/email"
	logsvc "github.com/lusambya/kazi/services/logger"
	"github.com/lusambya/kazi/services/notification"
	"github.com/lusambya/kazi/storage/database"
	"github.com/lusambya/kazi/storage/database/sqlxrepos"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	conf := core.LoadConfig()

	// set up DB
	errAndDie(database.CreateIfNotExist(conf))
	sqlDB, err := database.Open(conf)
	errAndDie(err)
	defer sqlDB.Close()
	db := sqlxrepos.NewDB(sqlDB)

	appLogger := logsvc.NewRollbarLogger(logger, conf)
	appLogger.Enable(!conf.Debug)

	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(appLogger)
	}

	staffSvc := staff.NewService(sqlxrepos.NewStaffRepository(db))
	periodSvc := period.NewService(sqlxrepos.NewPeriodRepository(db))
	deadlineSvc := deadline.NewService(
		sqlxrepos.NewDeadlineRepository(db),
		notification.NewConsoleNotifier(appLogger),
		appLogger,
	)

	// start CLI
	cli := commandLine{
		db:          sqlDB,
		staffSvc:    staffSvc,
		periodSvc:   periodSvc,
		deadlineSvc: deadlineSvc,
		mailSvc:     mailSvc,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
