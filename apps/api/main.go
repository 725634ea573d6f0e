package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	echoapi "github.com/lusambya/kazi/apps/api/echo"
	"github.com/lusambya/kazi/core"
	"github.com/lusambya/kazi/core/activity"
	"github.com/lusambya/kazi/core/deadline"
	"github.com/lusambya/kazi/core/period"
	"github.com/lusambya/kazi/core/report"
	"github.com/lusambya/kazi/core/staff"
	emailsvc "github.com/lusambya/kazi/services/email"
	logsvc "github.com/lusambya/kazi/services/logger"
	"github.com/lusambya/kazi/services/notification"
	"github.com/lusambya/kazi/storage/database"
	"github.com/lusambya/kazi/storage/database/sqlxrepos"
)

func main() {
	conf := core.LoadConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	// set up DB
	if err := database.CreateIfNotExist(conf); err != nil {
		logger.Fatal(fmt.Sprintf("creating database: %v", err), err)
	}
	sqlDB, err := database.Open(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}
	defer sqlDB.Close()
	if err = database.Migrate(sqlDB); err != nil {
		logger.Fatal(fmt.Sprintf("migrating database: %v", err), err)
	}
	db := sqlxrepos.NewDB(sqlDB)

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}

	outboxRepo := sqlxrepos.NewOutboxRepository(db)
	notifier := notification.NewOutboxNotifier(outboxRepo)

	staffSvc := staff.NewService(sqlxrepos.NewStaffRepository(db))
	periodSvc := period.NewService(sqlxrepos.NewPeriodRepository(db))
	deadlineSvc := deadline.NewService(sqlxrepos.NewDeadlineRepository(db), notifier, logger)
	activitySvc := activity.NewService(sqlxrepos.NewActivityRepository(db), deadlineSvc)
	reportSvc := report.NewService(sqlxrepos.NewReportRepository(db), activitySvc, notifier, logger)

	// drain the outbox in the background
	dispatcher := notification.NewDispatcher(outboxRepo, notification.NewComposer(staffSvc), mailSvc, logger)
	dispatchCtx, stopDispatch := context.WithCancel(context.Background())
	defer stopDispatch()
	go dispatcher.Run(dispatchCtx)

	// start API server
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	app := echoapi.NewServer(&echoapi.Options{
		Address:        conf.Server.Address(),
		Logger:         logger,
		SignalShutdown: func() { shutdown <- syscall.SIGTERM },
		StaffSvc:       staffSvc,
		PeriodSvc:      periodSvc,
		DeadlineSvc:    deadlineSvc,
		ActivitySvc:    activitySvc,
		ReportSvc:      reportSvc,
	})
	go app.Start()

	sig := <-shutdown
	logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

	// give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err = app.Stop(ctx); err != nil {
		logger.Fatal(fmt.Sprintf("could not stop server gracefully: %v", err), err)
	}
}
