package sqlxrepos

import (
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/pkg/errors"

	"github.com/lusambya/kazi/core"
	"github.com/lusambya/kazi/core/report"
)

func newReportRepoMock(t *testing.T) (report.Repository, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() failed: %v", err)
	}
	t.Cleanup(func() { _ = mockDB.Close() })
	return NewReportRepository(NewDB(mockDB)), mock
}

func Test_reportRepository_UpdateReport_versionConflict(t *testing.T) {
	repo, mock := newReportRepoMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE report SET").WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("SELECT COUNT").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	_, err := repo.UpdateReport(report.Report{ID: 1, Version: 1})
	if !core.IsConcurrentModification(err) {
		t.Errorf("want ConcurrentModificationError, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func Test_reportRepository_UpdateReport_missingRow(t *testing.T) {
	repo, mock := newReportRepoMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE report SET").WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("SELECT COUNT").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectRollback()

	_, err := repo.UpdateReport(report.Report{ID: 1, Version: 1})
	if errors.Cause(err) != report.ErrNotFound {
		t.Errorf("want ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func Test_reportRepository_UpdateReport_infraError(t *testing.T) {
	repo, mock := newReportRepoMock(t)

	// a transient failure on a present row must surface as-is, not as a
	// version conflict steering the caller into a retry loop
	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE report SET").WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	_, err := repo.UpdateReport(report.Report{ID: 1, Version: 1})
	if core.IsConcurrentModification(err) {
		t.Error("an infrastructure failure must not be reported as a version conflict")
	}
	if errors.Cause(err) != sql.ErrConnDone {
		t.Errorf("want the driver error as cause, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
