package sqlxrepos

import (
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/lusambya/kazi/core"
	"github.com/lusambya/kazi/core/report"
)

type reportRow struct {
	ID               int         `db:"id"`
	OwnerID          int         `db:"owner_id"`
	PeriodID         int         `db:"period_id"`
	Title            string      `db:"title"`
	Description      string      `db:"description"`
	Type             string      `db:"type"`
	State            string      `db:"state"`
	ExecutiveSummary string      `db:"executive_summary"`
	SubmittedAt      null.Time   `db:"submitted_at"`
	ReviewedAt       null.Time   `db:"reviewed_at"`
	ReviewComments   null.String `db:"review_comments"`
	Version          int         `db:"version"`
	CreatedAt        time.Time   `db:"created_at"`
	UpdatedAt        time.Time   `db:"updated_at"`
}

func (r reportRow) toDomain() report.Report {
	return report.Report{
		ID:               r.ID,
		OwnerID:          r.OwnerID,
		PeriodID:         r.PeriodID,
		Title:            r.Title,
		Description:      r.Description,
		Type:             report.Type(r.Type),
		State:            report.State(r.State),
		ExecutiveSummary: r.ExecutiveSummary,
		SubmittedAt:      r.SubmittedAt,
		ReviewedAt:       r.ReviewedAt,
		ReviewComments:   r.ReviewComments,
		Version:          r.Version,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

type activityRefRow struct {
	ReportID   int         `db:"report_id"`
	ActivityID int         `db:"activity_id"`
	Position   int         `db:"position"`
	Note       null.String `db:"note"`
}

type attachmentRow struct {
	ReportID int    `db:"report_id"`
	Ref      string `db:"ref"`
	Filename string `db:"filename"`
}

type auditRow struct {
	ID        int         `db:"id"`
	ReportID  int         `db:"report_id"`
	ActorID   int         `db:"actor_id"`
	FromState string      `db:"from_state"`
	ToState   string      `db:"to_state"`
	Comment   null.String `db:"comment"`
	CreatedAt time.Time   `db:"created_at"`
}

func (r auditRow) toDomain() report.AuditEntry {
	return report.AuditEntry{
		ID:        r.ID,
		ReportID:  r.ReportID,
		ActorID:   r.ActorID,
		FromState: report.State(r.FromState),
		ToState:   report.State(r.ToState),
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt,
	}
}

type reportRepository struct {
	db *sqlx.DB
}

var _ report.Repository = (*reportRepository)(nil)

func NewReportRepository(db *sqlx.DB) report.Repository {
	return &reportRepository{db: db}
}

func (r *reportRepository) CreateReport(rep report.Report) (report.Report, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return report.Report{}, errors.Wrap(err, "beginning tx")
	}
	defer rollback(tx)

	const query = `
		INSERT INTO report (
			owner_id, period_id, title, description, type, state,
			executive_summary, version, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`
	err = tx.Get(&rep.ID, query,
		rep.OwnerID, rep.PeriodID, rep.Title, rep.Description, rep.Type, rep.State,
		rep.ExecutiveSummary, rep.Version, rep.CreatedAt, rep.UpdatedAt)
	if err != nil {
		return report.Report{}, errors.Wrap(err, "creating report")
	}

	if err = insertAssociations(tx, rep); err != nil {
		return report.Report{}, err
	}
	if err = tx.Commit(); err != nil {
		return report.Report{}, errors.Wrap(err, "committing tx")
	}
	return rep, nil
}

func insertAssociations(tx *sqlx.Tx, rep report.Report) error {
	for i, ref := range rep.Activities {
		pos := ref.Position
		if pos == 0 {
			pos = i + 1
		}
		_, err := tx.Exec(
			`INSERT INTO report_activity (report_id, activity_id, position, note) VALUES ($1, $2, $3, $4)`,
			rep.ID, ref.ActivityID, pos, ref.Note)
		if err != nil {
			return errors.Wrap(err, "attaching activity")
		}
	}
	for _, at := range rep.Attachments {
		_, err := tx.Exec(
			`INSERT INTO report_attachment (report_id, ref, filename) VALUES ($1, $2, $3)`,
			rep.ID, at.Ref, at.Filename)
		if err != nil {
			return errors.Wrap(err, "attaching file reference")
		}
	}
	return nil
}

func (r *reportRepository) loadAssociations(rep *report.Report) error {
	var refs []activityRefRow
	err := r.db.Select(&refs,
		`SELECT * FROM report_activity WHERE report_id = $1 ORDER BY position`, rep.ID)
	if err != nil {
		return errors.Wrap(err, "loading activity refs")
	}
	rep.Activities = make([]report.ActivityRef, 0, len(refs))
	for _, ref := range refs {
		rep.Activities = append(rep.Activities, report.ActivityRef{
			ActivityID: ref.ActivityID,
			Position:   ref.Position,
			Note:       ref.Note,
		})
	}

	var ats []attachmentRow
	err = r.db.Select(&ats, `SELECT * FROM report_attachment WHERE report_id = $1 ORDER BY ref`, rep.ID)
	if err != nil {
		return errors.Wrap(err, "loading attachment refs")
	}
	rep.Attachments = make([]report.AttachmentRef, 0, len(ats))
	for _, at := range ats {
		rep.Attachments = append(rep.Attachments, report.AttachmentRef{Ref: at.Ref, Filename: at.Filename})
	}
	return nil
}

func (r *reportRepository) GetReportByID(id int) (report.Report, error) {
	var row reportRow
	if err := r.db.Get(&row, `SELECT * FROM report WHERE id = $1`, id); err != nil {
		return report.Report{}, wrapNotFound(err, report.ErrNotFound, "getting report")
	}
	rep := row.toDomain()
	if err := r.loadAssociations(&rep); err != nil {
		return report.Report{}, err
	}
	return rep, nil
}

func (r *reportRepository) queryReports(query string, args ...interface{}) ([]report.Report, error) {
	var rows []reportRow
	if err := r.db.Select(&rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying reports")
	}
	res := make([]report.Report, 0, len(rows))
	for _, row := range rows {
		rep := row.toDomain()
		if err := r.loadAssociations(&rep); err != nil {
			return nil, err
		}
		res = append(res, rep)
	}
	return res, nil
}

func (r *reportRepository) QueryReportsByOwner(ownerID int) ([]report.Report, error) {
	return r.queryReports(`SELECT * FROM report WHERE owner_id = $1 ORDER BY created_at DESC`, ownerID)
}

func (r *reportRepository) QueryReportsByPeriod(periodID int) ([]report.Report, error) {
	return r.queryReports(`SELECT * FROM report WHERE period_id = $1 ORDER BY created_at DESC`, periodID)
}

// casUpdate updates the report row guarded by the version compare-and-swap;
// it reports core.ConcurrentModificationError when the version moved.
func (r *reportRepository) casUpdate(tx *sqlx.Tx, rep report.Report) (reportRow, error) {
	const query = `
		UPDATE report SET
			title = $3, description = $4, state = $5, executive_summary = $6,
			submitted_at = $7, reviewed_at = $8, review_comments = $9,
			version = version + 1, updated_at = $10
		WHERE id = $1 AND version = $2
		RETURNING *`
	var row reportRow
	err := tx.Get(&row, query, rep.ID, rep.Version,
		rep.Title, rep.Description, rep.State, rep.ExecutiveSummary,
		rep.SubmittedAt, rep.ReviewedAt, rep.ReviewComments, rep.UpdatedAt)
	if err == nil {
		return row, nil
	}
	if err != sql.ErrNoRows {
		return reportRow{}, errors.Wrap(err, "updating report")
	}

	// no row matched: the version moved if the report still exists
	var count int
	if cErr := tx.Get(&count, `SELECT COUNT(*) FROM report WHERE id = $1`, rep.ID); cErr == nil && count > 0 {
		return reportRow{}, core.NewConcurrentModificationError("report", rep.ID)
	}
	return reportRow{}, wrapNotFound(err, report.ErrNotFound, "updating report")
}

func (r *reportRepository) UpdateReport(rep report.Report) (report.Report, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return report.Report{}, errors.Wrap(err, "beginning tx")
	}
	defer rollback(tx)

	row, err := r.casUpdate(tx, rep)
	if err != nil {
		return report.Report{}, err
	}

	// replace associations wholesale
	if _, err = tx.Exec(`DELETE FROM report_activity WHERE report_id = $1`, rep.ID); err != nil {
		return report.Report{}, errors.Wrap(err, "detaching activities")
	}
	if _, err = tx.Exec(`DELETE FROM report_attachment WHERE report_id = $1`, rep.ID); err != nil {
		return report.Report{}, errors.Wrap(err, "detaching file references")
	}
	if err = insertAssociations(tx, rep); err != nil {
		return report.Report{}, err
	}

	if err = tx.Commit(); err != nil {
		return report.Report{}, errors.Wrap(err, "committing tx")
	}
	updated := row.toDomain()
	updated.Activities = rep.Activities
	updated.Attachments = rep.Attachments
	return updated, nil
}

func (r *reportRepository) ApplyStateChange(rep report.Report, entry report.AuditEntry) (report.Report, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return report.Report{}, errors.Wrap(err, "beginning tx")
	}
	defer rollback(tx)

	row, err := r.casUpdate(tx, rep)
	if err != nil {
		return report.Report{}, err
	}

	_, err = tx.Exec(
		`INSERT INTO report_audit (report_id, actor_id, from_state, to_state, comment, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		rep.ID, entry.ActorID, entry.FromState, entry.ToState, entry.Comment, entry.CreatedAt)
	if err != nil {
		return report.Report{}, errors.Wrap(err, "appending audit entry")
	}

	if err = tx.Commit(); err != nil {
		return report.Report{}, errors.Wrap(err, "committing tx")
	}
	updated := row.toDomain()
	updated.Activities = rep.Activities
	updated.Attachments = rep.Attachments
	return updated, nil
}

func (r *reportRepository) QueryAuditTrail(reportID int) ([]report.AuditEntry, error) {
	var rows []auditRow
	err := r.db.Select(&rows,
		`SELECT * FROM report_audit WHERE report_id = $1 ORDER BY created_at, id`, reportID)
	if err != nil {
		return nil, errors.Wrap(err, "querying audit trail")
	}
	res := make([]report.AuditEntry, 0, len(rows))
	for _, row := range rows {
		res = append(res, row.toDomain())
	}
	return res, nil
}

func (r *reportRepository) DeleteReport(id int) error {
	res, err := r.db.Exec(`DELETE FROM report WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting report")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return report.ErrNotFound
	}
	return nil
}
