package inmemdb

import (
	"sort"

	"github.com/lusambya/kazi/core"
	"github.com/lusambya/kazi/core/report"
)

type reportRepository struct {
	db *reportTable
}

var _ report.Repository = (*reportRepository)(nil)

func NewReportRepository(db *DB) report.Repository {
	return &reportRepository{db: db.report}
}

// cloneReport detaches the slice fields so stored rows and returned
// snapshots never share a backing array.
func cloneReport(rep report.Report) report.Report {
	rep.Activities = append([]report.ActivityRef(nil), rep.Activities...)
	rep.Attachments = append([]report.AttachmentRef(nil), rep.Attachments...)
	return rep
}

func (r *reportRepository) query() []report.Report {
	res := make([]report.Report, 0, len(r.db.t))
	for _, rep := range r.db.t {
		res = append(res, cloneReport(*rep))
	}
	return res
}

func (r *reportRepository) CreateReport(rep report.Report) (report.Report, error) {
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()

	r.db.seq++
	rep.ID = r.db.seq
	stored := cloneReport(rep)
	r.db.t[rep.ID] = &stored
	return rep, nil
}

func (r *reportRepository) GetReportByID(id int) (report.Report, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()

	if rep, ok := r.db.t[id]; ok {
		return cloneReport(*rep), nil
	}
	return report.Report{}, report.ErrNotFound
}

func (r *reportRepository) QueryReportsByOwner(ownerID int) ([]report.Report, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()

	res := make([]report.Report, 0)
	for _, rep := range r.query() {
		if rep.OwnerID == ownerID {
			res = append(res, rep)
		}
	}
	return res, nil
}

func (r *reportRepository) QueryReportsByPeriod(periodID int) ([]report.Report, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()

	res := make([]report.Report, 0)
	for _, rep := range r.query() {
		if rep.PeriodID == periodID {
			res = append(res, rep)
		}
	}
	return res, nil
}

func (r *reportRepository) UpdateReport(rep report.Report) (report.Report, error) {
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()
	return r.update(rep)
}

// update applies the version compare-and-swap; callers hold the write lock.
func (r *reportRepository) update(rep report.Report) (report.Report, error) {
	stored, ok := r.db.t[rep.ID]
	if !ok {
		return report.Report{}, report.ErrNotFound
	}
	if stored.Version != rep.Version {
		return report.Report{}, core.NewConcurrentModificationError("report", rep.ID)
	}
	rep.Version++
	next := cloneReport(rep)
	r.db.t[rep.ID] = &next
	return rep, nil
}

func (r *reportRepository) ApplyStateChange(rep report.Report, entry report.AuditEntry) (report.Report, error) {
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()

	updated, err := r.update(rep)
	if err != nil {
		return report.Report{}, err
	}
	r.db.auditSeq++
	entry.ID = r.db.auditSeq
	entry.ReportID = updated.ID
	r.db.audit = append(r.db.audit, entry)
	return updated, nil
}

func (r *reportRepository) QueryAuditTrail(reportID int) ([]report.AuditEntry, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()

	res := make([]report.AuditEntry, 0)
	for _, entry := range r.db.audit {
		if entry.ReportID == reportID {
			res = append(res, entry)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}

func (r *reportRepository) DeleteReport(id int) error {
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()

	if _, ok := r.db.t[id]; !ok {
		return report.ErrNotFound
	}
	delete(r.db.t, id)
	return nil
}
