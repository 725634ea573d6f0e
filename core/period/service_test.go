package period_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lusambya/kazi/core"
	"github.com/lusambya/kazi/core/period"
	"github.com/lusambya/kazi/storage/database/inmem"
	"github.com/lusambya/kazi/tests"
)

func newFixture(t *testing.T) (period.Service, period.Repository) {
	t.Helper()
	db, err := inmemdb.Open()
	require.NoError(t, err)
	repo := inmemdb.NewPeriodRepository(db)
	return period.NewService(repo), repo
}

func TestSingleActivePeriod(t *testing.T) {
	svc, repo := newFixture(t)
	now := time.Now().UTC()
	first := testutil.CreatePeriod(t, repo, "2026-S1", now, now.AddDate(0, 6, 0), false)
	second := testutil.CreatePeriod(t, repo, "2026-S2", now.AddDate(0, 6, 0), now.AddDate(0, 12, 0), false)

	_, err := svc.GetActivePeriod()
	assert.Equal(t, period.ErrNoActivePeriod, err)

	p, err := svc.Activate(first.ID)
	require.NoError(t, err)
	assert.True(t, p.IsActive)

	// activating a second period while one is active is refused
	_, err = svc.Activate(second.ID)
	var vErr *core.ValidationError
	require.ErrorAs(t, err, &vErr)

	// re-activating the already-active period is a no-op, not an error
	_, err = svc.Activate(first.ID)
	require.NoError(t, err)

	// after an explicit deactivation the switch is allowed
	_, err = svc.Deactivate(first.ID)
	require.NoError(t, err)
	p, err = svc.Activate(second.ID)
	require.NoError(t, err)
	assert.True(t, p.IsActive)

	active, err := svc.GetActivePeriod()
	require.NoError(t, err)
	assert.Equal(t, second.ID, active.ID)
}

func TestPeriodNameUniqueness(t *testing.T) {
	svc, repo := newFixture(t)
	now := time.Now().UTC()
	testutil.CreatePeriod(t, repo, "2026-S1", now, now.AddDate(0, 6, 0), false)

	err := svc.CheckUniqueness("2026-S1")
	var vErr *core.ValidationError
	require.ErrorAs(t, err, &vErr)

	assert.NoError(t, svc.CheckUniqueness("2026-S2"))
}
