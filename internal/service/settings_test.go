package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/BikeGuard/internal/common"
	"github.com/atinyakov/BikeGuard/internal/models"
)

// memSettingsRepo mimics the singleton row: the first GetOrCreate inserts,
// later ones read.
type memSettingsRepo struct {
	mu      sync.Mutex
	row     *models.Settings
	creates atomic.Int32
	loads   atomic.Int32
	delay   time.Duration
	loadErr error
	saveErr error
}

func (m *memSettingsRepo) GetOrCreate(ctx context.Context, def models.Settings) (models.Settings, error) {
	m.loads.Add(1)
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	if err := ctx.Err(); err != nil {
		return models.Settings{}, err
	}
	if m.loadErr != nil {
		return models.Settings{}, m.loadErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.row == nil {
		m.creates.Add(1)
		m.row = &def
	}
	return *m.row, nil
}

func (m *memSettingsRepo) Save(_ context.Context, st models.Settings) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.row = &st
	return nil
}

func modePtr(m models.Mode) *models.Mode { return &m }
func floatPtr(f float64) *float64        { return &f }

func TestSettingsGet_CreatesDefault(t *testing.T) {
	repo := &memSettingsRepo{}
	svc := NewSettingsService(repo)

	st, err := svc.Get(context.Background())
	require.NoError(t, err)

	assert.Equal(t, models.ModeSafe, st.Mode)
	assert.Equal(t, 1.3, st.Threshold)
	assert.EqualValues(t, 1, repo.creates.Load())

	// served from memory afterwards
	_, err = svc.Get(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, repo.loads.Load())
}

func TestSettingsGet_ConcurrentFirstAccess(t *testing.T) {
	repo := &memSettingsRepo{delay: 20 * time.Millisecond}
	svc := NewSettingsService(repo)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			st, err := svc.Get(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, models.ModeSafe, st.Mode)
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, repo.creates.Load(), "default must be created once")
}

func TestSettingsGet_FirstCallerCancelled(t *testing.T) {
	repo := &memSettingsRepo{delay: 30 * time.Millisecond}
	svc := NewSettingsService(repo)

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, errs[0] = svc.Get(cancelled)
	}()
	// give the cancelled caller time to start the shared load
	time.Sleep(5 * time.Millisecond)
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, errs[1] = svc.Get(context.Background())
	}()
	wg.Wait()

	assert.NoError(t, errs[0])
	assert.NoError(t, errs[1], "a waiter must not inherit another caller's cancellation")
	assert.EqualValues(t, 1, repo.creates.Load())
}

func TestSettingsGet_LoadError(t *testing.T) {
	repo := &memSettingsRepo{loadErr: errors.New("db down")}
	svc := NewSettingsService(repo)

	_, err := svc.Get(context.Background())
	assert.ErrorIs(t, err, common.ErrPersistence)

	// not cached: recovers once the store is back
	repo.loadErr = nil
	st, err := svc.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.ModeSafe, st.Mode)
}

func TestSettingsUpdate_Partial(t *testing.T) {
	repo := &memSettingsRepo{}
	svc := NewSettingsService(repo)
	fixed := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	svc.now = func() time.Time { return fixed }
	ctx := context.Background()

	st, err := svc.Update(ctx, models.SettingsPatch{Mode: modePtr(models.ModeLock)})
	require.NoError(t, err)
	assert.Equal(t, models.ModeLock, st.Mode)
	assert.Equal(t, 1.3, st.Threshold, "threshold untouched")
	assert.Equal(t, fixed, st.UpdatedAt)

	got, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, st, got)
	assert.Equal(t, models.ModeLock, repo.row.Mode, "update persisted")

	st, err = svc.Update(ctx, models.SettingsPatch{Threshold: floatPtr(2.5)})
	require.NoError(t, err)
	assert.Equal(t, models.ModeLock, st.Mode, "mode untouched")
	assert.Equal(t, 2.5, st.Threshold)
}

func TestSettingsUpdate_Invalid(t *testing.T) {
	repo := &memSettingsRepo{}
	svc := NewSettingsService(repo)

	cases := []models.SettingsPatch{
		{Mode: modePtr("panic")},
		{Threshold: floatPtr(0)},
		{Threshold: floatPtr(-1)},
	}
	for _, p := range cases {
		_, err := svc.Update(context.Background(), p)
		assert.ErrorIs(t, err, common.ErrInvalidSettings)
	}
	assert.Nil(t, repo.row, "nothing persisted")
}

func TestSettingsUpdate_SaveErrorKeepsOldValue(t *testing.T) {
	repo := &memSettingsRepo{}
	svc := NewSettingsService(repo)
	ctx := context.Background()

	_, err := svc.Get(ctx)
	require.NoError(t, err)

	repo.saveErr = errors.New("read-only")
	_, err = svc.Update(ctx, models.SettingsPatch{Mode: modePtr(models.ModeLock)})
	assert.ErrorIs(t, err, common.ErrPersistence)

	st, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.ModeSafe, st.Mode)
}

func TestSettings_NoTornReads(t *testing.T) {
	repo := &memSettingsRepo{}
	svc := NewSettingsService(repo)
	ctx := context.Background()

	// Writers flip between two consistent pairs; readers must only ever see one of them.
	pairs := []models.SettingsPatch{
		{Mode: modePtr(models.ModeSafe), Threshold: floatPtr(1.0)},
		{Mode: modePtr(models.ModeLock), Threshold: floatPtr(9.0)},
	}

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for w := 0; w < 2; w++ {
		wg.Add(1)
		go func(p models.SettingsPatch) {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					_, _ = svc.Update(ctx, p)
				}
			}
		}(pairs[w])
	}

	_, _ = svc.Update(ctx, pairs[0])
	for i := 0; i < 2000; i++ {
		st, err := svc.Get(ctx)
		require.NoError(t, err)
		if st.Mode == models.ModeSafe {
			require.Equal(t, 1.0, st.Threshold)
		} else {
			require.Equal(t, 9.0, st.Threshold)
		}
	}
	close(stop)
	wg.Wait()
}
