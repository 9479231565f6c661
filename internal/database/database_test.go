package database

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"postboard/internal/config"
	"postboard/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestEmbeddedMigrationsAreOrderedAndPaired(t *testing.T) {
	ms := GetMigrations()
	require.NotEmpty(t, ms)
	for i, m := range ms {
		assert.NotEmpty(t, m.UpScript, m.String())
		assert.NotEmpty(t, m.DownScript, m.String())
		if i > 0 {
			assert.Greater(t, m.Version, ms[i-1].Version)
		}
	}
	follows := GetMigrationByVersion(2)
	require.NotNil(t, follows)
	assert.Contains(t, follows.UpScript, "CHECK (user_id <> author_id)")
	assert.Contains(t, follows.UpScript, "UNIQUE INDEX")
}

func TestLoadMigrations_Validation(t *testing.T) {
	fsys := fstest.MapFS{
		"m/000002_second.up.sql":   {Data: []byte("SELECT 2;")},
		"m/000002_second.down.sql": {Data: []byte("SELECT -2;")},
		"m/000001_first.up.sql":    {Data: []byte("SELECT 1;")},
		"m/000001_first.down.sql":  {Data: []byte("SELECT -1;")},
		"m/README.md":              {Data: []byte("ignored")},
	}
	ms, err := LoadMigrations(fsys, "m")
	require.NoError(t, err)
	require.Len(t, ms, 2)
	assert.Equal(t, "000001_first", ms[0].String())
	assert.Equal(t, "SELECT -2;", ms[1].DownScript)

	missingDown := fstest.MapFS{"m/000001_first.up.sql": {Data: []byte("SELECT 1;")}}
	_, err = LoadMigrations(missingDown, "m")
	assert.Error(t, err)

	duplicate := fstest.MapFS{
		"m/000001_a.up.sql":   {Data: []byte("x")},
		"m/000001_a.down.sql": {Data: []byte("x")},
		"m/1_b.up.sql":        {Data: []byte("x")},
		"m/1_b.down.sql":      {Data: []byte("x")},
	}
	_, err = LoadMigrations(duplicate, "m")
	assert.ErrorContains(t, err, "used by both")
}

func TestValidateAppliedVersions(t *testing.T) {
	registered := []Migration{{Version: 1}, {Version: 2}}
	assert.NoError(t, validateAppliedVersions(nil, registered))
	assert.NoError(t, validateAppliedVersions([]int{1, 2}, registered))

	err := validateAppliedVersions([]int{1, 7, 3}, registered)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "000003, 000007")
}

type stubStore struct {
	applied  []int
	ran      []int
	reverted []int
	failOn   int
}

func (s *stubStore) GetAppliedMigrations(context.Context) ([]int, error) { return s.applied, nil }

func (s *stubStore) ApplyMigration(_ context.Context, m Migration) error {
	if m.Version == s.failOn {
		return errors.New("boom")
	}
	s.ran = append(s.ran, m.Version)
	return nil
}

func (s *stubStore) RevertMigration(_ context.Context, m Migration) error {
	s.reverted = append(s.reverted, m.Version)
	return nil
}

func TestRunPending_SkipsAppliedAndStopsOnError(t *testing.T) {
	registered := []Migration{{Version: 1, Name: "a"}, {Version: 2, Name: "b"}, {Version: 3, Name: "c"}}

	store := &stubStore{applied: []int{1}}
	require.NoError(t, runPending(context.Background(), store, registered))
	assert.Equal(t, []int{2, 3}, store.ran)

	store = &stubStore{failOn: 2}
	assert.Error(t, runPending(context.Background(), store, registered))
	assert.Equal(t, []int{1}, store.ran)
}

func TestRollback_RequiresAppliedVersion(t *testing.T) {
	store := &stubStore{applied: []int{1}}
	assert.Error(t, rollback(context.Background(), store, 2))
	assert.Error(t, rollback(context.Background(), store, 99))
	require.NoError(t, rollback(context.Background(), store, 1))
	assert.Equal(t, []int{1}, store.reverted)
}

func TestPlanSchema(t *testing.T) {
	tests := []struct {
		mode, env       string
		wantSQL, wantAM bool
		wantErr         bool
	}{
		{"", "development", true, true, false},
		{"hybrid", "production", true, false, false},
		{"sql", "development", true, false, false},
		{"auto", "test", false, true, false},
		{"auto", "production", false, false, true},
		{"bogus", "development", false, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.mode+"/"+tt.env, func(t *testing.T) {
			plan, err := planSchema(&config.Config{DBSchemaMode: tt.mode, Env: tt.env})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, plan.sql)
			assert.Equal(t, tt.wantAM, plan.autoMig)
		})
	}
}

func TestAutoMigrate_FollowConstraints(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))

	a := models.User{Username: "a", Password: "x"}
	b := models.User{Username: "b", Password: "x"}
	require.NoError(t, db.Create(&a).Error)
	require.NoError(t, db.Create(&b).Error)

	require.NoError(t, db.Create(&models.Follow{UserID: a.ID, AuthorID: b.ID}).Error)
	assert.Error(t, db.Create(&models.Follow{UserID: a.ID, AuthorID: b.ID}).Error, "duplicate edge")
	assert.Error(t, db.Create(&models.Follow{UserID: a.ID, AuthorID: a.ID}).Error, "self edge")
}

func TestGetSchemaStatus_NoLogTable(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	status, err := GetSchemaStatus(context.Background(), db, &config.Config{Env: "test"})
	require.NoError(t, err)
	assert.True(t, status.WillRunSQL)
	assert.Empty(t, status.AppliedVersions)
	assert.Len(t, status.PendingMigrations, len(GetMigrations()))
}

func TestDSN(t *testing.T) {
	dsn := DSN(&config.Config{DBHost: "db", DBPort: "5432", DBUser: "u", DBPassword: "p", DBName: "n"})
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=n sslmode=disable", dsn)
}
