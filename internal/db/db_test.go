package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"relief-ops-backend/config"
	"relief-ops-backend/internal/model"
)

func TestOpenAndMigrate_SQLite(t *testing.T) {
	cfg := &config.DatabaseConfig{
		Driver:                 "sqlite",
		DSN:                    ":memory:",
		MaxOpenConns:           1,
		MaxIdleConns:           1,
		ConnMaxLifetimeMinutes: 1,
	}

	gormDB, err := Open(cfg, zap.NewNop())
	require.NoError(t, err)
	sqlDB, _ := gormDB.DB()
	defer sqlDB.Close()

	require.NoError(t, Migrate(gormDB, zap.NewNop()))

	for _, m := range Models() {
		assert.True(t, gormDB.Migrator().HasTable(m), "table for %T should exist", m)
	}
	assert.True(t, gormDB.Migrator().HasIndex(&model.VolunteerAssignment{}, "idx_volunteer_assignments_active_volunteer_id"))
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(&config.DatabaseConfig{Driver: "oracle", DSN: "x"}, zap.NewNop())
	assert.Error(t, err)
}
