// Package dbtest opens throwaway sqlite databases carrying the same tables,
// unique indexes and defaults as the Postgres migrations.
package dbtest

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var seq atomic.Int64

var schema = []string{
	`CREATE TABLE users (
		id TEXT PRIMARY KEY,
		owner TEXT NOT NULL,
		email TEXT NOT NULL,
		phone_number TEXT,
		profile_picture TEXT,
		first_name TEXT,
		last_name TEXT,
		industry TEXT,
		job_title TEXT,
		bio TEXT,
		location TEXT,
		user_setup_stage TEXT NOT NULL DEFAULT 'INITIAL',
		global_admin BOOLEAN NOT NULL DEFAULT 0,
		last_login DATETIME,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE user_settings (
		id TEXT PRIMARY KEY,
		owner TEXT NOT NULL,
		user_id TEXT NOT NULL,
		theme TEXT NOT NULL DEFAULT 'light',
		ui_layout TEXT,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE UNIQUE INDEX idx_user_settings_user_id ON user_settings (user_id)`,
	`CREATE TABLE organizations (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT,
		logo TEXT,
		address TEXT,
		city TEXT,
		state TEXT,
		zip_code TEXT,
		country TEXT,
		website TEXT,
		industry TEXT,
		size INTEGER,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE user_organizations (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		organization_id TEXT NOT NULL,
		role TEXT NOT NULL,
		joined_at DATETIME NOT NULL,
		invited_by TEXT,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE UNIQUE INDEX idx_user_organizations_user_org ON user_organizations (user_id, organization_id)`,
	`CREATE TABLE sensors (
		id TEXT PRIMARY KEY,
		serial_number TEXT NOT NULL,
		name TEXT NOT NULL,
		lat REAL,
		long REAL,
		location_name TEXT,
		status INTEGER NOT NULL DEFAULT 0,
		enabled BOOLEAN NOT NULL DEFAULT 1,
		firmware_version TEXT,
		hardware_version TEXT,
		battery_level REAL,
		last_service_date DATETIME,
		next_scheduled_service DATETIME,
		led_configuration TEXT,
		calibration_data TEXT,
		measurable_parameters TEXT,
		created_at DATETIME,
		last_updated DATETIME
	)`,
	`CREATE UNIQUE INDEX idx_sensors_serial_number ON sensors (serial_number)`,
	`CREATE TABLE sensor_organizations (
		id TEXT PRIMARY KEY,
		sensor_id TEXT NOT NULL,
		organization_id TEXT NOT NULL,
		created_at DATETIME
	)`,
	`CREATE UNIQUE INDEX idx_sensor_organizations_sensor_org ON sensor_organizations (sensor_id, organization_id)`,
	`CREATE TABLE sensor_alerts (
		id TEXT PRIMARY KEY,
		sensor_id TEXT NOT NULL,
		type TEXT NOT NULL,
		severity INTEGER NOT NULL,
		message TEXT NOT NULL,
		timestamp DATETIME NOT NULL,
		acknowledged BOOLEAN NOT NULL DEFAULT 0,
		acknowledged_by TEXT,
		acknowledged_at DATETIME,
		organization_id TEXT,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE parameter_configs (
		id TEXT PRIMARY KEY,
		parameter_name TEXT NOT NULL,
		display_name TEXT NOT NULL,
		unit TEXT NOT NULL,
		description TEXT,
		calculation_method TEXT,
		calculation_parameters TEXT,
		required_leds TEXT,
		min_valid_value REAL,
		max_valid_value REAL,
		organization_id TEXT,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE pending_admin_grants (
		email TEXT PRIMARY KEY,
		granted_by TEXT NOT NULL,
		note TEXT,
		created_at DATETIME,
		consumed_at DATETIME,
		consumed_by_user_id TEXT
	)`,
}

// Open returns a private in-memory database with the full schema applied.
// The pool is pinned to one connection so concurrent writers queue instead
// of failing with "database is locked".
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, seq.Add(1))

	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sqlite handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range schema {
		if err := conn.Exec(stmt).Error; err != nil {
			t.Fatalf("apply schema: %v", err)
		}
	}
	return conn
}
