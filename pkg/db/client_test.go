package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/pawhaven-backend/pkg/config"
)

type widget struct {
	ID   int
	Name string `gorm:"uniqueIndex"`
}

func openSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	pool, err := conn.DB()
	require.NoError(t, err)
	pool.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = pool.Close() })

	require.NoError(t, conn.AutoMigrate(&widget{}))
	return conn
}

func countWidgets(t *testing.T, conn *gorm.DB, name string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, conn.Model(&widget{}).Where("name = ?", name).Count(&n).Error)
	return n
}

func TestWithTx(t *testing.T) {
	conn := openSQLite(t)
	client := NewFromConn(conn)
	ctx := context.Background()

	require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&widget{Name: "kept"}).Error
	}))
	assert.EqualValues(t, 1, countWidgets(t, conn, "kept"))

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		require.NoError(t, tx.Create(&widget{Name: "dropped"}).Error)
		return errors.New("boom")
	})
	assert.EqualError(t, err, "boom")
	assert.Zero(t, countWidgets(t, conn, "dropped"))

	assert.Panics(t, func() {
		_ = client.WithTx(ctx, func(tx *gorm.DB) error {
			require.NoError(t, tx.Create(&widget{Name: "panicked"}).Error)
			panic("boom")
		})
	})
	assert.Zero(t, countWidgets(t, conn, "panicked"))
}

func TestPingAndClose(t *testing.T) {
	client := NewFromConn(openSQLite(t))
	require.NoError(t, client.Ping(context.Background()))
	require.NoError(t, client.Close())
	assert.Error(t, client.Ping(context.Background()))
}

func TestNewRequiresDSN(t *testing.T) {
	_, err := New(context.Background(), config.DBConfig{}, nil)
	assert.ErrorContains(t, err, "DSN")
}

func TestTunePool(t *testing.T) {
	pool, err := openSQLite(t).DB()
	require.NoError(t, err)

	tunePool(pool, config.DBConfig{MaxOpenConns: 3, ConnMaxIdleTime: time.Minute})
	assert.Equal(t, 3, pool.Stats().MaxOpenConnections)

	tunePool(pool, config.DBConfig{})
	assert.Equal(t, 3, pool.Stats().MaxOpenConnections)
}

func TestIsUniqueViolation(t *testing.T) {
	conn := openSQLite(t)
	require.NoError(t, conn.Create(&widget{Name: "dup"}).Error)
	assert.True(t, IsUniqueViolation(conn.Create(&widget{Name: "dup"}).Error, ""))

	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "donations_created_pet_id_key"}
	cases := []struct {
		name       string
		err        error
		constraint string
		want       bool
	}{
		{"matching constraint", pgErr, "donations_created_pet_id_key", true},
		{"other constraint", pgErr, "other_key", false},
		{"foreign key", &pgconn.PgError{Code: "23503"}, "", false},
		{"nil", nil, "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsUniqueViolation(tc.err, tc.constraint))
		})
	}
}

func TestIsNotFound(t *testing.T) {
	conn := openSQLite(t)
	var w widget
	assert.True(t, IsNotFound(conn.Where("name = ?", "missing").First(&w).Error))
	assert.False(t, IsNotFound(errors.New("other")))
}
