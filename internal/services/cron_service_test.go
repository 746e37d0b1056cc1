package services

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lagoonresort/reservation-backend/internal/database"
	"github.com/stretchr/testify/assert"
)

func TestCronService_RunAllNow(t *testing.T) {
	env := newTestEnv(t)
	cronService := NewCronService(
		env.pricing,
		env.rooms,
		database.NewRefreshTokenRepository(env.db),
		NewAuditService(env.db, true),
		30*24*time.Hour,
		quietLogger(),
	)

	env.mock.ExpectQuery(`SELECT (.+) FROM rooms ORDER BY name`).
		WillReturnRows(roomRows(7, 10000, true))
	env.mock.ExpectQuery(`SELECT (.+) FROM rooms WHERE id = \$1`).
		WithArgs(int64(7)).
		WillReturnRows(roomRows(7, 10000, true))
	env.mock.ExpectExec(`UPDATE rooms SET dynamic_price_cents`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	env.mock.ExpectExec(`DELETE FROM refresh_tokens WHERE expires_at < \$1`).
		WillReturnResult(sqlmock.NewResult(0, 4))
	env.mock.ExpectExec(`DELETE FROM audit_logs WHERE created_at < \$1`).
		WillReturnResult(sqlmock.NewResult(0, 12))

	cronService.RunAllNow()

	assert.Equal(t, 1, env.cache.invalidations)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestCronService_StartSchedulesJobs(t *testing.T) {
	env := newTestEnv(t)
	cronService := NewCronService(env.pricing, env.rooms, nil, nil, time.Hour, quietLogger())

	assert.NoError(t, cronService.Start())
	defer cronService.Stop()

	status := cronService.GetJobStatus()
	assert.Equal(t, 3, status["job_count"])
	assert.Equal(t, true, status["running"])
}
