package services

import (
	"context"
	"fmt"
	"time"

	"github.com/lagoonresort/reservation-backend/internal/database"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// CronService manages scheduled maintenance jobs
type CronService struct {
	cron             *cron.Cron
	pricing          *PricingService
	rooms            *RoomService
	refreshTokenRepo *database.RefreshTokenRepository
	audit            *AuditService
	auditRetention   time.Duration
	logger           *logrus.Logger
}

// NewCronService creates a new CronService
func NewCronService(
	pricing *PricingService,
	rooms *RoomService,
	refreshTokenRepo *database.RefreshTokenRepository,
	audit *AuditService,
	auditRetention time.Duration,
	logger *logrus.Logger,
) *CronService {
	printf := cron.PrintfLogger(logger)
	c := cron.New(
		cron.WithSeconds(),
		cron.WithLocation(time.UTC),
		cron.WithChain(cron.Recover(printf), cron.SkipIfStillRunning(printf)),
	)

	return &CronService{
		cron:             c,
		pricing:          pricing,
		rooms:            rooms,
		refreshTokenRepo: refreshTokenRepo,
		audit:            audit,
		auditRetention:   auditRetention,
		logger:           logger,
	}
}

// Start schedules all jobs and starts the scheduler
func (s *CronService) Start() error {
	jobs := []struct {
		spec string
		name string
		run  func()
	}{
		// second minute hour day month weekday
		{"0 5 0 * * *", "refresh dynamic prices", s.refreshDynamicPricesJob},
		{"0 15 * * * *", "cleanup expired refresh tokens", s.cleanupRefreshTokensJob},
		{"0 0 4 * * 0", "cleanup old audit logs", s.cleanupAuditLogsJob},
	}

	for _, job := range jobs {
		if _, err := s.cron.AddFunc(job.spec, job.run); err != nil {
			return fmt.Errorf("failed to schedule %s job: %w", job.name, err)
		}
		s.logger.WithFields(logrus.Fields{"job": job.name, "schedule": job.spec}).Info("Scheduled job")
	}

	s.cron.Start()
	s.logger.Info("Cron service started")
	return nil
}

// Stop stops the scheduler and waits for running jobs
func (s *CronService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Cron service stopped")
}

// refreshDynamicPricesJob reprices every room for the new day. The December
// surcharge starts and ends at midnight, so the listing cache is dropped too.
func (s *CronService) refreshDynamicPricesJob() {
	start := time.Now()

	updated, err := s.pricing.RefreshAllDynamicPrices(start.UTC())
	if err != nil {
		s.logger.WithError(err).Error("Dynamic price refresh failed")
		return
	}
	s.rooms.InvalidateListing(context.Background())

	s.logger.WithFields(logrus.Fields{
		"rooms":    updated,
		"duration": time.Since(start).String(),
	}).Info("Dynamic prices refreshed")
}

func (s *CronService) cleanupRefreshTokensJob() {
	removed, err := s.refreshTokenRepo.CleanupExpiredTokens()
	if err != nil {
		s.logger.WithError(err).Error("Refresh token cleanup failed")
		return
	}
	s.logger.WithField("removed", removed).Info("Expired refresh tokens removed")
}

func (s *CronService) cleanupAuditLogsJob() {
	removed, err := s.audit.CleanupOldAuditLogs(s.auditRetention)
	if err != nil {
		s.logger.WithError(err).Error("Audit log cleanup failed")
		return
	}
	s.logger.WithField("removed", removed).Info("Old audit logs removed")
}

// RunAllNow runs every job once, synchronously
func (s *CronService) RunAllNow() {
	s.refreshDynamicPricesJob()
	s.cleanupRefreshTokensJob()
	s.cleanupAuditLogsJob()
}

// GetJobStatus returns the status of scheduled jobs
func (s *CronService) GetJobStatus() map[string]interface{} {
	entries := s.cron.Entries()

	jobs := make([]map[string]interface{}, 0, len(entries))
	for _, entry := range entries {
		jobs = append(jobs, map[string]interface{}{
			"id":       entry.ID,
			"next_run": entry.Next,
			"prev_run": entry.Prev,
		})
	}

	return map[string]interface{}{
		"running":   len(entries) > 0,
		"job_count": len(entries),
		"jobs":      jobs,
	}
}
