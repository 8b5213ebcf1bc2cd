package services

import (
	"context"
	"log"

	"librental/internal/adapters/persistence/repositories"

	"github.com/robfig/cron/v3"
)

// CronService runs scheduled maintenance jobs
type CronService struct {
	cron             *cron.Cron
	refreshTokenRepo repositories.RefreshTokenRepository
}

// NewCronService creates a new cron service
func NewCronService(refreshTokenRepo repositories.RefreshTokenRepository) *CronService {
	return &CronService{
		cron:             cron.New(),
		refreshTokenRepo: refreshTokenRepo,
	}
}

// Start registers and starts all scheduled jobs
func (s *CronService) Start() {
	// Purge expired refresh tokens every night at 03:30
	_, err := s.cron.AddFunc("30 3 * * *", s.purgeExpiredTokens)
	if err != nil {
		log.Printf("⚠️ Failed to schedule token purge job: %v", err)
		return
	}

	s.cron.Start()
	log.Println("✅ Cron service started (token purge at 03:30 daily)")
}

// Stop stops all scheduled jobs
func (s *CronService) Stop() {
	s.cron.Stop()
	log.Println("🛑 Cron service stopped")
}

func (s *CronService) purgeExpiredTokens() {
	deleted, err := s.refreshTokenRepo.DeleteExpired(context.Background())
	if err != nil {
		log.Printf("⚠️ Token purge failed: %v", err)
		return
	}
	log.Printf("🧹 Purged %d expired refresh tokens", deleted)
}
