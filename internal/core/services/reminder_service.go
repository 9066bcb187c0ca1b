package services

import (
	"context"
	"errors"
	"log"
	"time"

	"emitrack/internal/adapters/persistence/models"
	"emitrack/internal/adapters/persistence/repositories"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// ReminderService pushes a daily EMI_DUE nudge to devices whose
// customer has an overdue installment, and runs nightly session
// housekeeping. Read-only over the ledger: counters are only ever
// advanced through LedgerService.
type ReminderService struct {
	db          *gorm.DB
	pushService *PushService
	tokenRepo   repositories.RefreshTokenRepository
	cron        *cron.Cron
}

// NewReminderService creates a new reminder service
func NewReminderService(db *gorm.DB, pushService *PushService) *ReminderService {
	return &ReminderService{
		db:          db,
		pushService: pushService,
		tokenRepo:   repositories.NewRefreshTokenRepository(db),
		cron:        cron.New(),
	}
}

// Start schedules the daily reminder run (09:00 server time) and the
// nightly expired-session purge (03:30)
func (s *ReminderService) Start() {
	if _, err := s.cron.AddFunc("0 9 * * *", s.SendDueReminders); err != nil {
		log.Printf("❌ Failed to schedule due reminders: %v", err)
		return
	}
	if _, err := s.cron.AddFunc("30 3 * * *", s.PurgeExpiredTokens); err != nil {
		log.Printf("❌ Failed to schedule token purge: %v", err)
		return
	}
	s.cron.Start()
	log.Println("🚀 ReminderService started (daily 09:00)")
}

// Stop stops the scheduler
func (s *ReminderService) Stop() {
	s.cron.Stop()
	log.Println("🛑 ReminderService stopped")
}

// SendDueReminders pushes EMI_DUE to every device bound to a customer
// whose next payment date has passed with months still remaining
func (s *ReminderService) SendDueReminders() {
	if !s.pushService.IsEnabled() {
		log.Println("⚠️ Push delivery disabled, skipping due reminders")
		return
	}

	ctx := context.Background()
	today := time.Now().Truncate(24 * time.Hour)

	var customers []models.Customer
	err := s.db.WithContext(ctx).
		Where("next_payment_date IS NOT NULL AND next_payment_date <= ?", today).
		Where("remaining_months > 0").
		Find(&customers).Error
	if err != nil {
		log.Printf("❌ Due reminder query error: %v", err)
		return
	}

	sent := 0
	for _, customer := range customers {
		if customer.IMEI1 == "" {
			continue
		}

		var token models.FCMToken
		err := s.db.WithContext(ctx).Where("imei_1 = ?", customer.IMEI1).First(&token).Error
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				log.Printf("❌ Push token lookup error for customer %d: %v", customer.ID, err)
			}
			continue
		}

		if err := s.pushService.SendCommand(token.Token, "EMI_DUE"); err != nil {
			log.Printf("❌ Due reminder push failed for customer %d: %v", customer.ID, err)
			continue
		}
		sent++
	}

	if sent > 0 {
		log.Printf("📅 Due reminders sent: %d of %d overdue customers", sent, len(customers))
	}
}

// PurgeExpiredTokens drops refresh tokens past their expiry
func (s *ReminderService) PurgeExpiredTokens() {
	if err := s.tokenRepo.DeleteExpired(context.Background()); err != nil {
		log.Printf("❌ Expired token purge failed: %v", err)
	}
}
