package service

import (
	"context"
	"log"
	"time"
)

// Janitor runs the periodic maintenance sweeps, decoupled from request
// handling. Failures are logged and never escalate.
type Janitor struct {
	verification *VerificationService
	limits       *RetrievalLimitService

	verificationInterval time.Duration
	quotaInterval        time.Duration
	quotaStaleAfter      time.Duration
}

// NewJanitor создает планировщик фоновой очистки
func NewJanitor(verification *VerificationService, limits *RetrievalLimitService) *Janitor {
	return &Janitor{
		verification:         verification,
		limits:               limits,
		verificationInterval: time.Hour,
		quotaInterval:        24 * time.Hour,
		quotaStaleAfter:      30 * 24 * time.Hour,
	}
}

// Run blocks until the context is cancelled, sweeping expired verification
// records hourly and stale zero-count quota records daily.
func (j *Janitor) Run(ctx context.Context) {
	verificationTicker := time.NewTicker(j.verificationInterval)
	defer verificationTicker.Stop()
	quotaTicker := time.NewTicker(j.quotaInterval)
	defer quotaTicker.Stop()

	log.Println("Запуск механизма периодической очистки записей верификации и лимитов")

	for {
		select {
		case <-verificationTicker.C:
			if _, err := j.verification.CleanupExpired(time.Now()); err != nil {
				log.Printf("Ошибка при очистке записей верификации: %v", err)
			}
		case <-quotaTicker.C:
			cutoff := time.Now().Add(-j.quotaStaleAfter)
			if _, err := j.limits.CleanupStale(cutoff); err != nil {
				log.Printf("Ошибка при очистке устаревших записей лимитов: %v", err)
			}
		case <-ctx.Done():
			log.Println("Завершение работы горутины фоновой очистки")
			return
		}
	}
}
