package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const lockKey = "trooc:scheduler:settlement"

// Scheduler drives periodic settlement runs against the HTTP API. When
// several instances run, a Redis lock ensures only one of them settles on
// any given tick; the others skip quietly.
type Scheduler struct {
	client   *Client
	locker   *redislock.Client
	interval time.Duration
	email    string
	password string
}

// NewScheduler builds a scheduler that ticks at the given interval. The
// redis client is used only for the tick lock; pass nil to run without
// distributed locking in single-instance deployments.
func NewScheduler(client *Client, redisClient *redis.Client, interval time.Duration, email, password string) *Scheduler {
	s := &Scheduler{
		client:   client,
		interval: interval,
		email:    email,
		password: password,
	}
	if redisClient != nil {
		s.locker = redislock.New(redisClient)
	}
	return s
}

// Run ticks until the context is cancelled. Each tick is independent; a
// failed run is logged and abandoned, and the next tick starts over.
func (s *Scheduler) Run(ctx context.Context) {
	log.WithField("interval", s.interval).Info("Settlement scheduler started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("Settlement scheduler stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	if s.locker != nil {
		lock, err := s.locker.Obtain(ctx, lockKey, s.interval/2, nil)
		if errors.Is(err, redislock.ErrNotObtained) {
			log.Debug("Settlement lock held elsewhere, skipping tick")
			return
		}
		if err != nil {
			log.WithError(err).Error("Failed to obtain settlement lock")
			return
		}
		defer func() {
			if err := lock.Release(ctx); err != nil {
				log.WithError(err).Warn("Failed to release settlement lock")
			}
		}()
	}

	if err := s.runSettlement(ctx); err != nil {
		log.WithError(err).Error("Settlement run failed")
	}
}

// runSettlement performs one full settlement: login, create a batch over the
// trailing window, then process it. An empty window is not an error.
func (s *Scheduler) runSettlement(ctx context.Context) error {
	token, err := s.client.Login(ctx, s.email, s.password)
	if err != nil {
		return err
	}

	batch, err := s.client.CreateBatch(ctx, token)
	if errors.Is(err, ErrNoEligibleRecords) {
		log.Info("No unpaid revenue in window, nothing to settle")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to create batch: %w", err)
	}

	transactionID := newTransactionID()
	updated, err := s.client.ProcessBatch(ctx, token, batch.BatchID, transactionID)
	if err != nil {
		return fmt.Errorf("failed to process batch %s: %w", batch.BatchID, err)
	}

	log.WithFields(log.Fields{
		"batch_id":        batch.BatchID,
		"transaction_id":  transactionID,
		"shops":           batch.TotalShops,
		"records_updated": updated,
	}).Info("Settlement run completed")
	return nil
}

func newTransactionID() string {
	return fmt.Sprintf("TXN-%s-%s",
		time.Now().UTC().Format("20060102150405"),
		uuid.NewString()[:8])
}
