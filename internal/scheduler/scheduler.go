package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/dtbase/dtbase/internal/config"
	"github.com/dtbase/dtbase/internal/ingress"
	"github.com/go-co-op/gocron"
)

// Scheduler periodically ingests weather data for the configured coordinates.
type Scheduler struct {
	scheduler *gocron.Scheduler
	service   *ingress.Service
	cfg       *config.Config
}

// New creates a new Scheduler.
func New(cfg *config.Config, service *ingress.Service) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		service:   service,
		cfg:       cfg,
	}
}

// Start schedules the periodic ingestion job and starts the underlying
// scheduler.
func (s *Scheduler) Start() error {
	if !s.cfg.IngressEnabled() {
		log.Println("scheduler: weather ingress not configured; nothing to schedule")
		return nil
	}

	interval := s.cfg.IngressInterval
	if interval <= 0 {
		interval = time.Hour
	}

	_, err := s.scheduler.Every(interval).Do(func() {
		log.Println("scheduler: running weather ingestion job")

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		lat, lon := s.cfg.IngressLatitude, s.cfg.IngressLongitude
		params := ingress.Params{
			FromDt:    "present",
			ToDt:      "present",
			APIKey:    s.cfg.WeatherAPIKey,
			Latitude:  &lat,
			Longitude: &lon,
		}
		if _, err := s.service.Ingest(ctx, params); err != nil {
			log.Printf("scheduler: weather ingestion failed: %v", err)
			return
		}
		log.Println("scheduler: completed weather ingestion job")
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
