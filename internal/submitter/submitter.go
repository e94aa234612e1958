// Package submitter runs the submission pipeline as a long-lived service:
// it consumes submission requests from Kafka, drives each one through the
// pipeline concurrently, and exposes an operator-facing admin server.
package submitter

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/google/uuid"

	"github.com/cmatc13/ledgerflow/internal/codec"
	"github.com/cmatc13/ledgerflow/internal/journal"
	"github.com/cmatc13/ledgerflow/internal/payload"
	"github.com/cmatc13/ledgerflow/internal/pipeline"
	"github.com/cmatc13/ledgerflow/internal/signing"
	"github.com/cmatc13/ledgerflow/pkg/config"
	"github.com/cmatc13/ledgerflow/pkg/errors"
	"github.com/cmatc13/ledgerflow/pkg/health"
	"github.com/cmatc13/ledgerflow/pkg/logging"
	"github.com/cmatc13/ledgerflow/pkg/metrics"
	"github.com/cmatc13/ledgerflow/pkg/service"
)

// Request is a submission request consumed from the request topic
type Request struct {
	ID        string                   `json:"id"`
	Target    payload.TargetDescriptor `json:"target"`
	Pricing   payload.PricingPolicy    `json:"pricing"`
	Args      []codec.Argument         `json:"args"`
	TimeoutMs int64                    `json:"timeout_ms,omitempty"`
}

// Service consumes submission requests and runs them through the pipeline
type Service struct {
	cfg      *config.Config
	pipeline *pipeline.Pipeline
	identity *signing.Identity
	journal  journal.Journal

	consumer *kafka.Consumer
	logger   *logging.Logger
	metrics  *metrics.Metrics
	health   *health.Registry

	admin  *adminServer
	status service.Status
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates the submitter service. The pipeline, identity, and journal
// are constructed once per process by the caller and shared by reference
// across all submissions.
func New(
	cfg *config.Config,
	pl *pipeline.Pipeline,
	identity *signing.Identity,
	jnl journal.Journal,
	m *metrics.Metrics,
	logger *logging.Logger,
) (*Service, error) {
	consumer, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers": cfg.Kafka.Brokers,
		"group.id":          cfg.Kafka.ConsumerGroup,
		"auto.offset.reset": "earliest",
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Kafka consumer")
	}

	healthRegistry := health.NewRegistry(logger)

	s := &Service{
		cfg:      cfg,
		pipeline: pl,
		identity: identity,
		journal:  jnl,
		consumer: consumer,
		logger:   logger,
		metrics:  m,
		health:   healthRegistry,
		status:   service.StatusStopped,
	}

	healthRegistry.Register("kafka-consumer", func(ctx context.Context) health.Check {
		check := health.Check{Name: "kafka-consumer", LastChecked: time.Now()}
		if s.Status() == service.StatusRunning {
			check.Status = health.StatusUp
		} else {
			check.Status = health.StatusDown
			check.Message = "consumer loop not running"
		}
		return check
	})
	if redisJournal, ok := jnl.(*journal.RedisJournal); ok {
		healthRegistry.Register("journal", func(ctx context.Context) health.Check {
			check := health.Check{Name: "journal", LastChecked: time.Now()}
			if err := redisJournal.Ping(ctx); err != nil {
				check.Status = health.StatusDown
				check.Error = err
			} else {
				check.Status = health.StatusUp
			}
			return check
		})
	}

	return s, nil
}

// Name returns the service name
func (s *Service) Name() string {
	return "submitter"
}

// Start subscribes to the request topic and launches the consumer loop
// and the admin server
func (s *Service) Start(ctx context.Context) error {
	s.status = service.StatusStarting

	if err := s.consumer.SubscribeTopics([]string{s.cfg.Kafka.RequestTopic}, nil); err != nil {
		s.status = service.StatusError
		return errors.Wrap(err, "failed to subscribe to request topic")
	}

	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.consume(loopCtx)

	if err := s.startAdminServer(loopCtx); err != nil {
		s.status = service.StatusError
		cancel()
		return err
	}

	s.status = service.StatusRunning
	return nil
}

// Stop shuts down the consumer loop and waits for in-flight submissions
func (s *Service) Stop(ctx context.Context) error {
	s.status = service.StatusStopping

	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()

	if err := s.consumer.Close(); err != nil {
		s.logger.WithError(err).Error("Error closing Kafka consumer")
	}
	s.stopAdminServer(ctx)

	s.status = service.StatusStopped
	return nil
}

// Status returns the current service status
func (s *Service) Status() service.Status {
	return s.status
}

// Health performs a health check
func (s *Service) Health() error {
	if s.status != service.StatusRunning {
		return errors.New("submitter not running")
	}
	return nil
}

// Dependencies returns a list of services this service depends on
func (s *Service) Dependencies() []string {
	return []string{}
}

// consume reads submission requests until the context is cancelled.
// Each request runs in its own goroutine; submissions are independent
// state machines and need no cross-request locking.
func (s *Service) consume(ctx context.Context) {
	defer s.wg.Done()

	s.logger.Info("Submitter started, waiting for requests",
		"topic", s.cfg.Kafka.RequestTopic)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Shutting down submitter consumer loop")
			return
		default:
			msg, err := s.consumer.ReadMessage(100 * time.Millisecond)
			if err != nil {
				if kafkaErr, ok := err.(kafka.Error); ok && kafkaErr.Code() == kafka.ErrTimedOut {
					continue
				}
				s.logger.WithError(err).Error("Error reading request message")
				continue
			}

			var req Request
			if err := json.Unmarshal(msg.Value, &req); err != nil {
				s.logger.WithError(err).Error("Discarding malformed submission request")
				continue
			}
			if req.ID == "" {
				req.ID = uuid.New().String()
			}

			s.wg.Add(1)
			go func(req Request) {
				defer s.wg.Done()
				s.handle(ctx, req)
			}(req)
		}
	}
}

// handle drives one request through the pipeline
func (s *Service) handle(ctx context.Context, req Request) {
	log := s.logger.WithField("request_id", req.ID)

	timeout := s.cfg.Pipeline.DefaultTimeout
	if req.TimeoutMs > 0 {
		timeout = time.Duration(req.TimeoutMs) * time.Millisecond
	}

	extracted, err := s.pipeline.SubmitAndConfirm(ctx, req.Target, req.Pricing, req.Args, s.identity, timeout)
	if err != nil {
		log.WithError(err).Error("Submission failed", "code", errors.CodeOf(err))
		return
	}

	log.Info("Submission executed", "address", extracted.Address)
}
