package exchange

import (
	"context"

	"go.uber.org/zap"

	"github.com/rishavpaul/disruptor/executor"
	"github.com/rishavpaul/disruptor/internal/events"
	"github.com/rishavpaul/disruptor/internal/marketdata"
	"github.com/rishavpaul/disruptor/internal/matching"
	"github.com/rishavpaul/disruptor/internal/orders"
	"github.com/rishavpaul/disruptor/internal/risk"
	"github.com/rishavpaul/disruptor/internal/settlement"
	"github.com/rishavpaul/disruptor/producer"
	"github.com/rishavpaul/disruptor/ringbuffer"
	"github.com/rishavpaul/disruptor/sequencer"
	"github.com/rishavpaul/disruptor/topology"
	"github.com/rishavpaul/disruptor/wait"
)

// Config controls how an exchange pipeline is wired.
type Config struct {
	BufferSize   int64
	EventLogDir  string
	RiskConfig   risk.Config
	WaitStrategy wait.Strategy
	Logger       *zap.Logger
}

// Pipeline bundles the built coordinator and producer with the domain
// services a caller may still want direct access to (e.g. to inspect
// order book depth for an API handler).
type Pipeline struct {
	Coordinator   pipelineCoordinator
	Producer      producer.Producer[Event]
	Engine        *matching.Engine
	Checker       *risk.Checker
	ClearingHouse *settlement.ClearingHouse
	MarketData    *marketdata.Publisher
	EventLog      *events.EventLog
}

// pipelineCoordinator is the subset of coordinator.Coordinator the exchange
// package depends on, kept narrow so callers don't need to import the
// coordinator package just to Start/Stop a Pipeline.
type pipelineCoordinator interface {
	Start()
	Stop()
	HasBacklog() bool
}

// Build constructs the risk -> matching pipeline, fanning out after the
// matching stage to the event log, market data publication and settlement
// recording in parallel (the .handler().then().then().and().and() shape).
func Build(cfg Config) (*Pipeline, error) {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.BufferSize == 0 {
		cfg.BufferSize = 16384
	}
	if cfg.RiskConfig.MaxOrderSize == 0 {
		cfg.RiskConfig = risk.DefaultConfig()
	}
	if cfg.WaitStrategy == nil {
		cfg.WaitStrategy = wait.Yielding{}
	}

	eventLog, err := events.NewEventLog(events.EventLogConfig{
		Path:     cfg.EventLogDir,
		SyncMode: false,
		Logger:   cfg.Logger,
	})
	if err != nil {
		return nil, err
	}

	engine := matching.NewEngine(cfg.Logger)
	checker := risk.NewChecker(cfg.RiskConfig, cfg.Logger)
	clearingHouse := settlement.NewClearingHouse(cfg.Logger)
	publisher := marketdata.NewPublisher(1024, cfg.Logger)

	buf := ringbuffer.New[Event](cfg.BufferSize, func() *Event { return &Event{} })
	// SubmitOrder/CancelOrder are called from per-request goroutines (one
	// per net/http request in cmd/server), so the pipeline always has more
	// than one producer in flight and needs the CAS-arbitrated sequencer,
	// not the single-producer one.
	seq := sequencer.NewMultiProducer(cfg.BufferSize)

	builder := topology.NewBuilder[Event](buf, seq, cfg.WaitStrategy, executor.Goroutine{}, cfg.Logger)
	builder.
		Handler(&RiskHandler{Checker: checker, Logger: cfg.Logger}).
		Then(&MatchingHandler{Engine: engine}).
		Then(&EventLogHandler{Log: eventLog}).
		And(&MarketDataHandler{Publisher: publisher, Engine: engine}).
		And(&SettlementHandler{ClearingHouse: clearingHouse, Checker: checker})

	coord, prod := builder.Build()

	return &Pipeline{
		Coordinator:   coord,
		Producer:      prod,
		Engine:        engine,
		Checker:       checker,
		ClearingHouse: clearingHouse,
		MarketData:    publisher,
		EventLog:      eventLog,
	}, nil
}

// SubmitOrder publishes order and blocks until the event log stage has
// durably recorded its outcome (accept, reject, or fills), returning the
// same *orders.ExecutionResult the matching engine produced. A ctx
// cancellation unblocks the caller without rolling back the submission;
// the order is already committed to the pipeline once Publish returns.
func (p *Pipeline) SubmitOrder(ctx context.Context, order *orders.Order) (*orders.ExecutionResult, string, error) {
	done := make(chan struct{})
	var slot *Event

	p.Producer.Publish(func(e *Event, seq int64) {
		e.Reset()
		e.Kind = KindNewOrder
		e.Order = order
		e.Done = done
		slot = e
	})

	select {
	case <-done:
		return slot.Result, slot.Reject, nil
	case <-ctx.Done():
		return nil, "", ctx.Err()
	}
}

// CancelOrder publishes a cancellation and blocks until it has been applied
// (or failed to apply) and durably logged.
func (p *Pipeline) CancelOrder(ctx context.Context, symbol string, orderID uint64) (*orders.Order, error) {
	done := make(chan struct{})
	var slot *Event

	p.Producer.Publish(func(e *Event, seq int64) {
		e.Reset()
		e.Kind = KindCancelOrder
		e.CancelSymbol = symbol
		e.CancelOrderID = orderID
		e.Done = done
		slot = e
	})

	select {
	case <-done:
		return slot.CancelledOrder, slot.CancelErr
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
