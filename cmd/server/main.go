// Package main provides the order matching engine server.
//
// Architecture:
//
//	HTTP handlers ---Publish---> ring buffer ---> risk -> matching -+-> event log
//	                                                                +-> market data
//	                                                                +-> settlement
//
// Every handler is a processor.EventHandler wired through a
// topology.Builder (internal/exchange); HTTP handlers never touch the
// matching engine directly, they submit through the pipeline and wait on
// the event log stage's completion signal.
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rishavpaul/disruptor/config"
	"github.com/rishavpaul/disruptor/internal/exchange"
	"github.com/rishavpaul/disruptor/internal/orders"
	"github.com/rishavpaul/disruptor/metrics"
)

// Server is the HTTP façade over an exchange.Pipeline.
type Server struct {
	pipeline   *exchange.Pipeline
	metrics    *metrics.Registry
	logger     *zap.Logger
	httpServer *http.Server
}

// NewServer constructs a Server from cfg.
func NewServer(cfg config.Config, logger *zap.Logger) (*Server, error) {
	pipeline, err := exchange.Build(exchange.Config{
		BufferSize:   cfg.BufferSize,
		EventLogDir:  cfg.EventLogPath,
		RiskConfig:   cfg.RiskConfig(),
		WaitStrategy: cfg.Strategy(),
		Logger:       logger,
	})
	if err != nil {
		return nil, err
	}
	for _, symbol := range cfg.Symbols {
		pipeline.Engine.AddSymbol(symbol)
	}
	for _, acct := range []string{"TRADER1", "TRADER2", "MM1", "MM2"} {
		pipeline.ClearingHouse.GetOrCreateAccount(acct, 10_000_000)
	}

	reg := metrics.NewRegistry()
	reg.MustRegister(prometheus.DefaultRegisterer)

	s := &Server{pipeline: pipeline, metrics: reg, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("/order", s.handleOrder)
	mux.HandleFunc("/cancel", s.handleCancel)
	mux.HandleFunc("/book", s.handleBook)
	mux.HandleFunc("/account", s.handleAccount)
	mux.HandleFunc("/stats", s.handleStats)
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())

	s.httpServer = &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Port),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s, nil
}

// Start starts the pipeline and blocks serving HTTP until shutdown.
func (s *Server) Start() error {
	s.logger.Info("starting order matching engine", zap.String("addr", s.httpServer.Addr))
	s.pipeline.Coordinator.Start()
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops HTTP, then the pipeline, then closes the event
// log.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return err
	}
	s.pipeline.Coordinator.Stop()
	return s.pipeline.EventLog.Close()
}

type orderRequest struct {
	Symbol        string `json:"symbol"`
	Side          string `json:"side"`
	Type          string `json:"type"`
	Price         string `json:"price"`
	Quantity      int64  `json:"quantity"`
	AccountID     string `json:"account_id"`
	ClientOrderID string `json:"client_order_id,omitempty"`
}

type fillInfo struct {
	TradeID  uint64 `json:"trade_id"`
	Price    string `json:"price"`
	Quantity int64  `json:"quantity"`
}

type orderResponse struct {
	Success      bool       `json:"success"`
	OrderID      uint64     `json:"order_id,omitempty"`
	Status       string     `json:"status,omitempty"`
	FilledQty    int64      `json:"filled_qty,omitempty"`
	RemainingQty int64      `json:"remaining_qty,omitempty"`
	Fills        []fillInfo `json:"fills,omitempty"`
	RejectReason string     `json:"reject_reason,omitempty"`
	Error        string     `json:"error,omitempty"`
}

func (s *Server) handleOrder(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req orderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, orderResponse{Error: "invalid request: " + err.Error()})
		return
	}

	var side orders.Side
	switch req.Side {
	case "buy", "BUY":
		side = orders.SideBuy
	case "sell", "SELL":
		side = orders.SideSell
	default:
		writeJSON(w, http.StatusBadRequest, orderResponse{Error: "invalid side"})
		return
	}

	var orderType orders.OrderType
	switch req.Type {
	case "market", "MARKET":
		orderType = orders.OrderTypeMarket
	case "limit", "LIMIT", "":
		orderType = orders.OrderTypeLimit
	case "ioc", "IOC":
		orderType = orders.OrderTypeIOC
	case "fok", "FOK":
		orderType = orders.OrderTypeFOK
	default:
		writeJSON(w, http.StatusBadRequest, orderResponse{Error: "invalid type"})
		return
	}

	var price int64
	if req.Price != "" {
		f, err := strconv.ParseFloat(req.Price, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, orderResponse{Error: "invalid price: " + err.Error()})
			return
		}
		price = orders.ParsePrice(f)
	}

	clientOrderID := req.ClientOrderID
	if clientOrderID == "" {
		clientOrderID = uuid.NewString()
	}

	order := &orders.Order{
		Symbol:        req.Symbol,
		Side:          side,
		Type:          orderType,
		Price:         price,
		Quantity:      req.Quantity,
		AccountID:     req.AccountID,
		ClientOrderID: clientOrderID,
		Timestamp:     orders.Now(),
		Status:        orders.OrderStatusNew,
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	result, reject, err := s.pipeline.SubmitOrder(ctx, order)
	s.metrics.EventsPublished.Inc()
	if err != nil {
		writeJSON(w, http.StatusGatewayTimeout, orderResponse{Error: "processing timeout"})
		return
	}
	s.metrics.EventsConsumed.Inc()
	s.metrics.SampleBacklog(s.pipeline.Coordinator)

	if reject != "" {
		writeJSON(w, http.StatusBadRequest, orderResponse{OrderID: order.ID, RejectReason: reject})
		return
	}

	fills := make([]fillInfo, len(result.Fills))
	for i, f := range result.Fills {
		fills[i] = fillInfo{TradeID: f.TradeID, Price: orders.FormatPrice(f.Price), Quantity: f.Quantity}
	}

	writeJSON(w, http.StatusOK, orderResponse{
		Success:      true,
		OrderID:      order.ID,
		Status:       order.Status.String(),
		FilledQty:    order.FilledQty,
		RemainingQty: order.RemainingQty(),
		Fills:        fills,
	})
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost && r.Method != http.MethodDelete {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	symbol := r.URL.Query().Get("symbol")
	orderIDStr := r.URL.Query().Get("order_id")
	if symbol == "" || orderIDStr == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "symbol and order_id required"})
		return
	}
	orderID, err := strconv.ParseUint(orderIDStr, 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order_id"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	order, err := s.pipeline.CancelOrder(ctx, symbol, orderID)
	if err != nil {
		writeJSON(w, http.StatusGatewayTimeout, map[string]string{"error": "processing timeout"})
		return
	}
	if order == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":       true,
		"order_id":      order.ID,
		"cancelled_qty": order.RemainingQty(),
	})
}

func (s *Server) handleBook(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "symbol required"})
		return
	}
	book := s.pipeline.Engine.GetOrderBook(symbol)
	if book == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "symbol not found"})
		return
	}
	levels := 10
	if l := r.URL.Query().Get("levels"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			levels = parsed
		}
	}

	bids := book.GetBidDepth(levels)
	asks := book.GetAskDepth(levels)
	bidData := make([]map[string]interface{}, len(bids))
	for i, level := range bids {
		bidData[i] = map[string]interface{}{"price": orders.FormatPrice(level.Price), "quantity": level.TotalQty, "orders": level.Count()}
	}
	askData := make([]map[string]interface{}, len(asks))
	for i, level := range asks {
		askData[i] = map[string]interface{}{"price": orders.FormatPrice(level.Price), "quantity": level.TotalQty, "orders": level.Count()}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"symbol": symbol,
		"bids":   bidData,
		"asks":   askData,
		"spread": orders.FormatPrice(book.GetSpread()),
		"mid":    orders.FormatPrice(book.GetMidPrice()),
	})
}

func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	accountID := r.URL.Query().Get("id")
	if accountID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "id required"})
		return
	}
	account := s.pipeline.ClearingHouse.GetAccount(accountID)
	if account == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "account not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":       account.ID,
		"cash":     orders.FormatPrice(account.Cash),
		"holdings": account.Holdings,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := s.pipeline.ClearingHouse.GetSettlementStats()
	var totalOrders int
	for _, symbol := range s.pipeline.Engine.Symbols() {
		if book := s.pipeline.Engine.GetOrderBook(symbol); book != nil {
			totalOrders += book.TotalOrders()
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"orders_in_book":   totalOrders,
		"event_log_seq":    s.pipeline.EventLog.GetLastSequence(),
		"settlement_stats": stats,
		"has_backlog":      s.pipeline.Coordinator.HasBacklog(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func main() {
	var cfgPath string

	root := &cobra.Command{
		Use:   "disruptor-server",
		Short: "Order matching engine built on the disruptor pipeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := zap.NewProduction()
			if err != nil {
				return err
			}
			defer logger.Sync()

			cfg, err := config.Load(cfgPath, logger, nil)
			if err != nil {
				return err
			}
			if port, _ := cmd.Flags().GetInt("port"); cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			if eventLog, _ := cmd.Flags().GetString("event-log"); cmd.Flags().Changed("event-log") {
				cfg.EventLogPath = eventLog
			}

			server, err := NewServer(cfg, logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			go func() {
				<-ctx.Done()
				logger.Info("received shutdown signal")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					logger.Error("shutdown error", zap.Error(err))
				}
			}()

			if err := server.Start(); err != nil && err != http.ErrServerClosed {
				return err
			}
			logger.Info("server stopped")
			return nil
		},
	}
	root.Flags().StringVar(&cfgPath, "config", "", "path to a config file (toml/yaml/json)")
	root.Flags().Int("port", 8080, "server port")
	root.Flags().String("event-log", "events.log", "path to event log file")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
