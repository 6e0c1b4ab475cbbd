package web

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"equity_bot/config"
	"equity_bot/internal/engine"
)

// Server is the read-only dashboard. It runs its own refresh goroutine that
// re-evaluates the market on a fixed interval; it never places orders and
// shares nothing with the trading loop but the ledger read path.
type Server struct {
	engine *engine.Engine
	cfg    *config.Config

	mu   sync.RWMutex
	snap engine.Snapshot

	stopOnce sync.Once
	stopChan chan struct{}
}

func NewServer(eng *engine.Engine, cfg *config.Config) *Server {
	return &Server{
		engine:   eng,
		cfg:      cfg,
		stopChan: make(chan struct{}),
	}
}

func (s *Server) Start() {
	http.HandleFunc("/", s.handleIndex)
	http.HandleFunc("/api/status", s.handleStatus)
	http.HandleFunc("/api/trades", s.handleTrades)
	http.HandleFunc("/api/health", s.handleHealth)
	http.HandleFunc("/chart", s.handleChart)

	go s.refreshLoop()

	log.Printf("🌐 Web server starting on http://localhost:%s", s.cfg.Port)
	go func() {
		if err := http.ListenAndServe(":"+s.cfg.Port, nil); err != nil {
			log.Printf("Web server error: %v", err)
		}
	}()
}

func (s *Server) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
}

func (s *Server) refreshLoop() {
	ticker := time.NewTicker(s.cfg.RefreshInterval)
	defer ticker.Stop()

	s.refresh()
	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.refresh()
		}
	}
}

func (s *Server) refresh() {
	snap := s.engine.Evaluate(context.Background())
	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()
}

func (s *Server) snapshot() engine.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, indexHTML)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.snapshot()

	response := map[string]interface{}{
		"ticker":     s.cfg.Ticker,
		"running":    s.engine.IsRunning(),
		"signal":     snap.Signal,
		"sentiment":  snap.Sentiment,
		"headlines":  snap.Headlines,
		"bars":       len(snap.Bars),
		"updated_at": snap.At.Unix(),
		"timestamp":  time.Now().Unix(),
	}
	if snap.SignalErr != nil {
		response["signal_error"] = snap.SignalErr.Error()
	}
	if snap.NewsErr != nil {
		response["news_error"] = snap.NewsErr.Error()
	}
	if snap.ClassifyErr != nil {
		response["classify_error"] = snap.ClassifyErr.Error()
	}

	if position, account, err := s.engine.AccountState(r.Context()); err == nil {
		response["position"] = position.Quantity
		response["cash"] = account.Cash
	} else {
		response["broker_error"] = err.Error()
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func (s *Server) handleTrades(w http.ResponseWriter, r *http.Request) {
	n := 10
	if raw := r.URL.Query().Get("n"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 500 {
			n = parsed
		}
	}

	records, err := s.engine.RecentTrades(r.Context(), n)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	trades := make([]map[string]interface{}, 0, len(records))
	for _, rec := range records {
		trades = append(trades, map[string]interface{}{
			"timestamp": rec.Timestamp.Unix(),
			"symbol":    rec.Symbol,
			"action":    rec.Action,
			"quantity":  rec.Quantity,
			"price":     rec.Price,
			"order_id":  rec.OrderID,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"trades": trades})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"running": s.engine.IsRunning(),
		"time":    time.Now().Unix(),
	})
}
