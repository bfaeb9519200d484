package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"spotbook/pkg/exchange"
	"spotbook/pkg/exchange/account"
	"spotbook/pkg/exchange/book"
)

// Server handles REST API and WebSocket connections
type Server struct {
	engine       *exchange.Engine
	router       *mux.Router
	hub          *Hub
	log          *zap.SugaredLogger
	faucetAmount uint64
}

// NewServer creates a new API server wired to the matching engine.
// Settled trades and the refreshed book are pushed to WebSocket
// subscribers through the engine's trade hook.
func NewServer(engine *exchange.Engine, faucetAmount uint64, logger *zap.SugaredLogger) *Server {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	s := &Server{
		engine:       engine,
		router:       mux.NewRouter(),
		hub:          NewHub(logger),
		log:          logger,
		faucetAmount: faucetAmount,
	}

	engine.OnTrade = s.broadcastTrade

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	// API v1 routes
	api := s.router.PathPrefix("/api/v1").Subrouter()

	// Market endpoints
	api.HandleFunc("/markets", s.handleGetMarkets).Methods("GET")
	api.HandleFunc("/markets/{symbol}", s.handleGetMarket).Methods("GET")
	api.HandleFunc("/markets/{symbol}/orderbook", s.handleGetOrderbook).Methods("GET")
	api.HandleFunc("/markets/{symbol}/trades", s.handleGetTrades).Methods("GET")

	// Account endpoints
	api.HandleFunc("/accounts", s.handleCreateAccount).Methods("POST")
	api.HandleFunc("/accounts/{address}", s.handleGetAccount).Methods("GET")
	api.HandleFunc("/accounts/{address}/deposit", s.handleDeposit).Methods("POST")

	// Order submission
	api.HandleFunc("/orders", s.handleSubmitOrder).Methods("POST")

	// WebSocket endpoint
	s.router.HandleFunc("/ws", s.handleWebSocket)

	// Health check
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// Start starts the API server. ctx stops the WebSocket hub; the HTTP
// listener itself runs until the process exits.
func (s *Server) Start(ctx context.Context, addr string) error {
	// Start WebSocket hub
	go s.hub.Run(ctx)

	// CORS configuration
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:3001"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	handler := c.Handler(s.router)

	s.log.Infow("api_server_starting", "addr", addr)
	return http.ListenAndServe(addr, handler)
}

// ==============================
// REST Handlers
// ==============================

func (s *Server) marketInfo() MarketInfo {
	m := s.engine.Market()
	return MarketInfo{
		Symbol:       m.Symbol,
		BaseAsset:    m.BaseAsset,
		QuoteAsset:   m.QuoteAsset,
		TickSize:     m.TickSize,
		LotSize:      m.LotSize,
		MinOrderSize: m.MinOrderSize,
		MaxOrderSize: m.MaxOrderSize,
		MaxPrice:     m.MaxPrice,
	}
}

// checkSymbol rejects requests for any pair this node does not trade.
func (s *Server) checkSymbol(w http.ResponseWriter, r *http.Request) bool {
	symbol := mux.Vars(r)["symbol"]
	if symbol != s.engine.Market().Symbol {
		respondError(w, http.StatusNotFound, "unknown market", symbol)
		return false
	}
	return true
}

func (s *Server) handleGetMarkets(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, []MarketInfo{s.marketInfo()})
}

func (s *Server) handleGetMarket(w http.ResponseWriter, r *http.Request) {
	if !s.checkSymbol(w, r) {
		return
	}
	respondJSON(w, s.marketInfo())
}

func (s *Server) handleGetOrderbook(w http.ResponseWriter, r *http.Request) {
	if !s.checkSymbol(w, r) {
		return
	}
	bids, asks := s.engine.Depth()
	respondJSON(w, OrderbookSnapshot{
		Symbol:    s.engine.Market().Symbol,
		Bids:      toPriceLevels(bids),
		Asks:      toPriceLevels(asks),
		Timestamp: s.engine.Clock.Now().UnixMilli(),
	})
}

func (s *Server) handleGetTrades(w http.ResponseWriter, r *http.Request) {
	if !s.checkSymbol(w, r) {
		return
	}
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}
	trades := s.engine.RecentTrades(limit)
	out := make([]TradeInfo, len(trades))
	for i, tr := range trades {
		out[i] = toTradeInfo(tr)
	}
	respondJSON(w, out)
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	cap, err := s.engine.CreateAccount()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "account creation failed", err.Error())
		return
	}

	s.log.Infow("account_created", "address", cap.Address().Hex())

	respondJSON(w, CreateAccountResponse{
		Address:    cap.Address().Hex(),
		PrivateKey: cap.PrivateKeyHex(),
	})
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	addressStr := mux.Vars(r)["address"]
	if !common.IsHexAddress(addressStr) {
		respondError(w, http.StatusBadRequest, "invalid address", "")
		return
	}
	addr := common.HexToAddress(addressStr)

	balances, err := s.engine.Balances(addr)
	if err != nil {
		respondError(w, http.StatusNotFound, "account not found", addr.Hex())
		return
	}

	out := make([]BalanceInfo, len(balances))
	for i, b := range balances {
		out[i] = BalanceInfo{Asset: b.Asset, Locked: b.Locked, Unlocked: b.Unlocked}
	}
	respondJSON(w, AccountInfo{Address: addr.Hex(), Balances: out})
}

// handleDeposit is the devnet faucet: it mints the requested asset into
// the account's unlocked cell.
func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	if s.faucetAmount == 0 {
		respondError(w, http.StatusForbidden, "faucet disabled", "")
		return
	}

	cap, ok := s.custodiedAccount(w, r)
	if !ok {
		return
	}

	var req DepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if req.Amount == 0 {
		req.Amount = s.faucetAmount
	}
	if req.Amount > s.faucetAmount {
		respondError(w, http.StatusBadRequest, "amount exceeds faucet limit", strconv.FormatUint(s.faucetAmount, 10))
		return
	}

	if err := s.engine.Fund(cap, req.Asset, req.Amount); err != nil {
		respondError(w, http.StatusBadRequest, "deposit failed", err.Error())
		return
	}

	s.log.Infow("faucet_deposit", "address", cap.Address().Hex(), "asset", req.Asset, "amount", req.Amount)
	respondJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleSubmitOrder(w http.ResponseWriter, r *http.Request) {
	var req SubmitOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if !common.IsHexAddress(req.Address) {
		respondError(w, http.StatusBadRequest, "invalid address", "")
		return
	}
	cap, ok := s.engine.Capability(common.HexToAddress(req.Address))
	if !ok {
		respondError(w, http.StatusNotFound, "account not in custody", req.Address)
		return
	}

	var (
		res exchange.OrderResult
		err error
	)
	switch req.Side {
	case "bid", "buy":
		res, err = s.engine.PlaceBid(cap, req.Price, req.Quantity)
	case "ask", "sell":
		res, err = s.engine.PlaceAsk(cap, req.Price, req.Quantity)
	default:
		respondError(w, http.StatusBadRequest, "invalid side", "expected bid or ask")
		return
	}
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "order rejected", err.Error())
		return
	}

	trades := make([]TradeInfo, len(res.Trades))
	for i, tr := range res.Trades {
		trades[i] = toTradeInfo(tr)
	}
	respondJSON(w, SubmitOrderResponse{
		Status:    "accepted",
		Remaining: res.Remaining,
		Trades:    trades,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{"status": "ok"})
}

// custodiedAccount resolves the {address} path variable to a capability
// held by this node, writing the error response itself on failure.
func (s *Server) custodiedAccount(w http.ResponseWriter, r *http.Request) (*account.Capability, bool) {
	addressStr := mux.Vars(r)["address"]
	if !common.IsHexAddress(addressStr) {
		respondError(w, http.StatusBadRequest, "invalid address", "")
		return nil, false
	}
	c, found := s.engine.Capability(common.HexToAddress(addressStr))
	if !found {
		respondError(w, http.StatusNotFound, "account not in custody", addressStr)
		return nil, false
	}
	return c, true
}

// ==============================
// Broadcast Methods (called from the engine's trade hook)
// ==============================

// broadcastTrade pushes a settled trade and the refreshed book to
// WebSocket subscribers.
func (s *Server) broadcastTrade(tr exchange.Trade) {
	s.hub.BroadcastToChannel("trades:"+tr.Symbol, TradeUpdate{
		Type:      "trade",
		Symbol:    tr.Symbol,
		ID:        tr.ID,
		Price:     tr.Price,
		Quantity:  tr.Quantity,
		Side:      tr.Side,
		Timestamp: tr.Timestamp,
	})

	bids, asks := s.engine.Depth()
	s.hub.BroadcastToChannel("orderbook:"+tr.Symbol, OrderbookUpdate{
		Type:      "orderbook",
		Symbol:    tr.Symbol,
		Bids:      toPriceLevels(bids),
		Asks:      toPriceLevels(asks),
		Timestamp: tr.Timestamp,
	})
}

// ==============================
// Helper Functions
// ==============================

func toPriceLevels(levels []book.LevelSnapshot) []PriceLevel {
	out := make([]PriceLevel, len(levels))
	for i, lvl := range levels {
		var size uint64
		for _, o := range lvl.Orders {
			size += o.Quantity
		}
		out[i] = PriceLevel{Price: lvl.Price, Size: size, Orders: len(lvl.Orders)}
	}
	return out
}

func toTradeInfo(tr exchange.Trade) TradeInfo {
	return TradeInfo{
		ID:        tr.ID,
		Symbol:    tr.Symbol,
		Price:     tr.Price,
		Quantity:  tr.Quantity,
		Side:      tr.Side,
		Maker:     tr.Maker.Hex(),
		Taker:     tr.Taker.Hex(),
		Timestamp: tr.Timestamp,
	}
}

func respondJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, errMsg string, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   errMsg,
		Message: message,
	})
}
