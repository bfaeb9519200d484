package api

// API response types for REST endpoints and WebSocket messages

// ==============================
// REST Response Types
// ==============================

// MarketInfo represents the market's static configuration
type MarketInfo struct {
	Symbol       string `json:"symbol"`       // e.g., "BTC-USDT"
	BaseAsset    string `json:"baseAsset"`    // e.g., "BTC"
	QuoteAsset   string `json:"quoteAsset"`   // e.g., "USDT"
	TickSize     uint64 `json:"tickSize"`     // Minimum price increment
	LotSize      uint64 `json:"lotSize"`      // Minimum quantity increment
	MinOrderSize uint64 `json:"minOrderSize"` // Smallest accepted quantity
	MaxOrderSize uint64 `json:"maxOrderSize"` // Largest accepted quantity
	MaxPrice     uint64 `json:"maxPrice"`     // Largest accepted price
}

// OrderbookSnapshot represents current orderbook state
type OrderbookSnapshot struct {
	Symbol    string       `json:"symbol"`
	Bids      []PriceLevel `json:"bids"` // Sorted low to high
	Asks      []PriceLevel `json:"asks"` // Sorted low to high
	Timestamp int64        `json:"timestamp"` // Unix milliseconds
}

// PriceLevel aggregates the resting quantity at one price
type PriceLevel struct {
	Price  uint64 `json:"price"`  // Price in quote asset units
	Size   uint64 `json:"size"`   // Total resting quantity in base units
	Orders int    `json:"orders"` // Order records at this level
}

// TradeInfo represents a settled trade
type TradeInfo struct {
	ID        string `json:"id"`
	Symbol    string `json:"symbol"`
	Price     uint64 `json:"price"`
	Quantity  uint64 `json:"quantity"`
	Side      string `json:"side"`      // taker side: "bid" or "ask"
	Maker     string `json:"maker"`
	Taker     string `json:"taker"`
	Timestamp int64  `json:"timestamp"` // Unix milliseconds
}

// BalanceInfo represents one asset's escrow split for an account
type BalanceInfo struct {
	Asset    string `json:"asset"`
	Locked   uint64 `json:"locked"`   // Held against resting orders
	Unlocked uint64 `json:"unlocked"` // Free for new orders or withdrawal
}

// AccountInfo represents an account and its balances
type AccountInfo struct {
	Address  string        `json:"address"`
	Balances []BalanceInfo `json:"balances"`
}

// ==============================
// WebSocket Message Types
// ==============================

// WSSubscribeRequest is sent by a client to subscribe to channels
type WSSubscribeRequest struct {
	Op       string   `json:"op"`       // "subscribe" or "unsubscribe"
	Channels []string `json:"channels"` // e.g., ["orderbook:BTC-USDT", "trades:BTC-USDT"]
}

// OrderbookUpdate is broadcast after every placement that changed the book
type OrderbookUpdate struct {
	Type      string       `json:"type"` // "orderbook"
	Symbol    string       `json:"symbol"`
	Bids      []PriceLevel `json:"bids"`
	Asks      []PriceLevel `json:"asks"`
	Timestamp int64        `json:"timestamp"`
}

// TradeUpdate is broadcast when a trade settles
type TradeUpdate struct {
	Type      string `json:"type"` // "trade"
	Symbol    string `json:"symbol"`
	ID        string `json:"id"`
	Price     uint64 `json:"price"`
	Quantity  uint64 `json:"quantity"`
	Side      string `json:"side"`
	Timestamp int64  `json:"timestamp"`
}

// ==============================
// REST Request Types
// ==============================

// CreateAccountResponse returns a freshly minted devnet account.
// The private key is returned once and held in node custody; this is
// a devnet convenience, not a production key management scheme.
type CreateAccountResponse struct {
	Address    string `json:"address"`
	PrivateKey string `json:"privateKey"`
}

// DepositRequest is the payload for POST /api/v1/accounts/{address}/deposit
type DepositRequest struct {
	Asset  string `json:"asset"`
	Amount uint64 `json:"amount"` // 0 means the configured faucet amount
}

// SubmitOrderRequest is the payload for POST /api/v1/orders
type SubmitOrderRequest struct {
	Address  string `json:"address"`
	Side     string `json:"side"` // "bid" or "ask"
	Price    uint64 `json:"price"`
	Quantity uint64 `json:"quantity"`
}

// SubmitOrderResponse is the response from order submission
type SubmitOrderResponse struct {
	Status    string      `json:"status"` // "accepted", "rejected"
	Remaining uint64      `json:"remaining"`
	Trades    []TradeInfo `json:"trades"`
}

// ErrorResponse is returned for all errors
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
