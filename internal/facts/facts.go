// Package facts builds the normalized on-chain snapshot the risk pipeline
// consumes. All ledger records are converted to typed structures here, at the
// ingestion boundary; nothing downstream touches raw Horizon JSON.
package facts

import "time"

// NativeAssetCode is the display code used for the chain's base asset.
const NativeAssetCode = "XLM"

// Asset is one asset position (balance or trustline).
type Asset struct {
	Code   string  `json:"code"`
	Issuer string  `json:"issuer,omitempty"` // empty for the native asset
	Amount float64 `json:"amount"`
}

// Payment is one normalized payment from the fetched window.
type Payment struct {
	From      string    `json:"from"`
	To        string    `json:"to"`
	Amount    float64   `json:"amount"`
	AssetCode string    `json:"assetCode"`
	At        time.Time `json:"at"`
}

// Activity holds aggregate counts derived from the fetched history windows.
//
// All aggregates are computed over the bounded fetch window (default 100
// records per endpoint), not full account history. They describe recent
// activity; treating them as lifetime totals is incorrect for old, busy
// accounts. This is a deliberate cost/latency tradeoff.
type Activity struct {
	TotalTransactions int       `json:"totalTransactions"`
	TotalOperations   int       `json:"totalOperations"`
	TotalPayments     int       `json:"totalPayments"`
	IncomingPayments  int       `json:"incomingPayments"`
	OutgoingPayments  int       `json:"outgoingPayments"`
	LargestPayment    float64   `json:"largestPayment"`
	AveragePayment    float64   `json:"averagePayment"`
	UniqueSenders     int       `json:"uniqueSenders"`    // distinct inbound counterparties
	UniqueRecipients  int       `json:"uniqueRecipients"` // distinct outbound counterparties
	LastActivity      time.Time `json:"lastActivity"`
	OpenOffers        int       `json:"openOffers"`
	TradeCount        int       `json:"tradeCount"`
}

// AccountFacts is an immutable snapshot of one account at analysis time.
// Built fresh per analysis request and discarded afterwards.
type AccountFacts struct {
	Address string `json:"address"`
	Network string `json:"network"`

	// AgeDays is days since the account's earliest observed transaction,
	// falling back to the account's last-modified time, then 0.
	AgeDays int `json:"ageDays"`

	NativeBalance float64 `json:"nativeBalance"`
	Balances      []Asset `json:"balances"`
	Trustlines    []Asset `json:"trustlines"` // non-native assets held

	SignerCount int  `json:"signerCount"`
	MultiSig    bool `json:"multiSig"`

	// Security flags from the account record.
	AuthRequired bool `json:"authRequired"` // assets require issuer authorization
	Freezable    bool `json:"freezable"`    // assets can be frozen by issuer
	Clawbackable bool `json:"clawbackable"` // assets can be clawed back

	HomeDomain string `json:"homeDomain,omitempty"`

	Activity Activity `json:"activity"`

	// Payments is the raw normalized payment window, kept for the
	// connection scanner. Same bounded-window caveat as Activity.
	Payments []Payment `json:"-"`

	CollectedAt time.Time `json:"collectedAt"`
}

// HasHomeDomain reports whether the account declares a home domain.
func (f *AccountFacts) HasHomeDomain() bool { return f.HomeDomain != "" }
