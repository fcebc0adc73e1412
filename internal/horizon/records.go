package horizon

import "time"

// Account is the ledger's account record.
type Account struct {
	ID               string    `json:"id"`
	AccountID        string    `json:"account_id"`
	Sequence         string    `json:"sequence"`
	SubentryCount    int       `json:"subentry_count"`
	HomeDomain       string    `json:"home_domain"`
	LastModifiedTime time.Time `json:"last_modified_time"`
	Flags            Flags     `json:"flags"`
	Balances         []Balance `json:"balances"`
	Signers          []Signer  `json:"signers"`
}

// Flags are the account's authorization flags. AuthRevocable means the issuer
// can freeze assets held in trustlines; AuthClawbackEnabled means issued
// assets can be clawed back.
type Flags struct {
	AuthRequired        bool `json:"auth_required"`
	AuthRevocable       bool `json:"auth_revocable"`
	AuthImmutable       bool `json:"auth_immutable"`
	AuthClawbackEnabled bool `json:"auth_clawback_enabled"`
}

// Balance is one asset position held by an account. AssetType is "native"
// for the chain's base asset; credit assets carry a code and issuer.
type Balance struct {
	Balance     string `json:"balance"`
	AssetType   string `json:"asset_type"`
	AssetCode   string `json:"asset_code,omitempty"`
	AssetIssuer string `json:"asset_issuer,omitempty"`
}

// Native reports whether this balance is the chain's base asset.
func (b Balance) Native() bool { return b.AssetType == "native" }

// Signer is one entry in the account's signer set.
type Signer struct {
	Key    string `json:"key"`
	Weight int    `json:"weight"`
	Type   string `json:"type"`
}

// Transaction is a ledger transaction touching the account.
type Transaction struct {
	ID             string    `json:"id"`
	Hash           string    `json:"hash"`
	Ledger         int64     `json:"ledger"`
	CreatedAt      time.Time `json:"created_at"`
	SourceAccount  string    `json:"source_account"`
	Successful     bool      `json:"successful"`
	OperationCount int       `json:"operation_count"`
}

// Payment is a payment-type operation (payment, create_account, path payments).
type Payment struct {
	ID              string    `json:"id"`
	Type            string    `json:"type"`
	From            string    `json:"from"`
	To              string    `json:"to"`
	Amount          string    `json:"amount"`
	AssetType       string    `json:"asset_type"`
	AssetCode       string    `json:"asset_code,omitempty"`
	AssetIssuer     string    `json:"asset_issuer,omitempty"`
	TransactionHash string    `json:"transaction_hash"`
	CreatedAt       time.Time `json:"created_at"`
}

// Operation is any operation touching the account. Only the envelope fields
// are decoded; type-specific detail stays in the raw record.
type Operation struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	SourceAccount string    `json:"source_account"`
	CreatedAt     time.Time `json:"created_at"`
}

// Offer is an open DEX offer owned by the account.
type Offer struct {
	ID      string `json:"id"`
	Seller  string `json:"seller"`
	Selling Asset  `json:"selling"`
	Buying  Asset  `json:"buying"`
	Amount  string `json:"amount"`
	Price   string `json:"price"`
}

// Asset identifies an asset in an offer or trade.
type Asset struct {
	AssetType   string `json:"asset_type"`
	AssetCode   string `json:"asset_code,omitempty"`
	AssetIssuer string `json:"asset_issuer,omitempty"`
}

// Trade is an executed DEX trade involving the account.
type Trade struct {
	ID              string    `json:"id"`
	LedgerCloseTime time.Time `json:"ledger_close_time"`
	BaseAccount     string    `json:"base_account"`
	CounterAccount  string    `json:"counter_account"`
	BaseAmount      string    `json:"base_amount"`
	CounterAmount   string    `json:"counter_amount"`
}

// page is the collection envelope used by all history endpoints.
type page[T any] struct {
	Embedded struct {
		Records []T `json:"records"`
	} `json:"_embedded"`
}
