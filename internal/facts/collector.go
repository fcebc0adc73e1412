package facts

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/lumenguard/lumenguard/internal/horizon"
	"github.com/lumenguard/lumenguard/internal/metrics"
)

// Collector fetches and normalizes on-chain facts for one account.
type Collector struct {
	client  *horizon.Client
	network string
	window  int
	logger  *slog.Logger
}

// NewCollector creates a collector. window caps every history fetch.
func NewCollector(client *horizon.Client, network string, window int, logger *slog.Logger) *Collector {
	return &Collector{
		client:  client,
		network: network,
		window:  window,
		logger:  logger.With("component", "collector"),
	}
}

// Collect builds an AccountFacts snapshot for the address.
//
// The account record is fetched first; without it nothing downstream can run.
// The history sub-fetches (transactions, payments, operations, offers,
// trades) have no ordering dependency and run concurrently. The oldest-
// transaction lookup used for age is best-effort: on failure the age falls
// back to the account's last-modified time.
//
// Returns horizon.ErrAccountNotFound for unfunded addresses and
// horizon.ErrUpstreamUnavailable when any required fetch fails.
func (c *Collector) Collect(ctx context.Context, address string) (*AccountFacts, error) {
	defer metrics.ObserveStage("collect")()

	acct, err := c.client.Account(ctx, address)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		txs      []horizon.Transaction
		payments []horizon.Payment
		ops      []horizon.Operation
		offers   []horizon.Offer
		trades   []horizon.Trade
		oldest   *horizon.Transaction

		txErr, payErr, opErr, offerErr, tradeErr, oldestErr error
	)

	wg.Add(6)
	go func() {
		defer wg.Done()
		txs, txErr = c.client.Transactions(ctx, address, horizon.OrderDesc, c.window)
	}()
	go func() {
		defer wg.Done()
		payments, payErr = c.client.Payments(ctx, address, horizon.OrderDesc, c.window)
	}()
	go func() {
		defer wg.Done()
		ops, opErr = c.client.Operations(ctx, address, horizon.OrderDesc, c.window)
	}()
	go func() {
		defer wg.Done()
		offers, offerErr = c.client.Offers(ctx, address, c.window)
	}()
	go func() {
		defer wg.Done()
		trades, tradeErr = c.client.Trades(ctx, address, c.window)
	}()
	go func() {
		defer wg.Done()
		oldest, oldestErr = c.client.OldestTransaction(ctx, address)
	}()
	wg.Wait()

	for _, err := range []error{txErr, payErr, opErr, offerErr, tradeErr} {
		if err != nil {
			return nil, fmt.Errorf("collect history for %s: %w", address, err)
		}
	}
	if oldestErr != nil {
		// Age falls back to last-modified; not fatal.
		c.logger.Warn("oldest transaction lookup failed, using last-modified for age",
			"address", address, "error", oldestErr)
	}

	return c.build(address, acct, txs, payments, ops, offers, trades, oldest), nil
}

func (c *Collector) build(
	address string,
	acct *horizon.Account,
	txs []horizon.Transaction,
	payments []horizon.Payment,
	ops []horizon.Operation,
	offers []horizon.Offer,
	trades []horizon.Trade,
	oldest *horizon.Transaction,
) *AccountFacts {
	now := time.Now()

	f := &AccountFacts{
		Address:      address,
		Network:      c.network,
		SignerCount:  len(acct.Signers),
		MultiSig:     len(acct.Signers) > 1,
		AuthRequired: acct.Flags.AuthRequired,
		Freezable:    acct.Flags.AuthRevocable,
		Clawbackable: acct.Flags.AuthClawbackEnabled,
		HomeDomain:   strings.ToLower(acct.HomeDomain),
		CollectedAt:  now,
	}

	f.AgeDays = accountAge(now, acct, oldest)

	for _, b := range acct.Balances {
		amount := parseAmount(b.Balance)
		if b.Native() {
			f.NativeBalance = amount
			f.Balances = append(f.Balances, Asset{Code: NativeAssetCode, Amount: amount})
			continue
		}
		asset := Asset{Code: b.AssetCode, Issuer: b.AssetIssuer, Amount: amount}
		f.Balances = append(f.Balances, asset)
		f.Trustlines = append(f.Trustlines, asset)
	}

	f.Activity = c.aggregate(address, txs, payments, ops, offers, trades)
	f.Payments = normalizePayments(payments)

	return f
}

// aggregate derives all activity counts in a single pass over the payment
// window. Window-bounded: see the Activity doc for semantics.
func (c *Collector) aggregate(
	address string,
	txs []horizon.Transaction,
	payments []horizon.Payment,
	ops []horizon.Operation,
	offers []horizon.Offer,
	trades []horizon.Trade,
) Activity {
	a := Activity{
		TotalTransactions: len(txs),
		TotalOperations:   len(ops),
		TotalPayments:     len(payments),
		OpenOffers:        len(offers),
		TradeCount:        len(trades),
	}

	senders := make(map[string]struct{})
	recipients := make(map[string]struct{})
	var total float64

	for _, p := range payments {
		amount := parseAmount(p.Amount)
		total += amount
		if amount > a.LargestPayment {
			a.LargestPayment = amount
		}
		if p.To == address {
			a.IncomingPayments++
			if p.From != "" {
				senders[p.From] = struct{}{}
			}
		} else {
			a.OutgoingPayments++
			if p.To != "" {
				recipients[p.To] = struct{}{}
			}
		}
		if p.CreatedAt.After(a.LastActivity) {
			a.LastActivity = p.CreatedAt
		}
	}

	if len(payments) > 0 {
		a.AveragePayment = total / float64(len(payments))
	}
	a.UniqueSenders = len(senders)
	a.UniqueRecipients = len(recipients)

	for _, tx := range txs {
		if tx.CreatedAt.After(a.LastActivity) {
			a.LastActivity = tx.CreatedAt
		}
	}

	return a
}

// accountAge derives age in days: earliest transaction, else the account's
// last-modified time, else 0.
func accountAge(now time.Time, acct *horizon.Account, oldest *horizon.Transaction) int {
	switch {
	case oldest != nil && !oldest.CreatedAt.IsZero():
		return daysBetween(oldest.CreatedAt, now)
	case !acct.LastModifiedTime.IsZero():
		return daysBetween(acct.LastModifiedTime, now)
	default:
		return 0
	}
}

func daysBetween(from, to time.Time) int {
	d := int(to.Sub(from).Hours() / 24)
	if d < 0 {
		return 0
	}
	return d
}

func normalizePayments(payments []horizon.Payment) []Payment {
	out := make([]Payment, 0, len(payments))
	for _, p := range payments {
		code := p.AssetCode
		if p.AssetType == "native" || code == "" {
			code = NativeAssetCode
		}
		out = append(out, Payment{
			From:      p.From,
			To:        p.To,
			Amount:    parseAmount(p.Amount),
			AssetCode: code,
			At:        p.CreatedAt,
		})
	}
	return out
}

func parseAmount(s string) float64 {
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}
