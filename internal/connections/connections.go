// Package connections examines an account's payment counterparties against
// the blacklist and community scam reports, producing a connection risk
// summary.
package connections

import (
	"errors"
	"time"
)

var (
	ErrNotBlacklisted = errors.New("address not blacklisted")
	ErrReportNotFound = errors.New("report not found")
)

// Direction of interaction with a flagged counterparty, from the analyzed
// account's point of view.
type Direction string

const (
	DirectionSentTo       Direction = "sent_to"
	DirectionReceivedFrom Direction = "received_from"
	DirectionBoth         Direction = "both"
)

// RiskLevel classifies the connection summary.
type RiskLevel string

const (
	RiskNone     RiskLevel = "NONE"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// BlacklistEntry is one operator-curated scam address.
type BlacklistEntry struct {
	Address  string    `json:"address"`
	Category string    `json:"category"` // e.g. "phishing", "ponzi", "theft"
	Reason   string    `json:"reason"`
	Active   bool      `json:"active"`
	AddedAt  time.Time `json:"addedAt"`
}

// ScamReport is one community-submitted report. Only verified reports count
// toward connection risk.
type ScamReport struct {
	ID          string    `json:"id"`
	Address     string    `json:"address"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Reporter    string    `json:"reporter,omitempty"`
	Verified    bool      `json:"verified"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Connection is one flagged counterparty relationship.
type Connection struct {
	CounterpartyAddress string    `json:"counterpartyAddress"`
	ScamCategory        string    `json:"scamCategory"`
	Reason              string    `json:"reason"`
	Direction           Direction `json:"direction"`
	InteractionCount    int       `json:"interactionCount"`
	CumulativeAmount    float64   `json:"cumulativeAmount"`
	LastInteraction     time.Time `json:"lastInteraction"`
	Source              string    `json:"source"` // "blacklist" or "report"
}

// Summary is the scanner's sealed output for one account.
type Summary struct {
	HasScamConnections bool         `json:"hasScamConnections"`
	RiskLevel          RiskLevel    `json:"riskLevel"`
	Connections        []Connection `json:"connections"`
	Recommendations    []string     `json:"recommendations"`
}
