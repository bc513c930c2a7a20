package ledger

import "time"

// CallerContext is the caller's verified role attributes, resolved from their
// credential by the submission layer. Operations never read ambient identity;
// this value is passed in explicitly.
type CallerContext struct {
	ID         string // credential identity, e.g. "x509::/OU=org1/CN=user1..."
	MSPID      string // organization claim, "Org1MSP".."Org6MSP"
	Department string // department claim, e.g. "Capture Operator"
}

// TxContext carries the per-transaction values every validating party agrees
// on before the operation body runs. Timestamp is the transaction's agreed
// time; operation bodies must use it instead of the local clock so replays
// are byte-identical.
type TxContext struct {
	TxID      string
	Timestamp time.Time
	Caller    CallerContext
}

// TimestampString returns the agreed transaction time in the wire format.
func (c *TxContext) TimestampString() string {
	return FormatTimestamp(c.Timestamp)
}
