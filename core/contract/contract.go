package contract

import (
	"encoding/json"
	"fmt"
	"sync"

	"ccsledger/core/audit"
	"ccsledger/core/identity"
	"ccsledger/core/ledger"
	"ccsledger/core/storage"
)

// DefaultMaxPageSize caps caller-supplied page sizes on paginated queries.
const DefaultMaxPageSize = 1000

// Operation is one named ledger function. The required (org, department)
// pair lives in the identity policy table, not here, so the gate stays in one
// place.
type Operation struct {
	Name     string
	ReadOnly bool
	MinArgs  int
	Handler  func(tx *Tx, args []string) (interface{}, error)
}

// Contract is the dispatch table over every externally callable ledger
// function. One Contract serves one node.
type Contract struct {
	store       *storage.Store
	auditLog    audit.AuditLogger
	ops         map[string]*Operation
	maxPageSize int

	// mu is the serialization point: mutations run one at a time against
	// committed state, standing in for the ordering service of a multi-node
	// deployment.
	mu sync.Mutex
}

func New(store *storage.Store, auditLog audit.AuditLogger) *Contract {
	c := &Contract{
		store:       store,
		auditLog:    auditLog,
		ops:         map[string]*Operation{},
		maxPageSize: DefaultMaxPageSize,
	}
	c.registerRecordOps()
	c.registerApprovalOps()
	c.registerQueryOps()
	c.registerAccountingOps()
	return c
}

// SetMaxPageSize overrides the pagination cap (env-configurable at startup).
func (c *Contract) SetMaxPageSize(n int) {
	if n > 0 {
		c.maxPageSize = n
	}
}

func (c *Contract) register(op *Operation) {
	if _, dup := c.ops[op.Name]; dup {
		panic("duplicate operation " + op.Name)
	}
	c.ops[op.Name] = op
}

// Tx is the execution context handed to operation handlers: the agreed
// transaction values, read access to committed state, and a buffered write
// set that commits atomically after the handler succeeds.
type Tx struct {
	Ctx      ledger.TxContext
	contract *Contract
	ws       *storage.WriteSet
	event    *audit.AuditEvent
}

// GetState reads a ledger key from committed state.
func (tx *Tx) GetState(key string) ([]byte, error) {
	return tx.contract.store.Get(key)
}

// HasState reports committed existence of a ledger key.
func (tx *Tx) HasState(key string) (bool, error) {
	return tx.contract.store.Has(key)
}

// PutState stages a write of a non-record value (finalized aggregates).
func (tx *Tx) PutState(key string, value []byte) {
	tx.ws.Put(key, value)
}

// PutRecord stages a write of a record value, maintaining the createdAt and
// project indexes.
func (tx *Tx) PutRecord(key string, value []byte, createdAt, projectID string) {
	tx.ws.PutRecord(key, value, createdAt, projectID)
}

// History returns every committed version of a ledger key in commit order.
func (tx *Tx) History(key string) ([]storage.HistoryEntry, error) {
	return tx.contract.store.History(key)
}

// RangeByCreated delegates a createdAt window scan to the store.
func (tx *Tx) RangeByCreated(start, end, projectID string, pageSize int, bookmark string) (*storage.Page, error) {
	return tx.contract.store.RangeByCreated(start, end, projectID, pageSize, bookmark)
}

// ByProject delegates a per-project scan to the store.
func (tx *Tx) ByProject(projectID string, pageSize int, bookmark string) (*storage.Page, error) {
	return tx.contract.store.ByProject(projectID, pageSize, bookmark)
}

// AllState delegates a full world-state scan to the store.
func (tx *Tx) AllState() ([]storage.KeyedValue, error) {
	return tx.contract.store.AllState()
}

// SetEvent records the action name emitted to the audit trail once the
// transaction commits. At most one event per transaction.
func (tx *Tx) SetEvent(action string, metadata map[string]string) {
	tx.event = &audit.AuditEvent{
		EventType: action,
		TxID:      tx.Ctx.TxID,
		Timestamp: tx.Ctx.Timestamp,
		EntityID:  tx.Ctx.Caller.ID,
		Result:    "success",
		Metadata:  metadata,
	}
}

func (tx *Tx) maxPageSize() int {
	return tx.contract.maxPageSize
}

// Invoke runs a named mutation as the authenticated caller. The policy gate
// runs first, before any parsing or state access. On handler success the
// write set commits as one batch; on any error ledger state is untouched.
func (c *Contract) Invoke(ctx ledger.TxContext, function string, args []string) (string, error) {
	if err := identity.Authorize(ctx.Caller, function); err != nil {
		c.auditLog.LogEvent(audit.AuditEvent{
			EventType: "Authorization",
			TxID:      ctx.TxID,
			Timestamp: ctx.Timestamp,
			EntityID:  ctx.Caller.ID,
			Result:    "failure",
			Reason:    err.Error(),
		})
		return "", err
	}
	op, ok := c.ops[function]
	if !ok {
		return "", ledger.Validationf("function %s does not exist", function)
	}
	if len(args) < op.MinArgs {
		return "", ledger.Validationf("%s expects at least %d argument(s), got %d", function, op.MinArgs, len(args))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	tx := &Tx{
		Ctx:      ctx,
		contract: c,
		ws:       &storage.WriteSet{TxID: ctx.TxID, Timestamp: ctx.TimestampString()},
	}
	result, err := op.Handler(tx, args)
	if err != nil {
		return "", err
	}
	if len(tx.ws.Writes) > 0 {
		if err := c.store.Commit(tx.ws); err != nil {
			return "", fmt.Errorf("commit failed: %w", err)
		}
	}
	if tx.event != nil {
		c.auditLog.LogEvent(*tx.event)
	}
	return marshalResult(result)
}

// Evaluate runs a named read-only function. It takes no lock and stages no
// writes: the result is a point-in-time view of committed state.
func (c *Contract) Evaluate(ctx ledger.TxContext, function string, args []string) (string, error) {
	op, ok := c.ops[function]
	if !ok {
		return "", ledger.Validationf("function %s does not exist", function)
	}
	if !op.ReadOnly {
		return "", ledger.Validationf("function %s is not read-only; submit it as an invocation", function)
	}
	if err := identity.Authorize(ctx.Caller, function); err != nil {
		return "", err
	}
	if len(args) < op.MinArgs {
		return "", ledger.Validationf("%s expects at least %d argument(s), got %d", function, op.MinArgs, len(args))
	}
	tx := &Tx{Ctx: ctx, contract: c, ws: &storage.WriteSet{}}
	result, err := op.Handler(tx, args)
	if err != nil {
		return "", err
	}
	return marshalResult(result)
}

func marshalResult(result interface{}) (string, error) {
	if result == nil {
		return "", nil
	}
	if raw, ok := result.(json.RawMessage); ok {
		return string(raw), nil
	}
	out, err := json.Marshal(result)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
