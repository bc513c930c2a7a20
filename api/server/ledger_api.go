package server

import (
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"ccsledger/core/ledger"
)

// InvocationRequest is the submission envelope: a named ledger function and
// its string arguments. The caller's identity rides in the bearer token, not
// in the body.
type InvocationRequest struct {
	Function string   `json:"function"`
	Args     []string `json:"args"`
}

// InvocationReceipt wraps a function's JSON string result with the assigned
// transaction id.
type InvocationReceipt struct {
	TxID   string          `json:"txId"`
	Result json.RawMessage `json:"result,omitempty"`
}

// callerFromRequest resolves the caller's organization and department claims
// from the Authorization header.
func (s *Server) callerFromRequest(r *http.Request) (ledger.CallerContext, error) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return ledger.CallerContext{}, errors.New("missing bearer token")
	}
	return s.verifier.VerifyCallerToken(strings.TrimPrefix(authHeader, "Bearer "))
}

// newTxContext fixes the transaction id and agreed timestamp at submission
// time. Everything the operation body stamps derives from these two values,
// never from a clock read inside the operation.
func newTxContext(caller ledger.CallerContext, body []byte) ledger.TxContext {
	now := time.Now().UTC()
	seed := fmt.Sprintf("%s|%d|%s", uuid.New().String(), now.UnixNano(), caller.ID)
	hash := sha256.Sum256(append(body, []byte(seed)...))
	return ledger.TxContext{
		TxID:      fmt.Sprintf("%x", hash[:]),
		Timestamp: now,
		Caller:    caller,
	}
}

// HandleInvoke submits a mutation as the authenticated caller.
func (s *Server) HandleInvoke(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, r, false)
}

// HandleQuery evaluates a read-only function as the authenticated caller.
func (s *Server) HandleQuery(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, r, true)
}

func (s *Server) dispatch(w http.ResponseWriter, r *http.Request, readOnly bool) {
	if r.Method != http.MethodPost {
		http.Error(w, "invalid method", http.StatusMethodNotAllowed)
		return
	}
	caller, err := s.callerFromRequest(r)
	if err != nil {
		http.Error(w, "Unauthorized: "+err.Error(), http.StatusUnauthorized)
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	var req InvocationRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Function == "" {
		http.Error(w, "Missing function name", http.StatusBadRequest)
		return
	}

	ctx := newTxContext(caller, body)
	var result string
	if readOnly {
		result, err = s.contract.Evaluate(ctx, req.Function, req.Args)
	} else {
		result, err = s.contract.Invoke(ctx, req.Function, req.Args)
	}
	if err != nil {
		http.Error(w, err.Error(), statusForError(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(InvocationReceipt{TxID: ctx.TxID, Result: json.RawMessage(result)})
}

// statusForError maps the ledger error taxonomy onto HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, ledger.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ledger.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrValidation), errors.Is(err, ledger.ErrParse):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
