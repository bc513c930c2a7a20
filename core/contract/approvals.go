package contract

import (
	"encoding/json"
	"errors"
	"strconv"

	"ccsledger/core/ledger"
)

// approvalSlot identifies one approving organization's vote fields on a record.
type approvalSlot struct {
	operation string
	action    string
	apply     func(rec *ledger.Record, status, comment, timestamp, approvedBy string)
	status    func(rec *ledger.Record) string
}

var approvalSlots = []approvalSlot{
	{
		operation: "ApproveOrDisapproveContractByProject",
		action:    "ApprovalByProjectDeveloper",
		apply: func(rec *ledger.Record, status, comment, timestamp, approvedBy string) {
			rec.ApprovalStatusByProject = status
			rec.ApprovalCommentByProject = comment
			rec.ApprovalTimestampByProject = timestamp
			rec.ApprovedByProject = approvedBy
		},
		status: func(rec *ledger.Record) string { return rec.ApprovalStatusByProject },
	},
	{
		operation: "ApproveOrDisapproveContractByRegulator",
		action:    "ApprovalByRegulator",
		apply: func(rec *ledger.Record, status, comment, timestamp, approvedBy string) {
			rec.ApprovalStatusByRegulator = status
			rec.ApprovalCommentByRegulator = comment
			rec.ApprovalTimestampByRegulator = timestamp
			rec.ApprovedByRegulator = approvedBy
		},
		status: func(rec *ledger.Record) string { return rec.ApprovalStatusByRegulator },
	},
	{
		operation: "ApproveOrDisapproveContractByAuditor",
		action:    "ApprovalByAuditor",
		apply: func(rec *ledger.Record, status, comment, timestamp, approvedBy string) {
			rec.ApprovalStatusByAuditor = status
			rec.ApprovalCommentByAuditor = comment
			rec.ApprovalTimestampByAuditor = timestamp
			rec.ApprovedByAuditor = approvedBy
		},
		status: func(rec *ledger.Record) string { return rec.ApprovalStatusByAuditor },
	},
}

func (c *Contract) registerApprovalOps() {
	for _, slot := range approvalSlots {
		slot := slot
		c.register(&Operation{
			Name:    slot.operation,
			MinArgs: 2,
			Handler: func(tx *Tx, args []string) (interface{}, error) {
				comment := ""
				if len(args) > 2 {
					comment = args[2]
				}
				return recordApproval(tx, slot, args[0], args[1], comment)
			},
		})
	}
}

// approvalReceipt is the caller-facing result of a vote.
type approvalReceipt struct {
	TransactionID string `json:"transactionId"`
	Status        string `json:"status"`
}

// recordApproval merges one organization's vote into an existing record:
// a read-modify-write of the whole record under its original key. Re-voting
// overwrites the same slot; other organizations' slots are untouched.
func recordApproval(tx *Tx, slot approvalSlot, contractID, isApprovedArg, comment string) (interface{}, error) {
	isApproved, err := strconv.ParseBool(isApprovedArg)
	if err != nil {
		return nil, ledger.Validationf("isApproved must be a boolean, got %q", isApprovedArg)
	}

	recBytes, err := tx.GetState(contractID)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return nil, ledger.NotFoundf("contract %s does not exist", contractID)
		}
		return nil, err
	}
	var rec ledger.Record
	if err := json.Unmarshal(recBytes, &rec); err != nil {
		return nil, ledger.Parsef("stored record %s is not decodable: %v", contractID, err)
	}
	// Only workflow records carry a createdAt. Anything else under the key
	// (a finalized aggregate) must not be re-marshaled through the record
	// shape: that would silently drop its fields.
	if rec.CreatedAt == "" {
		return nil, ledger.Validationf("%s is not an approvable record", contractID)
	}

	status := "Disapproved"
	if isApproved {
		status = "Approved"
	}
	slot.apply(&rec, status, comment, tx.Ctx.TimestampString(), tx.Ctx.Caller.ID)

	merged, err := json.Marshal(&rec)
	if err != nil {
		return nil, err
	}
	// Same createdAt and project as before, so the index rewrite is a no-op.
	tx.PutRecord(contractID, merged, rec.CreatedAt, rec.ProjectID)
	tx.SetEvent(slot.action, map[string]string{
		"recordId":       contractID,
		"approvalStatus": status,
		"comment":        comment,
	})

	return approvalReceipt{TransactionID: contractID, Status: status}, nil
}
