package contract

import (
	"encoding/json"

	"ccsledger/core/ledger"
	"ccsledger/core/validation"
)

// variantSpec binds a create operation to its payload variant, authoring
// organization, and audit action name.
type variantSpec struct {
	operation string
	variant   string
	orgID     int
	action    string
}

var createSpecs = []variantSpec{
	{"CreateCaptureContract", validation.VariantCapture, ledger.OrgCapture, "CaptureContractCreated"},
	{"UpdateTransportDetails", validation.VariantTransport, ledger.OrgTransport, "TransportDetailsRecorded"},
	{"UpdateStorageDetails", validation.VariantStorage, ledger.OrgStorage, "StorageUpdated"},
	{"AddProjectDetails", validation.VariantProject, ledger.OrgProject, "ProjectAdded"},
	{"AddRegulatoryDecision", validation.VariantRegulatory, ledger.OrgRegulator, "RegulatoryDecisionAdded"},
	{"AddAuditRecord", validation.VariantAudit, ledger.OrgAuditor, "AuditRecordAdded"},
}

func (c *Contract) registerRecordOps() {
	for _, spec := range createSpecs {
		spec := spec
		c.register(&Operation{
			Name:    spec.operation,
			MinArgs: 1,
			Handler: func(tx *Tx, args []string) (interface{}, error) {
				return createRecord(tx, spec, args[0])
			},
		})
	}
}

// createReceipt is the caller-facing result of a successful create.
type createReceipt struct {
	TransactionID string `json:"transactionId"`
}

// createRecord is the shared body of the six create operations: validate the
// payload shape, decode it into the typed record, stamp ledger metadata, and
// stage the write under the record id.
func createRecord(tx *Tx, spec variantSpec, payload string) (interface{}, error) {
	if err := validation.ValidateRecordPayload(spec.variant, []byte(payload)); err != nil {
		return nil, err
	}

	var rec ledger.Record
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		return nil, ledger.Parsef("invalid JSON payload: %v", err)
	}

	// The transaction id is the ledger key unless the caller supplied one.
	if rec.ID == "" {
		rec.ID = tx.Ctx.TxID
	}
	exists, err := tx.HasState(rec.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ledger.Validationf("record %s already exists", rec.ID)
	}

	rec.DocType = ledger.DocType
	rec.OrgID = spec.orgID
	rec.CreatedBy = tx.Ctx.Caller.ID
	rec.CreatedAt = tx.Ctx.TimestampString()
	if rec.Status == "" {
		rec.Status = "inprogress"
	}
	if rec.DocumentHashAlgo == "" {
		rec.DocumentHashAlgo = "sha256"
	}

	recBytes, err := json.Marshal(&rec)
	if err != nil {
		return nil, err
	}
	tx.PutRecord(rec.ID, recBytes, rec.CreatedAt, rec.ProjectID)
	tx.SetEvent(spec.action, map[string]string{"recordId": rec.ID, "projectId": rec.ProjectID})

	return createReceipt{TransactionID: rec.ID}, nil
}
