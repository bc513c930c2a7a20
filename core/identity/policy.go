package identity

import (
	"ccsledger/core/ledger"
)

// Requirement is the (organization, department) pair a function demands.
type Requirement struct {
	MSPID      string
	Department string
}

// policyTable maps each gated ledger function to its required caller claims.
// Read-only functions are absent: they are not policy-gated.
var policyTable = map[string]Requirement{
	"CreateCaptureContract":  {MSPID: "Org1MSP", Department: "Capture Operator"},
	"UpdateTransportDetails": {MSPID: "Org2MSP", Department: "Transport Operator"},
	"UpdateStorageDetails":   {MSPID: "Org3MSP", Department: "Storage Operator"},
	"AddProjectDetails":      {MSPID: "Org4MSP", Department: "Project Developer"},
	"AddRegulatoryDecision":  {MSPID: "Org5MSP", Department: "Regulator"},
	"AddAuditRecord":         {MSPID: "Org6MSP", Department: "Auditor"},

	"ApproveOrDisapproveContractByProject":   {MSPID: "Org4MSP", Department: "Project Developer"},
	"ApproveOrDisapproveContractByRegulator": {MSPID: "Org5MSP", Department: "Regulator"},
	"ApproveOrDisapproveContractByAuditor":   {MSPID: "Org6MSP", Department: "Auditor"},

	// Finalization writes a snapshot, so it is gated even though the window
	// sum itself is a read.
	"monthlyCO2Stored": {MSPID: "Org6MSP", Department: "Auditor"},
	"annualCO2Stored":  {MSPID: "Org6MSP", Department: "Auditor"},
}

// Required looks up a function's requirement. ok is false for ungated functions.
func Required(function string) (Requirement, bool) {
	req, ok := policyTable[function]
	return req, ok
}

// Authorize enforces the static policy table for a function. It runs before
// any parsing or state access; ungated functions pass through.
func Authorize(caller ledger.CallerContext, function string) error {
	req, ok := policyTable[function]
	if !ok {
		return nil
	}
	if caller.MSPID != req.MSPID || caller.Department != req.Department {
		return ledger.Unauthorizedf(
			"only '%s' with '%s' role can call %s. Your role: %s - %s",
			req.MSPID, req.Department, function, caller.MSPID, caller.Department)
	}
	return nil
}

// OrgNumber maps an MSP id onto the custody role number 1-6, zero if unknown.
func OrgNumber(mspID string) int {
	switch mspID {
	case "Org1MSP":
		return ledger.OrgCapture
	case "Org2MSP":
		return ledger.OrgTransport
	case "Org3MSP":
		return ledger.OrgStorage
	case "Org4MSP":
		return ledger.OrgProject
	case "Org5MSP":
		return ledger.OrgRegulator
	case "Org6MSP":
		return ledger.OrgAuditor
	}
	return 0
}
