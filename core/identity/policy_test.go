package identity

import (
	"errors"
	"testing"

	"ccsledger/core/ledger"
)

var gatedFunctions = map[string]Requirement{
	"CreateCaptureContract":                  {MSPID: "Org1MSP", Department: "Capture Operator"},
	"UpdateTransportDetails":                 {MSPID: "Org2MSP", Department: "Transport Operator"},
	"UpdateStorageDetails":                   {MSPID: "Org3MSP", Department: "Storage Operator"},
	"AddProjectDetails":                      {MSPID: "Org4MSP", Department: "Project Developer"},
	"AddRegulatoryDecision":                  {MSPID: "Org5MSP", Department: "Regulator"},
	"AddAuditRecord":                         {MSPID: "Org6MSP", Department: "Auditor"},
	"ApproveOrDisapproveContractByProject":   {MSPID: "Org4MSP", Department: "Project Developer"},
	"ApproveOrDisapproveContractByRegulator": {MSPID: "Org5MSP", Department: "Regulator"},
	"ApproveOrDisapproveContractByAuditor":   {MSPID: "Org6MSP", Department: "Auditor"},
	"monthlyCO2Stored":                       {MSPID: "Org6MSP", Department: "Auditor"},
	"annualCO2Stored":                        {MSPID: "Org6MSP", Department: "Auditor"},
}

func TestAuthorizeMatchingClaims(t *testing.T) {
	for fn, req := range gatedFunctions {
		caller := ledger.CallerContext{ID: "user", MSPID: req.MSPID, Department: req.Department}
		if err := Authorize(caller, fn); err != nil {
			t.Errorf("%s: expected matching claims to pass, got %v", fn, err)
		}
	}
}

func TestAuthorizeRejectsMismatches(t *testing.T) {
	for fn, req := range gatedFunctions {
		wrongOrg := ledger.CallerContext{ID: "user", MSPID: "Org9MSP", Department: req.Department}
		if err := Authorize(wrongOrg, fn); !errors.Is(err, ledger.ErrUnauthorized) {
			t.Errorf("%s: wrong org should be unauthorized, got %v", fn, err)
		}
		wrongDept := ledger.CallerContext{ID: "user", MSPID: req.MSPID, Department: "Intern"}
		if err := Authorize(wrongDept, fn); !errors.Is(err, ledger.ErrUnauthorized) {
			t.Errorf("%s: wrong department should be unauthorized, got %v", fn, err)
		}
	}
}

func TestAuthorizeCrossRoleRejected(t *testing.T) {
	// A valid Org2 operator must not pass an Org1 gate even with a real role.
	caller := ledger.CallerContext{ID: "user", MSPID: "Org2MSP", Department: "Transport Operator"}
	if err := Authorize(caller, "CreateCaptureContract"); !errors.Is(err, ledger.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestAuthorizeUngatedFunctions(t *testing.T) {
	caller := ledger.CallerContext{ID: "anyone", MSPID: "Org2MSP", Department: "Transport Operator"}
	for _, fn := range []string{"calculateCarbonStored", "getAssetByID", "getAssetHistory", "queryRecordsByDateRange", "GetHistoryByProjectId", "assetExists", "getAllAssets"} {
		if err := Authorize(caller, fn); err != nil {
			t.Errorf("%s should not be policy-gated, got %v", fn, err)
		}
	}
}

func TestRequired(t *testing.T) {
	req, ok := Required("monthlyCO2Stored")
	if !ok || req.MSPID != "Org6MSP" || req.Department != "Auditor" {
		t.Fatalf("unexpected requirement: %+v ok=%v", req, ok)
	}
	if _, ok := Required("calculateCarbonStored"); ok {
		t.Fatal("calculateCarbonStored must be ungated")
	}
}

func TestOrgNumber(t *testing.T) {
	cases := map[string]int{
		"Org1MSP": 1, "Org2MSP": 2, "Org3MSP": 3,
		"Org4MSP": 4, "Org5MSP": 5, "Org6MSP": 6,
		"OrgXMSP": 0,
	}
	for msp, want := range cases {
		if got := OrgNumber(msp); got != want {
			t.Errorf("OrgNumber(%s) = %d, want %d", msp, got, want)
		}
	}
}
