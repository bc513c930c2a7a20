package ledger

import (
	"fmt"
	"strings"
	"time"
)

// DocType tags every workflow record on the ledger.
const DocType = "agreement"

// TimestampLayout is the wire format for createdAt/finalizedAt. Fixed width,
// millisecond precision, always UTC, so string comparison orders chronologically.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// Organization numbers for the six custody roles.
const (
	OrgCapture    = 1
	OrgTransport  = 2
	OrgStorage    = 3
	OrgProject    = 4
	OrgRegulator  = 5
	OrgAuditor    = 6
)

// Record is the unit of ledger state. One struct carries all six variant
// payloads; the populated fields follow OrgID. Numeric payload fields are
// pointers so an absent field survives a JSON round trip as absent.
type Record struct {
	ID        string `json:"id"`
	DocType   string `json:"docType"`
	ProjectID string `json:"projectId"`
	OrgID     int    `json:"orgId"`
	Status    string `json:"status,omitempty"`

	DocumentHash     string `json:"documentHash,omitempty"`
	DocumentS3Key    string `json:"documentS3Key,omitempty"`
	DocumentHashAlgo string `json:"documentHashAlgo,omitempty"`

	CreatedBy string `json:"createdBy"`
	CreatedAt string `json:"createdAt"`

	// Org1 capture
	CSource        string   `json:"csource,omitempty"`
	CapturedAmount *float64 `json:"capturedAmount,omitempty"`

	// Org2 transport
	VCReceived         string   `json:"vcreceived,omitempty"`
	TransportEmissions *float64 `json:"transportEmissions,omitempty"`

	// Org3 storage
	StorageLoss    *float64 `json:"storageLoss,omitempty"`
	InjectedAmount *float64 `json:"injectedAmount,omitempty"`

	// Org4 project
	ProjectName      string `json:"projectName,omitempty"`
	Location         string `json:"location,omitempty"`
	TechnicalDetails string `json:"technicalDetails,omitempty"`
	Regulatory       string `json:"regulatory,omitempty"`

	// Org5 regulatory
	RegulationType  string `json:"regulationType,omitempty"`
	ComplianceNotes string `json:"complianceNotes,omitempty"`

	// Org6 audit
	AuditComments string `json:"auditComments,omitempty"`

	// Approval slots, one per approving organization.
	ApprovalStatusByProject    string `json:"approvalStatusByProject,omitempty"`
	ApprovalCommentByProject   string `json:"approvalCommentByProject,omitempty"`
	ApprovalTimestampByProject string `json:"approvalTimestampByProject,omitempty"`
	ApprovedByProject          string `json:"approvedByProject,omitempty"`

	ApprovalStatusByRegulator    string `json:"approvalStatusByRegulator,omitempty"`
	ApprovalCommentByRegulator   string `json:"approvalCommentByRegulator,omitempty"`
	ApprovalTimestampByRegulator string `json:"approvalTimestampByRegulator,omitempty"`
	ApprovedByRegulator          string `json:"approvedByRegulator,omitempty"`

	ApprovalStatusByAuditor    string `json:"approvalStatusByAuditor,omitempty"`
	ApprovalCommentByAuditor   string `json:"approvalCommentByAuditor,omitempty"`
	ApprovalTimestampByAuditor string `json:"approvalTimestampByAuditor,omitempty"`
	ApprovedByAuditor          string `json:"approvedByAuditor,omitempty"`
}

// NetContribution is the record's signed contribution to a window sum:
// capturedAmount - transportEmissions - storageLoss, absent fields as zero.
func (r *Record) NetContribution() float64 {
	return value(r.CapturedAmount) - value(r.TransportEmissions) - value(r.StorageLoss)
}

func value(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}

// FinalizedAggregate is the auditor-committed snapshot of a monthly or annual
// window. Month is zero for annual aggregates.
type FinalizedAggregate struct {
	DocType                string  `json:"docType"`
	ProjectID              string  `json:"projectId"`
	Year                   int     `json:"year"`
	Month                  int     `json:"month,omitempty"`
	TotalNetCarbonCaptured float64 `json:"totalNetCarbonCaptured"`
	Unit                   string  `json:"unit"`
	FinalizedBy            string  `json:"finalizedBy"`
	FinalizedAt            string  `json:"finalizedAt"`
}

// MonthlyAggregateKey builds the deterministic ledger key for a monthly snapshot.
func MonthlyAggregateKey(projectID string, year, month int) string {
	return fmt.Sprintf("%s-%d-%d-finalized", projectID, year, month)
}

// AnnualAggregateKey builds the deterministic ledger key for an annual snapshot.
func AnnualAggregateKey(projectID string, year int) string {
	return fmt.Sprintf("%s-%d-finalized", projectID, year)
}

// FormatTimestamp renders t in the ledger wire format.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ValidProjectID reports whether a project id is usable as an index component.
func ValidProjectID(projectID string) bool {
	return projectID != "" && !strings.Contains(projectID, "|")
}
