package analysis

// Result is the structured compliance assessment decoded from the model
// reply, plus the metadata keys stamped by the service.
type Result map[string]any

const (
	KeyTimestamp      = "analysis_timestamp"
	KeyDocumentLength = "document_length"
)

// RequestedKeys are the fields the prompt asks the model to produce, in
// prompt order.
var RequestedKeys = []string{
	"document_type",
	"regulatory_body",
	"severity_level",
	"key_violations",
	"compliance_areas",
	"deadlines",
	"potential_penalties",
	"audit_focus_areas",
	"recommended_actions",
	"risk_assessment",
	"similar_patterns",
	"executive_summary",
}
