package contracts

// ActionTaken is the closed set of branches the Planner can resolve a
// ContextPacket into.
type ActionTaken string

const (
	ActionProceed      ActionTaken = "proceed"
	ActionEmpty        ActionTaken = "empty"
	ActionLowConfidence ActionTaken = "low_confidence"
	ActionEscalate     ActionTaken = "escalate"
	ActionError        ActionTaken = "error"
)

// LLMMetadata describes what happened when the Planner tried to call the
// LLMPort for grounded synthesis.
type LLMMetadata struct {
	Used     bool   `json:"used"`
	Model    string `json:"model,omitempty"`
	Fallback bool   `json:"fallback"`
	Reason   string `json:"reason,omitempty"`
}

// RetrievalMetadata is what the Planner passes back to the caller about the
// retrieval that produced the response: the routing metadata plus whatever
// the LLM step recorded.
type RetrievalMetadata struct {
	RoutingMetadata map[string]ProviderMetadata `json:"routing_metadata"`
	ProvidersFailed []string                    `json:"providers_failed"`
	LLM             *LLMMetadata                `json:"llm,omitempty"`
}

// PlannerResponse is the final output of the engine.
type PlannerResponse struct {
	ResponseText      string            `json:"response_text"`
	ActionTaken       ActionTaken       `json:"action_taken"`
	BranchCode        ActionTaken       `json:"branch_code"`
	SessionID         string            `json:"session_id"`
	CandidatesUsed    int               `json:"candidates_used"`
	Confidence        float64           `json:"confidence"`
	RetrievalMetadata RetrievalMetadata `json:"retrieval_metadata"`
}

// Role is the closed enumeration of conversation turn speakers.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)
