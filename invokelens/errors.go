package invokelens

import "fmt"

// AgentBlocked is returned by a wrapped invocation when the agent's
// kill-switch is active. It is raised before any underlying call is made,
// so a blocked invocation never incurs cost.
type AgentBlocked struct {
	AgentID string
	Reason  string
}

func (e *AgentBlocked) Error() string {
	reason := e.Reason
	if reason == "" {
		reason = "Agent is blocked"
	}
	return fmt.Sprintf(
		"agent %q is blocked: %s. Unblock via the InvokeLens dashboard.",
		e.AgentID, reason,
	)
}

// PolicyViolation is returned by a wrapped invocation when a pre-invocation
// guardrail policy with BLOCK enforcement would be violated.
type PolicyViolation struct {
	AgentID    string
	PolicyID   string
	PolicyType string
	Message    string
}

func (e *PolicyViolation) Error() string {
	return fmt.Sprintf(
		"policy violation for agent %q: [%s] %s (policy_id=%s)",
		e.AgentID, e.PolicyType, e.Message, e.PolicyID,
	)
}
