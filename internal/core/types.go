package core

const (
	AppName      = "riskmon"
	AppUserAgent = "riskmon/0.1"
	AppVersion   = "0.1.0"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Intent is the action category a question is routed to.
type Intent string

const (
	IntentQA              Intent = "qa"
	IntentPIIDetect       Intent = "pii_detect"
	IntentRiskScore       Intent = "risk_score"
	IntentPolicyNavigator Intent = "policy_navigator"
	IntentPIIRemediation  Intent = "pii_remediation"
	IntentOther           Intent = "other"
)

var intents = map[Intent]struct{}{
	IntentQA:              {},
	IntentPIIDetect:       {},
	IntentRiskScore:       {},
	IntentPolicyNavigator: {},
	IntentPIIRemediation:  {},
	IntentOther:           {},
}

func (i Intent) Valid() bool {
	_, ok := intents[i]
	return ok
}

// SyntheticSource marks a citation that was not retrieved from the corpus.
const SyntheticSource = "synthetic"

type Citation struct {
	Source  string `json:"source"`
	Page    *int   `json:"page"`
	Snippet string `json:"snippet"`
}

// Generation is the result of one LLM call.
type Generation struct {
	Text             string  `json:"text"`
	Provider         string  `json:"provider"`
	Model            string  `json:"model"`
	TokensPrompt     int     `json:"tokens_prompt"`
	TokensCompletion int     `json:"tokens_completion"`
	CostUSD          float64 `json:"cost_usd"`
}
