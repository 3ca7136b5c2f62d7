package llm

import "github.com/sandevgo/riskmon/pkg/tokens"

type price struct {
	prompt     float64 // USD per 1K tokens
	completion float64
}

const defaultPriceModel = "gpt-4o-mini"

var prices = map[string]price{
	"gpt-4o-mini": {prompt: 0.15, completion: 0.60},
	"gpt-4.1":     {prompt: 5.0, completion: 15.0},
	StubName:      {},
}

// Cost returns the USD price of a call. Unknown models are priced as gpt-4o-mini.
func Cost(model string, promptTokens, completionTokens int) float64 {
	p, ok := prices[model]
	if !ok {
		p = prices[defaultPriceModel]
	}
	return float64(promptTokens)/1000*p.prompt + float64(completionTokens)/1000*p.completion
}

// Estimate counts tokens locally for providers that do not report usage.
// Both counts are at least one.
func Estimate(model, prompt, completion string) (int, int, float64) {
	tp := max(1, tokens.Count(prompt))
	tc := max(1, tokens.Count(completion))
	return tp, tc, Cost(model, tp, tc)
}
