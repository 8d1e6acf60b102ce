// Package gate implements the optional LLM relevance veto: a second
// opinion on top of the dictionary-based score, gated by a process-wide
// call budget.
package gate

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"mwi/internal/logging"
)

// Classifier returns a yes/no/unknown verdict on an Expression's
// relevance given its title and readable body.
type Classifier interface {
	Admit(ctx context.Context, title, readable string) (bool, error)
}

// Verdict is the parsed outcome of a single classification call.
type Verdict int

const (
	VerdictUnknown Verdict = iota
	VerdictYes
	VerdictNo
)

// GenAIGate implements Classifier over google.golang.org/genai, mirroring
// embedding.GenAIEngine's client-construction and logging style. A call
// budget of MaxCalls guards against runaway API spend; once exceeded, the
// gate logs a single notice and admits every subsequent Expression
// without calling the model.
type GenAIGate struct {
	client           *genai.Client
	model            string
	readableMaxChars int
	budget           *callBudget
}

// NewGenAIGate constructs a gate backed by the Gemini API.
func NewGenAIGate(apiKey, model string, readableMaxChars int, maxCalls int64) (*GenAIGate, error) {
	logging.Gate("creating GenAI relevance gate: model=%s, max_calls=%d", model, maxCalls)

	if apiKey == "" {
		return nil, fmt.Errorf("genai API key is required")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &GenAIGate{
		client:           client,
		model:            model,
		readableMaxChars: readableMaxChars,
		budget:           newCallBudget(maxCalls),
	}, nil
}

// Admit asks the model whether an Expression is relevant. It returns true
// (admit) whenever the budget is exhausted or the call fails — the gate
// degrades to a no-op rather than blocking the crawl.
func (g *GenAIGate) Admit(ctx context.Context, title, readable string) (bool, error) {
	allowed, justExceeded := g.budget.Allow()
	if justExceeded {
		logging.GateWarn("relevance gate call budget exceeded; disabling gate for remainder of run")
	}
	if !allowed {
		return true, nil
	}

	body := readable
	if len(body) > g.readableMaxChars {
		body = body[:g.readableMaxChars]
	}

	prompt := fmt.Sprintf(
		"Title: %s\n\nContent: %s\n\nIs this page relevant to the research topic? Answer with a single word: yes, no, or unknown.",
		title, body,
	)

	result, err := g.client.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}, nil)
	if err != nil {
		logging.GateWarn("gate call failed: %v", err)
		return true, err
	}

	verdict := parseVerdict(result.Text())
	logging.GateDebug("gate verdict=%v", verdict)

	return admitForVerdict(verdict), nil
}

// admitForVerdict applies the gate's veto rule: only a definitive No
// blocks. An ambiguous, unrecognized, or ("unknown") verdict falls back
// to the dictionary score rather than vetoing it.
func admitForVerdict(v Verdict) bool {
	return v != VerdictNo
}

// parseVerdict extracts the first word of the model's response and maps
// it to a Verdict. Anything other than a recognized yes/no token is
// unknown, which Admit treats as admitted (falls back to local scoring).
func parseVerdict(response string) Verdict {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(response)))
	if len(fields) == 0 {
		return VerdictUnknown
	}
	switch strings.Trim(fields[0], ".,!") {
	case "yes":
		return VerdictYes
	case "no":
		return VerdictNo
	default:
		return VerdictUnknown
	}
}
