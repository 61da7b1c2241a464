package agent

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/relaykit/conduit/internal/llmgateway"
	"github.com/relaykit/conduit/pkg/models"
)

// qaSystemPrompt mandates strict, unfenced JSON output. The QA call sets no
// temperature: the Gateway interface has no temperature parameter, so the
// provider's default applies.
const qaSystemPrompt = `You are a QA reviewer for an AI specialist's output. Given the user's intent, the route, and the specialist's output, decide whether the output satisfies the intent. File-producing routes only require a download link to be present; code/design routes only require a structural hallmark (e.g. a code block or design description). Respond with ONLY a JSON object, no markdown fencing, no commentary: {"approved": bool, "issues": [string], "correction_instruction": string}.`

// QAVerdict is the QA Reviewer's decision, per spec §4.5.
type QAVerdict struct {
	Approved              bool     `json:"approved"`
	Issues                []string `json:"issues"`
	CorrectionInstruction string   `json:"correction_instruction"`
}

// QAReviewer runs a single dedicated LLM call to judge a specialist's
// output against the user's intent.
type QAReviewer struct {
	Gateway llmgateway.Gateway
	ModelID string
}

// NewQAReviewer builds a QAReviewer bound to the given gateway and model.
func NewQAReviewer(gw llmgateway.Gateway, modelID string) *QAReviewer {
	return &QAReviewer{Gateway: gw, ModelID: modelID}
}

// Review judges specialistOutput against userIntent for the given route.
// Any parse or provider failure fails open: the output is treated as
// approved, since QA must never block the request on its own unavailability.
func (r *QAReviewer) Review(ctx context.Context, userIntent, route, specialistOutput string) QAVerdict {
	prompt := "User intent: " + userIntent + "\nRoute: " + route + "\nSpecialist output:\n" + specialistOutput

	transcript := []models.Message{
		{Role: models.RoleSystem, Content: []models.ContentBlock{{Type: models.BlockText, Text: qaSystemPrompt}}},
		models.UserText(prompt),
	}

	msg, err := r.Gateway.Call(ctx, transcript, r.ModelID, 512, nil)
	if err != nil {
		return QAVerdict{Approved: true}
	}

	verdict, ok := parseVerdict(msg.Text())
	if !ok {
		return QAVerdict{Approved: true}
	}
	return verdict
}

// parseVerdict strips accidental code fencing before decoding the QA
// model's JSON response.
func parseVerdict(text string) (QAVerdict, bool) {
	text = stripFencing(text)
	var v QAVerdict
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return QAVerdict{}, false
	}
	return v, true
}

func stripFencing(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		first := s[:nl]
		if !strings.Contains(first, "{") {
			s = s[nl+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
