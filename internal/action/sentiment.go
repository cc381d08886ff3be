package action

import (
	"context"
	"strings"

	"github.com/aristath/briefd/internal/capability"
)

// The scorer's word lists. A cheap heuristic, not NLP: good enough to gate
// a notification on obviously bad or good news.
var positiveWords = map[string]bool{
	"good": true, "great": true, "excellent": true, "positive": true,
	"up": true, "gain": true, "gains": true, "rise": true, "rises": true,
	"growth": true, "improved": true, "improves": true, "strong": true,
	"success": true, "successful": true, "win": true, "wins": true,
	"record": true, "beat": true, "beats": true, "rally": true,
	"surge": true, "surges": true, "soar": true, "soars": true,
	"optimistic": true, "recovery": true,
}

var negativeWords = map[string]bool{
	"bad": true, "poor": true, "terrible": true, "negative": true,
	"down": true, "loss": true, "losses": true, "fall": true, "falls": true,
	"drop": true, "drops": true, "decline": true, "declines": true,
	"weak": true, "fail": true, "fails": true, "failure": true,
	"crash": true, "crashes": true, "plunge": true, "plunges": true,
	"slump": true, "crisis": true, "fear": true, "fears": true,
	"warning": true, "pessimistic": true, "recession": true,
}

// SentimentAction scores the output with a word-list heuristic and can halt
// the chain when the score drops below a threshold.
type SentimentAction struct {
	failBelow float64
	hasFail   bool
}

// NewSentiment creates the sentiment action. Params: fail_below (optional
// float in [-1, 1]; when set, a lower score halts the chain).
func NewSentiment(params map[string]any) (*SentimentAction, error) {
	a := &SentimentAction{}
	if _, ok := params["fail_below"]; ok {
		a.failBelow = capability.FloatParam(params, "fail_below", 0)
		a.hasFail = true
	}
	return a, nil
}

// Name identifies the action in logs and errors.
func (a *SentimentAction) Name() string { return "sentiment" }

// Process attaches the score and label; the output is untouched.
func (a *SentimentAction) Process(ctx context.Context, output string, execCtx *capability.TaskContext) (capability.ActionResult, error) {
	score, label := scoreSentiment(output)

	cont := true
	if a.hasFail && score < a.failBelow {
		cont = false
	}

	return capability.ActionResult{
		Output:         output,
		ShouldContinue: cont,
		Metadata: map[string]any{
			"sentiment_score": score,
			"sentiment_label": label,
		},
	}, nil
}

// scoreSentiment returns (positive - negative) / (positive + negative) over
// the lexicon hits, in [-1, 1], and 0 when no lexicon word appears. Labels
// cut over at +/- 0.25.
func scoreSentiment(text string) (float64, string) {
	var pos, neg int
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,!?;:()[]\"'")
		switch {
		case positiveWords[word]:
			pos++
		case negativeWords[word]:
			neg++
		}
	}

	if pos+neg == 0 {
		return 0, "neutral"
	}

	score := float64(pos-neg) / float64(pos+neg)
	switch {
	case score >= 0.25:
		return score, "positive"
	case score <= -0.25:
		return score, "negative"
	default:
		return score, "neutral"
	}
}

// ToolSpec exposes the scorer as an LLM-callable function.
func (a *SentimentAction) ToolSpec() *capability.ToolSpec {
	return &capability.ToolSpec{
		Name:        "analyze_sentiment",
		Description: "Score the sentiment of text between -1 (negative) and 1 (positive).",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"text": map[string]any{
					"type":        "string",
					"description": "The text to score.",
				},
			},
			"required": []string{"text"},
		},
	}
}
