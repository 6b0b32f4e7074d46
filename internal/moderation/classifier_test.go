package moderation

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"calimara/internal/config"
)

func TestParseAnalysisValid(t *testing.T) {
	raw := `{"toxicity":0.9,"harassment":0.7,"hate_speech":0.1,"sexually_explicit":0.0,"dangerous_content":0.05,"overall_assessment":"unsafe","reason":"direct insults"}`
	analysis, err := ParseAnalysis(raw)
	require.NoError(t, err)
	assert.Equal(t, AssessmentUnsafe, analysis.Assessment)
	assert.Equal(t, "direct insults", analysis.Reason)
	assert.InDelta(t, 0.9, analysis.Scores.Toxicity, 1e-9)
	assert.InDelta(t, 0.7, analysis.Scores.Harassment, 1e-9)
	assert.Equal(t, raw, analysis.Raw)
}

func TestParseAnalysisClampsScores(t *testing.T) {
	analysis, err := ParseAnalysis(`{"toxicity":1.5,"harassment":-0.4,"overall_assessment":"safe"}`)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, analysis.Scores.Toxicity, 1e-9)
	assert.InDelta(t, 0.0, analysis.Scores.Harassment, 1e-9)
}

func TestParseAnalysisAssessmentHandling(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		want    Assessment
		wantErr bool
	}{
		{"empty assessment defaults to safe", `{"toxicity":0.1}`, AssessmentSafe, false},
		{"case and whitespace normalized", `{"overall_assessment":" Review "}`, AssessmentReview, false},
		{"unknown assessment rejected", `{"overall_assessment":"maybe"}`, "", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			analysis, err := ParseAnalysis(tc.raw)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, analysis.Assessment)
		})
	}
}

func TestParseAnalysisMalformedJSON(t *testing.T) {
	for _, raw := range []string{"", "not json", `{"toxicity":`} {
		_, err := ParseAnalysis(raw)
		assert.Error(t, err, "payload: %q", raw)
	}
}

func TestRefusedAnalysisFailsClosed(t *testing.T) {
	analysis := refusedAnalysis()
	assert.GreaterOrEqual(t, analysis.Scores.Toxicity, 0.7)
	assert.Equal(t, AssessmentReview, analysis.Assessment)
}

func TestUnavailableAnalysisFailsOpen(t *testing.T) {
	analysis := unavailableAnalysis(context.DeadlineExceeded)
	assert.Equal(t, AssessmentSafe, analysis.Assessment)
	assert.Equal(t, Scores{}, analysis.Scores)
	assert.True(t, strings.Contains(analysis.Reason, "error"))
}

func TestMalformedAnalysisFailsOpen(t *testing.T) {
	analysis := malformedAnalysis("garbage")
	assert.Equal(t, AssessmentSafe, analysis.Assessment)
	assert.Equal(t, "garbage", analysis.Raw)
	assert.True(t, strings.Contains(analysis.Reason, "parsing error"))
}

func TestDisabledClassifierAutoApproves(t *testing.T) {
	cfg := &config.Config{ModerationEnabled: false}
	g := NewGeminiClassifier(cfg, zap.NewNop())
	analysis := g.Analyze(context.Background(), "orice text")
	assert.Equal(t, AssessmentSafe, analysis.Assessment)
	assert.Equal(t, Scores{}, analysis.Scores)
	assert.Contains(t, analysis.Reason, "disabled")
}

func TestMissingAPIKeyDisablesClassifier(t *testing.T) {
	cfg := &config.Config{ModerationEnabled: true, GeminiAPIKey: ""}
	g := NewGeminiClassifier(cfg, zap.NewNop())
	analysis := g.Analyze(context.Background(), "orice text")
	assert.Equal(t, AssessmentSafe, analysis.Assessment)
}
