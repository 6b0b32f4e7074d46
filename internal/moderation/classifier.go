package moderation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"calimara/internal/config"
)

// Assessment is the coarse tri-state summary the classifier returns alongside
// per-category scores.
type Assessment string

const (
	AssessmentSafe   Assessment = "safe"
	AssessmentReview Assessment = "review"
	AssessmentUnsafe Assessment = "unsafe"
)

// Analysis is the normalized classifier output. The client absorbs every
// failure mode locally, so callers always get a usable Analysis back.
type Analysis struct {
	Scores     Scores
	Assessment Assessment
	Reason     string
	Raw        string // raw classifier payload, kept for audit replay
}

type Classifier interface {
	Analyze(ctx context.Context, text string) *Analysis
}

// GeminiClassifier scores text via the Gemini API. Generation is configured
// deterministically (zero temperature) so identical input yields identical
// output across runs.
type GeminiClassifier struct {
	client   *genai.Client
	model    string
	enabled  bool
	romanian bool
	timeout  time.Duration
	limiter  *rate.Limiter
	logger   *zap.Logger
}

func NewGeminiClassifier(cfg *config.Config, logger *zap.Logger) *GeminiClassifier {
	g := &GeminiClassifier{
		model:    cfg.GeminiModel,
		enabled:  cfg.ModerationEnabled && cfg.GeminiAPIKey != "",
		romanian: cfg.RomanianContext,
		timeout:  time.Duration(cfg.ClassifierTimeoutSec) * time.Second,
		logger:   logger,
	}
	if g.timeout <= 0 {
		g.timeout = 10 * time.Second
	}
	if cfg.AIRateRPS > 0 && cfg.AIRateBurst > 0 {
		g.limiter = rate.NewLimiter(rate.Limit(cfg.AIRateRPS), cfg.AIRateBurst)
	}
	if !g.enabled {
		logger.Warn("content moderation disabled or unconfigured; all content will be auto-approved")
		return g
	}
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		logger.Error("failed to create gemini client, moderation disabled", zap.Error(err))
		g.enabled = false
		return g
	}
	g.client = client
	return g
}

func (g *GeminiClassifier) Analyze(ctx context.Context, text string) *Analysis {
	if !g.enabled {
		return disabledAnalysis()
	}
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return unavailableAnalysis(err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.client.Models.GenerateContent(
		ctx,
		g.model,
		genai.Text(BuildModerationPrompt(text, g.romanian)),
		&genai.GenerateContentConfig{
			Temperature:      genai.Ptr[float32](0),
			ResponseMIMEType: "application/json",
		},
	)
	if err != nil {
		g.logger.Warn("classifier call failed, failing open", zap.Error(err))
		return unavailableAnalysis(err)
	}

	raw := resp.Text()
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)
	if raw == "" {
		// The classifier refusing to even describe the text is itself a strong
		// signal the text is sensitive: fail closed.
		g.logger.Warn("classifier returned empty/blocked response, flagging for review")
		return refusedAnalysis()
	}

	analysis, err := ParseAnalysis(raw)
	if err != nil {
		g.logger.Warn("classifier returned malformed payload, failing open", zap.Error(err), zap.String("payload", raw))
		return malformedAnalysis(raw)
	}
	return analysis
}

// ParseAnalysis decodes the classifier's JSON payload into a normalized
// Analysis. Scores are clamped to [0,1] and missing categories default to 0.
func ParseAnalysis(raw string) (*Analysis, error) {
	var wire struct {
		Toxicity          float64 `json:"toxicity"`
		Harassment        float64 `json:"harassment"`
		HateSpeech        float64 `json:"hate_speech"`
		SexuallyExplicit  float64 `json:"sexually_explicit"`
		DangerousContent  float64 `json:"dangerous_content"`
		OverallAssessment string  `json:"overall_assessment"`
		Reason            string  `json:"reason"`
	}
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		return nil, fmt.Errorf("decode classifier response: %w", err)
	}

	assessment := Assessment(strings.ToLower(strings.TrimSpace(wire.OverallAssessment)))
	switch assessment {
	case AssessmentSafe, AssessmentReview, AssessmentUnsafe:
	case "":
		assessment = AssessmentSafe
	default:
		return nil, fmt.Errorf("unknown overall_assessment %q", wire.OverallAssessment)
	}

	return &Analysis{
		Scores: Scores{
			Toxicity:         wire.Toxicity,
			Harassment:       wire.Harassment,
			HateSpeech:       wire.HateSpeech,
			SexuallyExplicit: wire.SexuallyExplicit,
			DangerousContent: wire.DangerousContent,
		}.Clamped(),
		Assessment: assessment,
		Reason:     wire.Reason,
		Raw:        raw,
	}, nil
}

func disabledAnalysis() *Analysis {
	return &Analysis{
		Assessment: AssessmentSafe,
		Reason:     "moderation disabled or unconfigured",
	}
}

// refusedAnalysis is the fail-closed path: a blocked or empty classifier
// response yields a high synthetic toxicity score and routes to human review.
func refusedAnalysis() *Analysis {
	return &Analysis{
		Scores:     Scores{Toxicity: 0.8},
		Assessment: AssessmentReview,
		Reason:     "classifier refused to analyze this content",
	}
}

// malformedAnalysis is the fail-open path for non-JSON payloads: a formatting
// bug in the AI response must never block ordinary user content.
func malformedAnalysis(raw string) *Analysis {
	return &Analysis{
		Assessment: AssessmentSafe,
		Reason:     "parsing error, defaulting to safe",
		Raw:        raw,
	}
}

// unavailableAnalysis is the fail-open path for network errors, timeouts and
// non-success statuses.
func unavailableAnalysis(err error) *Analysis {
	return &Analysis{
		Assessment: AssessmentSafe,
		Reason:     fmt.Sprintf("classifier error, defaulting to safe: %v", err),
	}
}
