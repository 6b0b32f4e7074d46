package moderation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnalyzeLocalPatternsCleanText(t *testing.T) {
	for _, text := range []string{
		"",
		"   \n\t  ",
		"O seară liniștită pe malul mării, cu un ceai fierbinte.",
		"This is a perfectly benign English sentence.",
	} {
		assert.Equal(t, Scores{}, AnalyzeLocalPatterns(text), "text: %q", text)
	}
}

func TestAnalyzeLocalPatternsProfanityDensity(t *testing.T) {
	// One hit in six words: density 1/6, scaled by 3 = 0.5.
	s := AnalyzeLocalPatterns("esti un prost si nu altceva")
	assert.InDelta(t, 0.5, s.LocalProfanity, 1e-9)
	assert.Zero(t, s.HateSpeech)

	// Dense profanity caps at 1.0.
	s = AnalyzeLocalPatterns("prost idiot cretin")
	assert.InDelta(t, 1.0, s.LocalProfanity, 1e-9)
}

func TestAnalyzeLocalPatternsDiacriticsFolded(t *testing.T) {
	// "tâmpit" folds to "tampit" before matching.
	s := AnalyzeLocalPatterns("ești un tâmpit")
	assert.Greater(t, s.LocalProfanity, 0.0)
}

func TestAnalyzeLocalPatternsHateFloor(t *testing.T) {
	s := AnalyzeLocalPatterns("comentariu cu jidan in el")
	assert.GreaterOrEqual(t, s.HateSpeech, 0.8)
	assert.Zero(t, s.LocalProfanity)

	// Profanity alongside a hate term pushes the hate score further up.
	combined := AnalyzeLocalPatterns("prost de jidan")
	assert.Greater(t, combined.HateSpeech, s.HateSpeech)
	assert.LessOrEqual(t, combined.HateSpeech, 1.0)
}

func TestAnalyzeLocalPatternsWordBoundaries(t *testing.T) {
	// "prostie" must not match "prost": profanity matching is whole-word.
	s := AnalyzeLocalPatterns("asta e o prostie nevinovata")
	assert.Zero(t, s.LocalProfanity)
}
