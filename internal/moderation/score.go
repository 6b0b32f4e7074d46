package moderation

// Scores holds the per-category severity values for one piece of text.
// Every field lives in [0,1]; a category the classifier did not return stays 0.
type Scores struct {
	Toxicity         float64 `json:"toxicity"`
	Harassment       float64 `json:"harassment"`
	HateSpeech       float64 `json:"hate_speech"`
	SexuallyExplicit float64 `json:"sexually_explicit"`
	DangerousContent float64 `json:"dangerous_content"`
	LocalProfanity   float64 `json:"local_profanity"`
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Clamped returns a copy with every category forced into [0,1].
func (s Scores) Clamped() Scores {
	return Scores{
		Toxicity:         clamp01(s.Toxicity),
		Harassment:       clamp01(s.Harassment),
		HateSpeech:       clamp01(s.HateSpeech),
		SexuallyExplicit: clamp01(s.SexuallyExplicit),
		DangerousContent: clamp01(s.DangerousContent),
		LocalProfanity:   clamp01(s.LocalProfanity),
	}
}

// Max returns the highest severity across all categories.
func (s Scores) Max() float64 {
	max := s.Toxicity
	for _, v := range []float64{s.Harassment, s.HateSpeech, s.SexuallyExplicit, s.DangerousContent, s.LocalProfanity} {
		if v > max {
			max = v
		}
	}
	return max
}

// Merge combines two score sets by taking the per-category maximum, so any
// signal that a category is risky wins.
func (s Scores) Merge(o Scores) Scores {
	pick := func(a, b float64) float64 {
		if b > a {
			return b
		}
		return a
	}
	return Scores{
		Toxicity:         pick(s.Toxicity, o.Toxicity),
		Harassment:       pick(s.Harassment, o.Harassment),
		HateSpeech:       pick(s.HateSpeech, o.HateSpeech),
		SexuallyExplicit: pick(s.SexuallyExplicit, o.SexuallyExplicit),
		DangerousContent: pick(s.DangerousContent, o.DangerousContent),
		LocalProfanity:   pick(s.LocalProfanity, o.LocalProfanity),
	}
}
