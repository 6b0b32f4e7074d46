package moderation

import (
	"strings"
)

// Local pattern overlay: Romanian keyword heuristics that score text
// independently of the remote classifier. This is a backstop against
// classifier outages and its blind spots for Romanian idiom; the lists are
// starters, not an exhaustive lexicon.

var romanianProfanity = map[string]struct{}{
	"prost": {}, "proasta": {}, "prosti": {}, "proasto": {},
	"idiot": {}, "idiota": {}, "idioti": {}, "idiotule": {},
	"tampit": {}, "tampita": {}, "tampitule": {},
	"cretin": {}, "cretina": {}, "imbecil": {}, "imbecila": {},
	"dobitoc": {}, "dobitocule": {},
	"jegos": {}, "jegoasa": {},
	"nenorocit": {}, "nenorocita": {},
	"dracu": {}, "dracului": {}, "naiba": {}, "naibii": {},
	"cacat": {}, "rahat": {},
	"pula": {}, "muie": {},
	"curva": {}, "tarfa": {},
}

// Hate-speech terms are treated as inherently severe: any match yields a
// severity of at least 0.8 regardless of frequency.
var romanianHateTerms = []string{
	"jidan",
	"bozgor",
	"cioroi",
	"poponar",
	"retardat",
}

var diacriticFold = strings.NewReplacer(
	"ă", "a", "â", "a", "î", "i", "ș", "s", "ş", "s", "ț", "t", "ţ", "t",
	"Ă", "a", "Â", "a", "Î", "i", "Ș", "s", "Ş", "s", "Ț", "t", "Ţ", "t",
)

func normalizeForMatch(text string) string {
	return strings.ToLower(diacriticFold.Replace(text))
}

func splitWords(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9')
	})
}

// AnalyzeLocalPatterns scores text against the local keyword lists and returns
// the result as a Scores overlay ready to merge with classifier output.
// Generic profanity scales with density relative to text length, capped at 1.0;
// hate-speech matches floor at 0.8.
func AnalyzeLocalPatterns(text string) Scores {
	normalized := normalizeForMatch(text)
	words := splitWords(normalized)
	if len(words) == 0 {
		return Scores{}
	}

	profanityHits := 0
	for _, w := range words {
		if _, ok := romanianProfanity[w]; ok {
			profanityHits++
		}
	}
	profanity := 0.0
	if profanityHits > 0 {
		density := float64(profanityHits) / float64(len(words))
		profanity = clamp01(density * 3)
	}

	hate := 0.0
	for _, term := range romanianHateTerms {
		if strings.Contains(normalized, term) {
			hate = clamp01(0.8 + 0.05*float64(profanityHits+1))
			break
		}
	}

	return Scores{LocalProfanity: profanity, HateSpeech: hate}
}
