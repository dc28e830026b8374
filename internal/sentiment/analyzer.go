// Package sentiment classifies user-feedback text as positive, negative or
// neutral and builds the per-competitor and per-job sentiment aggregates.
package sentiment

import (
	"math"
	"regexp"
	"strings"

	"github.com/ignite/idea-validator/internal/domain"
)

// Result is one classification: a label, a score in [-1, 1] whose sign
// matches the label, and a confidence in [0, 1].
type Result struct {
	Label      domain.Sentiment
	Score      float64
	Confidence float64
}

// Analyzer classifies a text snippet. Implementations are stateless,
// synchronous and side-effect-free.
type Analyzer interface {
	Analyze(text string) Result
}

// Classification thresholds shared with the summary builder.
const (
	positiveThreshold = 0.1
	negativeThreshold = -0.1
)

// lexicon maps sentiment-bearing tokens to valence. Values are tuned for
// product-review vocabulary; the review-specific negatives (crash, bug,
// expensive) carry more weight than generic adjectives.
var lexicon = map[string]float64{
	// positive
	"love": 0.8, "loved": 0.8, "loves": 0.8, "great": 0.7, "excellent": 0.9,
	"awesome": 0.8, "amazing": 0.8, "fantastic": 0.8, "wonderful": 0.8,
	"perfect": 0.9, "best": 0.8, "good": 0.5, "nice": 0.5, "useful": 0.6,
	"helpful": 0.6, "easy": 0.5, "intuitive": 0.6, "smooth": 0.5,
	"fast": 0.5, "reliable": 0.6, "beautiful": 0.6, "clean": 0.4,
	"simple": 0.4, "recommend": 0.7, "recommended": 0.7, "works": 0.3,
	"happy": 0.6, "solid": 0.5, "powerful": 0.5, "convenient": 0.5,
	"impressed": 0.7, "enjoy": 0.6, "enjoyed": 0.6, "favorite": 0.7,
	"worth": 0.5, "free": 0.2, "like": 0.4, "liked": 0.4,

	// negative
	"hate": -0.8, "hated": -0.8, "terrible": -0.9, "awful": -0.9,
	"horrible": -0.9, "worst": -0.9, "bad": -0.6, "poor": -0.6,
	"crash": -0.8, "crashes": -0.8, "crashing": -0.8, "crashed": -0.8,
	"slow": -0.5, "laggy": -0.6, "lag": -0.5, "lags": -0.5,
	"freeze": -0.6, "freezes": -0.6, "frozen": -0.6, "bug": -0.7,
	"bugs": -0.7, "buggy": -0.8, "broken": -0.8, "breaks": -0.6,
	"useless": -0.8, "confusing": -0.7, "confused": -0.6,
	"difficult": -0.5, "complicated": -0.5, "expensive": -0.6,
	"overpriced": -0.7, "annoying": -0.6, "frustrating": -0.7,
	"frustrated": -0.7, "disappointing": -0.7, "disappointed": -0.7,
	"scam": -0.9, "waste": -0.7, "wasted": -0.7, "error": -0.5,
	"errors": -0.5, "problem": -0.4, "problems": -0.5, "issue": -0.4,
	"issues": -0.5, "missing": -0.4, "lacks": -0.5, "lacking": -0.5,
	"glitch": -0.6, "glitches": -0.6, "glitchy": -0.7, "fail": -0.6,
	"fails": -0.6, "failed": -0.6, "unusable": -0.9, "uninstalled": -0.7,
	"refund": -0.6, "ads": -0.3, "spam": -0.6, "ugly": -0.5,
	"clunky": -0.6, "unreliable": -0.7, "stuck": -0.5,
}

// negations flip the valence of the following sentiment-bearing token.
var negations = map[string]bool{
	"not": true, "no": true, "never": true, "nothing": true,
	"dont": true, "doesnt": true, "didnt": true, "cant": true,
	"cannot": true, "wont": true, "isnt": true, "wasnt": true,
	"arent": true, "hardly": true, "barely": true, "without": true,
}

// boosters scale the valence of the following sentiment-bearing token.
var boosters = map[string]float64{
	"very": 1.3, "really": 1.3, "extremely": 1.5, "so": 1.2,
	"totally": 1.3, "absolutely": 1.4, "incredibly": 1.5, "super": 1.3,
	"too": 1.2, "completely": 1.4,
	"slightly": 0.7, "somewhat": 0.7, "kinda": 0.7, "fairly": 0.8,
	"bit": 0.8,
}

// negationFlip is the factor applied when a token is negated. A flat -1
// overstates how negative "not great" reads, so the flip also dampens.
const negationFlip = -0.75

var tokenRe = regexp.MustCompile(`[a-z']+`)

// Lexicon is a deterministic, lexicon-based Analyzer. The zero value is
// ready to use.
type Lexicon struct{}

// NewLexicon returns the default analyzer.
func NewLexicon() *Lexicon { return &Lexicon{} }

// Analyze scores a text snippet. Empty or non-textual input yields a neutral
// result with zero confidence.
func (l *Lexicon) Analyze(text string) Result {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return Result{Label: domain.SentimentNeutral}
	}

	var total float64
	hits := 0
	for i, tok := range tokens {
		valence, ok := lexicon[tok]
		if !ok {
			continue
		}
		hits++
		// look back up to two tokens for negations and boosters
		for back := 1; back <= 2 && i-back >= 0; back++ {
			prev := tokens[i-back]
			if negations[prev] {
				valence *= negationFlip
			} else if factor, ok := boosters[prev]; ok {
				valence *= factor
			}
		}
		total += valence
	}

	if hits == 0 {
		return Result{Label: domain.SentimentNeutral}
	}

	// VADER-style normalization keeps the score in (-1, 1) while letting
	// several strong tokens push it toward the extremes.
	score := total / math.Sqrt(total*total+6)
	score = math.Max(-1, math.Min(1, score))

	label := domain.SentimentNeutral
	switch {
	case score > positiveThreshold:
		label = domain.SentimentPositive
	case score < negativeThreshold:
		label = domain.SentimentNegative
	}

	coverage := float64(hits) / float64(len(tokens))
	confidence := 0.6*math.Abs(score) + 0.4*math.Min(1, coverage*3)
	confidence = math.Max(0, math.Min(1, confidence))

	return Result{Label: label, Score: round4(score), Confidence: round4(confidence)}
}

func tokenize(text string) []string {
	text = strings.ToLower(text)
	raw := tokenRe.FindAllString(text, -1)
	tokens := make([]string, 0, len(raw))
	for _, tok := range raw {
		tok = strings.ReplaceAll(tok, "'", "")
		if tok != "" {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
