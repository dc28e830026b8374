// Package clean provides the pure text transforms applied to every scraped
// record before aggregation: HTML stripping, escape-sequence conversion,
// Unicode canonicalization, whitespace normalization and trimming. All
// transforms are idempotent.
package clean

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/ignite/idea-validator/internal/domain"
)

var (
	htmlTagRe     = regexp.MustCompile(`<[^<>]*>`)
	spacesTabsRe  = regexp.MustCompile(`[ \t]+`)
	manyNewlineRe = regexp.MustCompile(`\n{3,}`)
	revenueHintRe = regexp.MustCompile(`(?i)[\d$€£¥]|million|billion|thousand|\b[kmb]\b`)
)

// unicodeReplacer maps common smart punctuation, trademark and bullet
// codepoints to ASCII-printable equivalents. Fixed table; applied before
// whitespace normalization.
var unicodeReplacer = strings.NewReplacer(
	"‘", "'", // left single quote
	"’", "'", // right single quote
	"‚", "'",
	"“", `"`, // left double quote
	"”", `"`, // right double quote
	"„", `"`,
	"–", "-", // en dash
	"—", "-", // em dash
	"−", "-", // minus sign
	"…", "...", // ellipsis
	"•", "-", // bullet
	"·", "-", // middle dot
	"™", "", // trademark
	"®", "", // registered
	"©", "", // copyright
	" ", " ", // non-breaking space
)

// escapeReplacer converts literal backslash escape sequences that survive
// JSON round-trips into real whitespace, and carriage returns into newlines.
var escapeReplacer = strings.NewReplacer(
	`\r\n`, "\n",
	`\n`, "\n",
	`\t`, " ",
	"\r\n", "\n",
	"\r", "\n",
	"\x0b", " ",
	"\x0c", " ",
)

// Text runs the full cleaning pipeline on one string.
func Text(s string) string {
	if s == "" {
		return ""
	}
	s = escapeReplacer.Replace(s)
	s = unicodeReplacer.Replace(s)
	s = stripHTML(s)
	s = spacesTabsRe.ReplaceAllString(s, " ")
	// spaces left hanging at line boundaries after tag removal
	s = strings.ReplaceAll(s, " \n", "\n")
	s = strings.ReplaceAll(s, "\n ", "\n")
	s = manyNewlineRe.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// stripHTML removes tag sequences while preserving inner text. Stripping
// repeats until stable so nested or malformed markup cannot leave a
// reassembled tag behind.
func stripHTML(s string) string {
	for {
		next := htmlTagRe.ReplaceAllString(s, "")
		if next == s {
			return s
		}
		s = next
	}
}

// URL validates and normalizes a website URL. A missing scheme gets https;
// anything without a plausible dotted host is dropped.
func URL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return ""
	}
	parts := strings.Split(parsed.Host, ".")
	if len(parts) < 2 || len(parts[len(parts)-1]) < 2 {
		return ""
	}
	for _, p := range parts {
		if p == "" {
			return ""
		}
	}
	return raw
}

// Revenue normalizes a display revenue string, dropping values that carry no
// numeric or currency signal.
func Revenue(raw string) string {
	raw = Text(raw)
	if raw == "" || !revenueHintRe.MatchString(raw) {
		return ""
	}
	return raw
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Competitors cleans every string field of each record. Records whose name
// cleans down to fewer than 2 characters are dropped; descriptions shorter
// than 10 characters are treated as noise and cleared.
func Competitors(in []domain.CompetitorRecord) []domain.CompetitorRecord {
	out := make([]domain.CompetitorRecord, 0, len(in))
	for _, c := range in {
		c.Name = Text(c.Name)
		if len(c.Name) < 2 {
			continue
		}
		c.Description = Text(c.Description)
		if len(c.Description) < 10 {
			c.Description = ""
		}
		c.Website = URL(c.Website)
		c.EstimatedRevenue = Revenue(c.EstimatedRevenue)
		c.PricingModel = Text(c.PricingModel)
		c.LaunchDate = Text(c.LaunchDate)
		c.FounderCEO = Text(c.FounderCEO)
		c.ConfidenceScore = clamp(c.ConfidenceScore, 0, 1)
		c.Comments = Comments(c.Comments)
		out = append(out, c)
	}
	return out
}

// Feedback cleans every string field of each record, including the free-form
// author info values. Records whose text cleans down to fewer than 5
// characters are dropped.
func Feedback(in []domain.FeedbackRecord) []domain.FeedbackRecord {
	out := make([]domain.FeedbackRecord, 0, len(in))
	for _, f := range in {
		f.Text = Text(f.Text)
		if len(f.Text) < 5 {
			continue
		}
		switch f.Sentiment {
		case domain.SentimentPositive, domain.SentimentNegative, domain.SentimentNeutral:
		default:
			f.Sentiment = ""
		}
		f.SentimentScore = clamp(f.SentimentScore, -1, 1)
		if f.AuthorInfo != nil {
			cleaned := make(map[string]string, len(f.AuthorInfo))
			for k, v := range f.AuthorInfo {
				cleaned[k] = Text(v)
			}
			f.AuthorInfo = cleaned
		}
		out = append(out, f)
	}
	return out
}

// Comments cleans attached competitor comments in place order.
func Comments(in []domain.CommentRecord) []domain.CommentRecord {
	if len(in) == 0 {
		return in
	}
	out := make([]domain.CommentRecord, 0, len(in))
	for _, cm := range in {
		cm.Text = Text(cm.Text)
		if cm.Text == "" {
			continue
		}
		cm.Author = Text(cm.Author)
		cm.Date = Text(cm.Date)
		out = append(out, cm)
	}
	return out
}
