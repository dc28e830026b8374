package domain

// Sentiment classifies a piece of user feedback.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// ScrapeStatus is the outcome reported by a single source scraper.
type ScrapeStatus string

const (
	ScrapeSuccess        ScrapeStatus = "success"
	ScrapePartialSuccess ScrapeStatus = "partial_success"
	ScrapeFailed         ScrapeStatus = "failed"
)

// CompetitorRecord is one competitor discovered by a scraper. Records are
// immutable after creation except that post-processing may attach Comments
// and SentimentSummary.
type CompetitorRecord struct {
	Name             string  `json:"name"`
	Description      string  `json:"description,omitempty"`
	Website          string  `json:"website,omitempty"`
	EstimatedUsers   int     `json:"estimated_users,omitempty"`
	EstimatedRevenue string  `json:"estimated_revenue,omitempty"`
	PricingModel     string  `json:"pricing_model,omitempty"`
	Source           string  `json:"source"`
	SourceURL        string  `json:"source_url"`
	ConfidenceScore  float64 `json:"confidence_score"`
	LaunchDate       string  `json:"launch_date,omitempty"`
	FounderCEO       string  `json:"founder_ceo,omitempty"`
	ReviewCount      int     `json:"review_count,omitempty"`
	AverageRating    float64 `json:"average_rating,omitempty"`

	Comments         []CommentRecord   `json:"comments,omitempty"`
	SentimentSummary *SentimentSummary `json:"sentiment_summary,omitempty"`
}

// FeedbackRecord is one user-feedback snippet (review, post, discussion
// comment) harvested by a scraper.
type FeedbackRecord struct {
	Text           string            `json:"text"`
	Sentiment      Sentiment         `json:"sentiment,omitempty"`
	SentimentScore float64           `json:"sentiment_score"`
	Source         string            `json:"source"`
	SourceURL      string            `json:"source_url,omitempty"`
	AuthorInfo     map[string]string `json:"author_info,omitempty"`
}

// CommentRecord is a feedback item attached to a specific competitor during
// detail enrichment.
type CommentRecord struct {
	Text                string    `json:"text"`
	Author              string    `json:"author,omitempty"`
	Date                string    `json:"date,omitempty"`
	Rating              int       `json:"rating,omitempty"`
	Helpfulness         int       `json:"helpfulness,omitempty"`
	Position            int       `json:"position"`
	Sentiment           Sentiment `json:"sentiment,omitempty"`
	SentimentScore      float64   `json:"sentiment_score"`
	SentimentConfidence float64   `json:"sentiment_confidence"`
}

// PainPoint is a high-signal negative comment surfaced in a summary.
type PainPoint struct {
	Text        string  `json:"text"`
	Author      string  `json:"author,omitempty"`
	Rating      int     `json:"rating,omitempty"`
	Confidence  float64 `json:"confidence"`
	Helpfulness int     `json:"helpfulness,omitempty"`
}

// SentimentSummary aggregates labeled feedback, either for one competitor's
// comments or for the whole job's feedback list.
type SentimentSummary struct {
	TotalComments         int                 `json:"total_comments"`
	PositiveCount         int                 `json:"positive_count"`
	NegativeCount         int                 `json:"negative_count"`
	NeutralCount          int                 `json:"neutral_count"`
	PositivePercentage    float64             `json:"positive_percentage"`
	NegativePercentage    float64             `json:"negative_percentage"`
	NeutralPercentage     float64             `json:"neutral_percentage"`
	AverageSentimentScore float64             `json:"average_sentiment_score"`
	OverallSentiment      Sentiment           `json:"overall_sentiment"`
	PainPoints            []PainPoint         `json:"pain_points,omitempty"`
	PainPointCategories   map[string][]string `json:"pain_point_categories,omitempty"`
	PositiveFeedback      []string            `json:"positive_feedback,omitempty"`
	NeutralFeedback       []string            `json:"neutral_feedback,omitempty"`
}

// EmptySentimentSummary is the canonical zero-comment summary.
func EmptySentimentSummary() *SentimentSummary {
	return &SentimentSummary{OverallSentiment: SentimentNeutral}
}

// ScrapingResult is what one scraper returns for one job.
type ScrapingResult struct {
	Status       ScrapeStatus       `json:"status"`
	Competitors  []CompetitorRecord `json:"competitors"`
	Feedback     []FeedbackRecord   `json:"feedback"`
	ErrorMessage string             `json:"error_message,omitempty"`
	Metadata     map[string]any     `json:"metadata,omitempty"`
}

// PartialSource names a source that returned partial_success, with its
// informational message.
type PartialSource struct {
	Source  string `json:"source"`
	Message string `json:"message,omitempty"`
}

// FailedSource names a source that failed, with the error text.
type FailedSource struct {
	Source string `json:"source"`
	Error  string `json:"error,omitempty"`
}

// RunMetadata is the coverage block attached to every aggregated result.
// The known keys are load-bearing for consumers; scraper-specific diagnostics
// go into Extras.
type RunMetadata struct {
	JobID                 string          `json:"job_id,omitempty"`
	ProcessingTimeSeconds float64         `json:"processing_time_seconds"`
	SourcesAttempted      int             `json:"sources_attempted"`
	SourcesSuccessful     int             `json:"sources_successful"`
	SourcesPartial        int             `json:"sources_partial"`
	SourcesFailed         int             `json:"sources_failed"`
	SuccessfulSources     []string        `json:"successful_sources"`
	PartialSources        []PartialSource `json:"partial_sources"`
	FailedSources         []FailedSource  `json:"failed_sources"`
	TotalCompetitorsFound int             `json:"total_competitors_found"`
	TotalFeedbackFound    int             `json:"total_feedback_found"`
	CompletedAt           string          `json:"completed_at,omitempty"`
	Error                 string          `json:"error,omitempty"`
	Extras                map[string]any  `json:"extras,omitempty"`
}

// AggregatedResult is the orchestrator's sole produced artifact.
type AggregatedResult struct {
	Competitors      []CompetitorRecord `json:"competitors"`
	Feedback         []FeedbackRecord   `json:"feedback"`
	SentimentSummary *SentimentSummary  `json:"sentiment_summary,omitempty"`
	Metadata         RunMetadata        `json:"metadata"`
}
