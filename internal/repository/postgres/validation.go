// Package postgres implements the service repository interfaces against
// PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/ignite/idea-validator/internal/domain"
	"github.com/ignite/idea-validator/internal/service/validation"
)

// ValidationRepo implements validation.Repository against PostgreSQL.
type ValidationRepo struct{ db *sql.DB }

// NewValidationRepo creates a Postgres-backed validation repository.
func NewValidationRepo(db *sql.DB) *ValidationRepo { return &ValidationRepo{db: db} }

func (r *ValidationRepo) Create(ctx context.Context, v *domain.Validation) (string, error) {
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO validations (id, idea_text, status, created_at)
		VALUES ($1, $2, $3, NOW())
	`, v.ID, v.IdeaText, v.Status)
	if err != nil {
		return "", fmt.Errorf("create validation: %w", err)
	}
	return v.ID, nil
}

func (r *ValidationRepo) Get(ctx context.Context, id string) (*domain.Validation, error) {
	v := &domain.Validation{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, idea_text, status, COALESCE(error_message,''),
		       processing_started_at, completed_at, created_at
		FROM validations
		WHERE id = $1
	`, id).Scan(
		&v.ID, &v.IdeaText, &v.Status, &v.ErrorMessage,
		&v.ProcessingStartedAt, &v.CompletedAt, &v.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, validation.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get validation: %w", err)
	}
	return v, nil
}

func (r *ValidationRepo) MarkProcessing(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE validations
		SET status = $2, processing_started_at = NOW(), error_message = NULL
		WHERE id = $1 AND status != $2
	`, id, domain.ValidationProcessing)
	if err != nil {
		return fmt.Errorf("mark processing: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark processing: %w", err)
	}
	if n == 0 {
		// either missing or already processing; disambiguate for the caller
		if _, err := r.Get(ctx, id); err != nil {
			return err
		}
		return validation.ErrAlreadyProcessing
	}
	return nil
}

func (r *ValidationRepo) Finish(ctx context.Context, id string, status domain.ValidationStatus, errMsg string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE validations
		SET status = $2, error_message = NULLIF($3, ''), completed_at = NOW()
		WHERE id = $1
	`, id, status, errMsg)
	if err != nil {
		return fmt.Errorf("finish validation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish validation: %w", err)
	}
	if n == 0 {
		return validation.ErrNotFound
	}
	return nil
}

// SaveResults replaces a job's stored records inside one transaction, so a
// reprocessed job never shows a mix of old and new rows.
func (r *ValidationRepo) SaveResults(ctx context.Context, id string, result *domain.AggregatedResult) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save results: begin: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"competitors", "feedback", "validation_metadata"} {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE validation_id = $1`, table), id); err != nil {
			return fmt.Errorf("save results: clear %s: %w", table, err)
		}
	}

	for i, c := range result.Competitors {
		comments, err := json.Marshal(c.Comments)
		if err != nil {
			return fmt.Errorf("save results: marshal comments for %q: %w", c.Name, err)
		}
		summary, err := json.Marshal(c.SentimentSummary)
		if err != nil {
			return fmt.Errorf("save results: marshal summary for %q: %w", c.Name, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO competitors
				(validation_id, rank, name, description, website, estimated_users,
				 estimated_revenue, pricing_model, source, source_url, confidence_score,
				 launch_date, founder_ceo, review_count, average_rating,
				 comments, sentiment_summary)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		`, id, i+1, c.Name, c.Description, c.Website, c.EstimatedUsers,
			c.EstimatedRevenue, c.PricingModel, c.Source, c.SourceURL, c.ConfidenceScore,
			c.LaunchDate, c.FounderCEO, c.ReviewCount, c.AverageRating,
			comments, summary); err != nil {
			return fmt.Errorf("save results: insert competitor %q: %w", c.Name, err)
		}
	}

	for i, f := range result.Feedback {
		authorInfo, err := json.Marshal(f.AuthorInfo)
		if err != nil {
			return fmt.Errorf("save results: marshal author info: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO feedback
				(validation_id, rank, text, sentiment, sentiment_score,
				 source, source_url, author_info)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, id, i+1, f.Text, f.Sentiment, f.SentimentScore,
			f.Source, f.SourceURL, authorInfo); err != nil {
			return fmt.Errorf("save results: insert feedback: %w", err)
		}
	}

	meta, err := json.Marshal(result.Metadata)
	if err != nil {
		return fmt.Errorf("save results: marshal metadata: %w", err)
	}
	summary, err := json.Marshal(result.SentimentSummary)
	if err != nil {
		return fmt.Errorf("save results: marshal sentiment summary: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO validation_metadata (validation_id, metadata, sentiment_summary)
		VALUES ($1, $2, $3)
	`, id, meta, summary); err != nil {
		return fmt.Errorf("save results: insert metadata: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save results: commit: %w", err)
	}
	return nil
}

func (r *ValidationRepo) GetResults(ctx context.Context, id string) (*domain.AggregatedResult, error) {
	var metaRaw, summaryRaw []byte
	err := r.db.QueryRowContext(ctx, `
		SELECT metadata, sentiment_summary
		FROM validation_metadata
		WHERE validation_id = $1
	`, id).Scan(&metaRaw, &summaryRaw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get results: metadata: %w", err)
	}

	result := &domain.AggregatedResult{}
	if err := json.Unmarshal(metaRaw, &result.Metadata); err != nil {
		return nil, fmt.Errorf("get results: decode metadata: %w", err)
	}
	if len(summaryRaw) > 0 && string(summaryRaw) != "null" {
		result.SentimentSummary = &domain.SentimentSummary{}
		if err := json.Unmarshal(summaryRaw, result.SentimentSummary); err != nil {
			return nil, fmt.Errorf("get results: decode sentiment summary: %w", err)
		}
	}

	competitors, err := r.loadCompetitors(ctx, id)
	if err != nil {
		return nil, err
	}
	result.Competitors = competitors

	feedback, err := r.loadFeedback(ctx, id)
	if err != nil {
		return nil, err
	}
	result.Feedback = feedback

	return result, nil
}

func (r *ValidationRepo) loadCompetitors(ctx context.Context, id string) ([]domain.CompetitorRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT name, COALESCE(description,''), COALESCE(website,''), estimated_users,
		       COALESCE(estimated_revenue,''), COALESCE(pricing_model,''),
		       source, source_url, confidence_score,
		       COALESCE(launch_date,''), COALESCE(founder_ceo,''),
		       review_count, average_rating, comments, sentiment_summary
		FROM competitors
		WHERE validation_id = $1
		ORDER BY rank
	`, id)
	if err != nil {
		return nil, fmt.Errorf("get results: competitors: %w", err)
	}
	defer rows.Close()

	var out []domain.CompetitorRecord
	for rows.Next() {
		var c domain.CompetitorRecord
		var comments, summary []byte
		if err := rows.Scan(
			&c.Name, &c.Description, &c.Website, &c.EstimatedUsers,
			&c.EstimatedRevenue, &c.PricingModel,
			&c.Source, &c.SourceURL, &c.ConfidenceScore,
			&c.LaunchDate, &c.FounderCEO,
			&c.ReviewCount, &c.AverageRating, &comments, &summary,
		); err != nil {
			return nil, fmt.Errorf("get results: scan competitor: %w", err)
		}
		if len(comments) > 0 && string(comments) != "null" {
			if err := json.Unmarshal(comments, &c.Comments); err != nil {
				return nil, fmt.Errorf("get results: decode comments for %q: %w", c.Name, err)
			}
		}
		if len(summary) > 0 && string(summary) != "null" {
			c.SentimentSummary = &domain.SentimentSummary{}
			if err := json.Unmarshal(summary, c.SentimentSummary); err != nil {
				return nil, fmt.Errorf("get results: decode summary for %q: %w", c.Name, err)
			}
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *ValidationRepo) loadFeedback(ctx context.Context, id string) ([]domain.FeedbackRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT text, sentiment, sentiment_score, source, COALESCE(source_url,''), author_info
		FROM feedback
		WHERE validation_id = $1
		ORDER BY rank
	`, id)
	if err != nil {
		return nil, fmt.Errorf("get results: feedback: %w", err)
	}
	defer rows.Close()

	var out []domain.FeedbackRecord
	for rows.Next() {
		var f domain.FeedbackRecord
		var authorInfo []byte
		if err := rows.Scan(&f.Text, &f.Sentiment, &f.SentimentScore, &f.Source, &f.SourceURL, &authorInfo); err != nil {
			return nil, fmt.Errorf("get results: scan feedback: %w", err)
		}
		if len(authorInfo) > 0 && string(authorInfo) != "null" {
			if err := json.Unmarshal(authorInfo, &f.AuthorInfo); err != nil {
				return nil, fmt.Errorf("get results: decode author info: %w", err)
			}
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
