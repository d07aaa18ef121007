package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hrplus/talent-hub/internal/models"
)

// FeedbackRepository reads 360-feedback requests and responses. All data
// here is external and read-only from this service's perspective.
type FeedbackRepository struct {
	db *pgxpool.Pool
}

// NewFeedbackRepository creates a new feedback repository.
func NewFeedbackRepository(db *pgxpool.Pool) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

// ListCompletedRequests returns a cycle's completed feedback requests with
// each rater's category name and aggregation weight joined in.
func (r *FeedbackRepository) ListCompletedRequests(ctx context.Context, cycleID uuid.UUID) ([]models.FeedbackRequest, error) {
	query := `
		SELECT fr.id, fr.cycle_id, fr.subject_employee_id, fr.rater_id, fr.status,
			rc.name, rc.weight
		FROM feedback_requests fr
		JOIN rater_categories rc ON rc.id = fr.rater_category_id
		WHERE fr.cycle_id = $1 AND fr.status = 'completed'
	`

	rows, err := r.db.Query(ctx, query, cycleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list completed requests: %w", err)
	}
	defer rows.Close()

	requests := []models.FeedbackRequest{}

	for rows.Next() {
		var req models.FeedbackRequest

		err := rows.Scan(
			&req.ID, &req.CycleID, &req.SubjectEmployeeID, &req.RaterID, &req.Status,
			&req.RaterCategory, &req.RaterWeight,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feedback request: %w", err)
		}

		requests = append(requests, req)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating feedback requests: %w", err)
	}

	return requests, nil
}

// ListRatingResponses returns the rating responses for the given requests,
// each carrying its originating question's text and category. Responses
// without a rating value (pure free-text) are excluded.
func (r *FeedbackRepository) ListRatingResponses(ctx context.Context, requestIDs []uuid.UUID) ([]models.FeedbackResponse, error) {
	if len(requestIDs) == 0 {
		return []models.FeedbackResponse{}, nil
	}

	query := `
		SELECT resp.id, resp.request_id, resp.rating_value, q.text, q.category
		FROM feedback_responses resp
		JOIN feedback_questions q ON q.id = resp.question_id
		WHERE resp.request_id = ANY($1) AND resp.rating_value IS NOT NULL
	`

	rows, err := r.db.Query(ctx, query, requestIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list rating responses: %w", err)
	}
	defer rows.Close()

	responses := []models.FeedbackResponse{}

	for rows.Next() {
		var resp models.FeedbackResponse

		err := rows.Scan(&resp.ID, &resp.RequestID, &resp.RatingValue, &resp.QuestionText, &resp.QuestionCategory)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rating response: %w", err)
		}

		responses = append(responses, resp)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rating responses: %w", err)
	}

	return responses, nil
}
