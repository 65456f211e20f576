package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"business-workers/internal/models"
)

const serviceRequestColumns = `
	id, user_id, business_name, phone, address, manager_phone,
	email, logo_url, description, business_type, business_model,
	status, rejection_reason, previous_request_id, reviewed_by,
	submitted_at, reviewed_at, approved_at, rejected_at, activated_at,
	created_at, updated_at`

type ServiceRequestStore struct {
	db *sql.DB
}

func NewServiceRequestStore(db *sql.DB) *ServiceRequestStore {
	return &ServiceRequestStore{db: db}
}

// Get loads a service request by id.
func (s *ServiceRequestStore) Get(ctx context.Context, id string) (*models.ServiceRequest, error) {
	return s.getBy(ctx, "id", id)
}

// GetResubmission loads the draft created from the rejected request previousID.
func (s *ServiceRequestStore) GetResubmission(ctx context.Context, previousID string) (*models.ServiceRequest, error) {
	return s.getBy(ctx, "previous_request_id", previousID)
}

// getBy reads the row where column equals value. column is never caller input.
func (s *ServiceRequestStore) getBy(ctx context.Context, column, value string) (*models.ServiceRequest, error) {
	var (
		req                                           models.ServiceRequest
		email, logo, description, model, reason       sql.NullString
		previous, reviewedBy                          sql.NullString
		submitted, reviewed, approved, rejected, actv sql.NullTime
	)

	err := s.db.QueryRowContext(ctx,
		`SELECT `+serviceRequestColumns+` FROM service_requests WHERE `+column+` = $1`, value,
	).Scan(
		&req.ID, &req.UserID, &req.BusinessName, &req.Phone, &req.Address, &req.ManagerPhone,
		&email, &logo, &description, &req.BusinessType, &model,
		&req.Status, &reason, &previous, &reviewedBy,
		&submitted, &reviewed, &approved, &rejected, &actv,
		&req.CreatedAt, &req.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s %s", ErrRequestNotFound, column, value)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load service request by %s %s: %v", ErrQueryExecutionFailed, column, value, err)
	}

	req.Email = email.String
	req.LogoURL = logo.String
	req.Description = description.String
	req.RejectionReason = reason.String
	req.PreviousRequestID = previous.String
	req.ReviewedBy = reviewedBy.String
	if model.Valid && model.String != "" {
		req.Model = models.BusinessModelPtr(models.BusinessModel(model.String))
	}
	req.SubmittedAt = timePtr(submitted)
	req.ReviewedAt = timePtr(reviewed)
	req.ApprovedAt = timePtr(approved)
	req.RejectedAt = timePtr(rejected)
	req.ActivatedAt = timePtr(actv)

	return &req, nil
}

// Create inserts a new request, normally a draft produced by resubmission.
// A second draft for the same rejected request returns ErrAlreadyResubmitted.
func (s *ServiceRequestStore) Create(ctx context.Context, req *models.ServiceRequest) error {
	var model sql.NullString
	if req.Model != nil {
		model = nullString(string(*req.Model))
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO service_requests (`+serviceRequestColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
		        $16, $17, $18, $19, $20, $21, $22)`,
		req.ID, req.UserID, req.BusinessName, req.Phone, req.Address, req.ManagerPhone,
		nullString(req.Email), nullString(req.LogoURL), nullString(req.Description), req.BusinessType, model,
		string(req.Status), nullString(req.RejectionReason), nullString(req.PreviousRequestID), nullString(req.ReviewedBy),
		timeArg(req.SubmittedAt), timeArg(req.ReviewedAt), timeArg(req.ApprovedAt), timeArg(req.RejectedAt), timeArg(req.ActivatedAt),
		req.CreatedAt, req.UpdatedAt,
	)
	if sentinel := classifyUniqueViolation(err); sentinel != nil {
		return fmt.Errorf("%w: %s", sentinel, req.PreviousRequestID)
	}
	if err != nil {
		return fmt.Errorf("%w: insert service request %s: %v", ErrDatabaseWriteFailed, req.ID, err)
	}
	return nil
}

// UpdateStatus writes the lifecycle fields of updated, but only while the
// stored status still equals expected.
func (s *ServiceRequestStore) UpdateStatus(ctx context.Context, updated *models.ServiceRequest, expected models.ServiceRequestStatus) error {
	return updateStatus(ctx, s.db, updated, expected)
}

// RecordTransition appends a row to the request's status history.
func (s *ServiceRequestStore) RecordTransition(ctx context.Context, t models.StatusTransition) error {
	return recordTransition(ctx, s.db, t)
}

// ApplyTransition updates the status and records the history row in one transaction.
func (s *ServiceRequestStore) ApplyTransition(ctx context.Context, updated *models.ServiceRequest, t models.StatusTransition) error {
	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := updateStatus(ctx, tx, updated, t.From); err != nil {
			return err
		}
		return recordTransition(ctx, tx, t)
	})
}

func updateStatus(ctx context.Context, ex execer, updated *models.ServiceRequest, expected models.ServiceRequestStatus) error {
	res, err := ex.ExecContext(ctx, `
		UPDATE service_requests
		SET status = $1, rejection_reason = $2, reviewed_by = $3,
		    submitted_at = $4, reviewed_at = $5, approved_at = $6,
		    rejected_at = $7, activated_at = $8, updated_at = $9
		WHERE id = $10 AND status = $11`,
		string(updated.Status), nullString(updated.RejectionReason), nullString(updated.ReviewedBy),
		timeArg(updated.SubmittedAt), timeArg(updated.ReviewedAt), timeArg(updated.ApprovedAt),
		timeArg(updated.RejectedAt), timeArg(updated.ActivatedAt), updated.UpdatedAt,
		updated.ID, string(expected),
	)
	if err != nil {
		return fmt.Errorf("%w: update status of %s: %v", ErrDatabaseWriteFailed, updated.ID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: rows affected for %s: %v", ErrDatabaseWriteFailed, updated.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: request %s is no longer %s", ErrStaleStatus, updated.ID, expected)
	}
	return nil
}

func recordTransition(ctx context.Context, ex execer, t models.StatusTransition) error {
	at := t.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	_, err := ex.ExecContext(ctx, `
		INSERT INTO service_request_status_history (request_id, from_status, to_status, actor, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		t.RequestID, string(t.From), string(t.To), nullString(t.Actor), nullString(t.Reason), at,
	)
	if err != nil {
		return fmt.Errorf("%w: record transition for %s: %v", ErrDatabaseWriteFailed, t.RequestID, err)
	}
	return nil
}
