package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"business-workers/internal/business/activation"
	"business-workers/internal/models"
)

// ActivationStore writes an activation result as a single unit: template
// instance, business profile, the request's move to activated and the audit row.
type ActivationStore struct {
	db *sql.DB
}

func NewActivationStore(db *sql.DB) *ActivationStore {
	return &ActivationStore{db: db}
}

func (s *ActivationStore) SaveActivation(ctx context.Context, result *activation.ActivationResult, requestID, notes string) error {
	profile := result.BusinessProfile
	instance := result.TemplateInstance

	configJSON, err := json.Marshal(instance.Configuration)
	if err != nil {
		return fmt.Errorf("%w: marshal configuration: %v", ErrDatabaseWriteFailed, err)
	}
	customJSON, err := json.Marshal(instance.Customizations)
	if err != nil {
		return fmt.Errorf("%w: marshal customizations: %v", ErrDatabaseWriteFailed, err)
	}
	settingsJSON, err := json.Marshal(profile.Settings)
	if err != nil {
		return fmt.Errorf("%w: marshal settings: %v", ErrDatabaseWriteFailed, err)
	}
	auditJSON, err := json.Marshal(map[string]interface{}{
		"businessProfileId": profile.ID,
		"businessNumber":    profile.BusinessNumber,
		"templateId":        instance.TemplateID,
		"businessModel":     profile.BusinessModel,
		"activatedBy":       result.ActivatedBy,
		"notes":             notes,
		"collections":       result.InitializedCollections,
	})
	if err != nil {
		auditJSON = []byte("{}")
	}

	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		// Both foreign keys between these tables are DEFERRABLE INITIALLY DEFERRED.
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO template_instances (
				id, template_id, template_version, business_profile_id,
				configuration, customizations, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			instance.ID, instance.TemplateID, instance.TemplateVersion, instance.BusinessProfileID,
			configJSON, customJSON, instance.CreatedAt,
		); err != nil {
			return fmt.Errorf("%w: insert template instance: %v", ErrDatabaseWriteFailed, err)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO business_profiles (
				id, service_request_id, owner_user_id, business_number, name, slug,
				phone, address, manager_phone, email, logo_url, description,
				business_type, business_model, category, template_instance_id,
				status, activated_at, customers_count, orders_count, balance, settings
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
			          $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)`,
			profile.ID, profile.ServiceRequestID, profile.OwnerUserID, profile.BusinessNumber, profile.Name, profile.Slug,
			profile.Phone, profile.Address, profile.ManagerPhone, nullString(profile.Email), nullString(profile.LogoURL), nullString(profile.Description),
			profile.BusinessType, string(profile.BusinessModel), profile.Category, profile.TemplateInstanceID,
			profile.Status, profile.ActivatedAt, profile.CustomersCount, profile.OrdersCount, profile.Balance, settingsJSON,
		); err != nil {
			if dup := classifyUniqueViolation(err); dup != nil {
				return fmt.Errorf("%w: %s", dup, profile.BusinessNumber)
			}
			return fmt.Errorf("%w: insert business profile: %v", ErrDatabaseWriteFailed, err)
		}

		res, err := tx.ExecContext(ctx, `
			UPDATE service_requests
			SET status = $1, activated_at = $2, updated_at = $2
			WHERE id = $3 AND status = $4`,
			string(models.StatusActivated), result.ActivationDate, requestID, string(models.StatusApproved),
		)
		if err != nil {
			return fmt.Errorf("%w: mark request activated: %v", ErrDatabaseWriteFailed, err)
		}
		if n, err := res.RowsAffected(); err != nil || n == 0 {
			return fmt.Errorf("%w: %s", ErrRequestNotApproved, requestID)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO service_request_status_history (request_id, from_status, to_status, actor, reason, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			requestID, string(models.StatusApproved), string(models.StatusActivated),
			nullString(result.ActivatedBy), nullString(notes), result.ActivationDate,
		); err != nil {
			return fmt.Errorf("%w: record activation transition: %v", ErrDatabaseWriteFailed, err)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO audit_log (event_type, resource_type, resource_id, details, created_at)
			VALUES ($1, $2, $3, $4, $5)`,
			"business_activated", "service_request", requestID, auditJSON, result.ActivationDate,
		); err != nil {
			return fmt.Errorf("%w: insert audit log: %v", ErrDatabaseWriteFailed, err)
		}
		return nil
	})
}

// SlugTaken reports whether an existing business already uses slug.
func (s *ActivationStore) SlugTaken(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM business_profiles WHERE slug = $1)`, slug,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%w: slug lookup: %v", ErrQueryExecutionFailed, err)
	}
	return exists, nil
}
