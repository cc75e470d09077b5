package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/OpenDocFlow/docflow/internal/workflow/model"
	"github.com/OpenDocFlow/docflow/pkg/apperrors"
)

// GormTxRunner runs orchestrator flows inside a gorm transaction.
type GormTxRunner struct {
	db *gorm.DB
}

func NewGormTxRunner(db *gorm.DB) *GormTxRunner {
	return &GormTxRunner{db: db}
}

func (r *GormTxRunner) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

// GormWorkflowRepository is the gorm-backed WorkflowRepository.
type GormWorkflowRepository struct {
	db *gorm.DB
}

func NewGormWorkflowRepository(db *gorm.DB) *GormWorkflowRepository {
	return &GormWorkflowRepository{db: db}
}

func (r *GormWorkflowRepository) GetWorkflowByID(ctx context.Context, id uuid.UUID) (*model.Workflow, error) {
	var wf model.Workflow
	result := r.db.WithContext(ctx).
		Preload("RoutingHistory", func(db *gorm.DB) *gorm.DB { return db.Order("sequence ASC") }).
		First(&wf, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("workflow", id.String())
		}
		return nil, fmt.Errorf("failed to fetch workflow: %w", result.Error)
	}
	return &wf, nil
}

func (r *GormWorkflowRepository) GetWorkflowForUpdateInTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Workflow, error) {
	var wf model.Workflow
	result := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&wf, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("workflow", id.String())
		}
		return nil, fmt.Errorf("failed to lock workflow: %w", result.Error)
	}
	return &wf, nil
}

func (r *GormWorkflowRepository) ListWorkflowsByCompanyID(ctx context.Context, companyID uuid.UUID, offset, limit int) ([]model.Workflow, error) {
	var workflows []model.Workflow
	result := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&workflows)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list workflows: %w", result.Error)
	}
	return workflows, nil
}

func (r *GormWorkflowRepository) CreateWorkflowInTx(ctx context.Context, tx *gorm.DB, wf *model.Workflow) error {
	if err := tx.WithContext(ctx).Create(wf).Error; err != nil {
		return fmt.Errorf("failed to create workflow: %w", err)
	}
	return nil
}

func (r *GormWorkflowRepository) SaveWorkflowInTx(ctx context.Context, tx *gorm.DB, wf *model.Workflow) error {
	if err := tx.WithContext(ctx).Omit("RoutingHistory", "Actions", "Goals").Save(wf).Error; err != nil {
		return fmt.Errorf("failed to save workflow: %w", err)
	}
	return nil
}

func (r *GormWorkflowRepository) GetRoutingHistoryInTx(ctx context.Context, tx *gorm.DB, workflowID uuid.UUID) ([]model.RoutingHistoryEntry, error) {
	var entries []model.RoutingHistoryEntry
	result := tx.WithContext(ctx).
		Where("workflow_id = ?", workflowID).
		Order("sequence ASC").
		Find(&entries)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to fetch routing history: %w", result.Error)
	}
	return entries, nil
}

func (r *GormWorkflowRepository) CountRoutingEntriesInTx(ctx context.Context, tx *gorm.DB, workflowID uuid.UUID) (int, error) {
	var count int64
	result := tx.WithContext(ctx).
		Model(&model.RoutingHistoryEntry{}).
		Where("workflow_id = ?", workflowID).
		Count(&count)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to count routing entries: %w", result.Error)
	}
	return int(count), nil
}

func (r *GormWorkflowRepository) AppendRoutingEntriesInTx(ctx context.Context, tx *gorm.DB, entries []model.RoutingHistoryEntry) error {
	if len(entries) == 0 {
		return nil
	}
	if err := tx.WithContext(ctx).Create(&entries).Error; err != nil {
		return fmt.Errorf("failed to append routing entries: %w", err)
	}
	return nil
}

// GormActionRepository is the gorm-backed ActionRepository.
type GormActionRepository struct {
	db *gorm.DB
}

func NewGormActionRepository(db *gorm.DB) *GormActionRepository {
	return &GormActionRepository{db: db}
}

func (r *GormActionRepository) GetActionByID(ctx context.Context, id uuid.UUID) (*model.Action, error) {
	var action model.Action
	result := r.db.WithContext(ctx).First(&action, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("action", id.String())
		}
		return nil, fmt.Errorf("failed to fetch action: %w", result.Error)
	}
	return &action, nil
}

func (r *GormActionRepository) GetActionForUpdateInTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Action, error) {
	var action model.Action
	result := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&action, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("action", id.String())
		}
		return nil, fmt.Errorf("failed to lock action: %w", result.Error)
	}
	return &action, nil
}

func (r *GormActionRepository) GetActionsByWorkflowIDInTx(ctx context.Context, tx *gorm.DB, workflowID uuid.UUID) ([]model.Action, error) {
	var actions []model.Action
	result := tx.WithContext(ctx).Where("workflow_id = ?", workflowID).Find(&actions)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to fetch actions: %w", result.Error)
	}
	return actions, nil
}

func (r *GormActionRepository) CreateActionInTx(ctx context.Context, tx *gorm.DB, action *model.Action) error {
	if err := tx.WithContext(ctx).Create(action).Error; err != nil {
		return fmt.Errorf("failed to create action: %w", err)
	}
	return nil
}

func (r *GormActionRepository) SaveActionInTx(ctx context.Context, tx *gorm.DB, action *model.Action) error {
	if err := tx.WithContext(ctx).Save(action).Error; err != nil {
		return fmt.Errorf("failed to save action: %w", err)
	}
	return nil
}

// GormGoalRepository is the gorm-backed GoalRepository.
type GormGoalRepository struct {
	db *gorm.DB
}

func NewGormGoalRepository(db *gorm.DB) *GormGoalRepository {
	return &GormGoalRepository{db: db}
}

func (r *GormGoalRepository) GetGoalByID(ctx context.Context, id uuid.UUID) (*model.Goal, error) {
	var goal model.Goal
	result := r.db.WithContext(ctx).First(&goal, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("goal", id.String())
		}
		return nil, fmt.Errorf("failed to fetch goal: %w", result.Error)
	}
	return &goal, nil
}

func (r *GormGoalRepository) GetGoalsByWorkflowID(ctx context.Context, workflowID uuid.UUID) ([]model.Goal, error) {
	var goals []model.Goal
	result := r.db.WithContext(ctx).
		Where("workflow_id = ?", workflowID).
		Order("created_at ASC").
		Find(&goals)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to fetch goals: %w", result.Error)
	}
	return goals, nil
}

func (r *GormGoalRepository) GetGoalsByCompanyID(ctx context.Context, companyID uuid.UUID) ([]model.Goal, error) {
	var goals []model.Goal
	result := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("created_at ASC").
		Find(&goals)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to fetch goals: %w", result.Error)
	}
	return goals, nil
}

func (r *GormGoalRepository) ListUnachievedDueGoals(ctx context.Context) ([]model.Goal, error) {
	var goals []model.Goal
	result := r.db.WithContext(ctx).
		Where("status <> ? AND due_date IS NOT NULL AND due_date < ?", model.GoalStatusAchieved, time.Now().UTC()).
		Find(&goals)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list due goals: %w", result.Error)
	}
	return goals, nil
}

func (r *GormGoalRepository) CreateGoal(ctx context.Context, goal *model.Goal) error {
	if err := r.db.WithContext(ctx).Create(goal).Error; err != nil {
		return fmt.Errorf("failed to create goal: %w", err)
	}
	return nil
}

func (r *GormGoalRepository) SaveGoal(ctx context.Context, goal *model.Goal) error {
	if err := r.db.WithContext(ctx).Save(goal).Error; err != nil {
		return fmt.Errorf("failed to save goal: %w", err)
	}
	return nil
}

func (r *GormGoalRepository) DeleteGoal(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&model.Goal{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete goal: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFound("goal", id.String())
	}
	return nil
}

// GormApprovalRequestRepository is the gorm-backed ApprovalRequestRepository.
type GormApprovalRequestRepository struct {
	db *gorm.DB
}

func NewGormApprovalRequestRepository(db *gorm.DB) *GormApprovalRequestRepository {
	return &GormApprovalRequestRepository{db: db}
}

func (r *GormApprovalRequestRepository) GetApprovalRequestByID(ctx context.Context, id uuid.UUID) (*model.ApprovalRequest, error) {
	var req model.ApprovalRequest
	result := r.db.WithContext(ctx).First(&req, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("approval request", id.String())
		}
		return nil, fmt.Errorf("failed to fetch approval request: %w", result.Error)
	}
	return &req, nil
}

func (r *GormApprovalRequestRepository) GetApprovalRequestForUpdateInTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.ApprovalRequest, error) {
	var req model.ApprovalRequest
	result := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&req, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("approval request", id.String())
		}
		return nil, fmt.Errorf("failed to lock approval request: %w", result.Error)
	}
	return &req, nil
}

func (r *GormApprovalRequestRepository) ListPendingByTargetCompany(ctx context.Context, companyID uuid.UUID, offset, limit int) ([]model.ApprovalRequest, error) {
	var requests []model.ApprovalRequest
	result := r.db.WithContext(ctx).
		Where("target_company_id = ? AND status = ?", companyID, model.ApprovalStatePending).
		Order("created_at ASC").
		Offset(offset).
		Limit(limit).
		Find(&requests)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list pending approval requests: %w", result.Error)
	}
	return requests, nil
}

func (r *GormApprovalRequestRepository) CreateApprovalRequestInTx(ctx context.Context, tx *gorm.DB, req *model.ApprovalRequest) error {
	if err := tx.WithContext(ctx).Create(req).Error; err != nil {
		return fmt.Errorf("failed to create approval request: %w", err)
	}
	return nil
}

func (r *GormApprovalRequestRepository) SaveApprovalRequestInTx(ctx context.Context, tx *gorm.DB, req *model.ApprovalRequest) error {
	if err := tx.WithContext(ctx).Save(req).Error; err != nil {
		return fmt.Errorf("failed to save approval request: %w", err)
	}
	return nil
}
