package directory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/OpenDocFlow/docflow/pkg/apperrors"
)

// Service provides the identity and company lookups the routing engine and
// approval gate consume.
type Service struct {
	db *gorm.DB
}

// NewService creates a directory Service.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// GetUserByID returns the user with the given id.
func (s *Service) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	var user User
	result := s.db.WithContext(ctx).First(&user, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("user", id.String())
		}
		return nil, fmt.Errorf("failed to fetch user: %w", result.Error)
	}
	return &user, nil
}

// GetUserByEmail returns the user with the given email, for login.
func (s *Service) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	result := s.db.WithContext(ctx).First(&user, "email = ?", email)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("user", email)
		}
		return nil, fmt.Errorf("failed to fetch user: %w", result.Error)
	}
	return &user, nil
}

// ResolveUserName returns the display name of a user, or an empty string when
// the user does not exist.
func (s *Service) ResolveUserName(ctx context.Context, id uuid.UUID) (string, error) {
	var user User
	result := s.db.WithContext(ctx).Select("name").First(&user, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to resolve user name: %w", result.Error)
	}
	return user.Name, nil
}

// ResolveDepartmentName returns the display name of a department, or an empty
// string when the department does not exist.
func (s *Service) ResolveDepartmentName(ctx context.Context, id uuid.UUID) (string, error) {
	var dept Department
	result := s.db.WithContext(ctx).Select("name").First(&dept, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to resolve department name: %w", result.Error)
	}
	return dept.Name, nil
}

// ResolveCompanyName returns the display name of a company, or an empty
// string when the company does not exist.
func (s *Service) ResolveCompanyName(ctx context.Context, id uuid.UUID) (string, error) {
	var company Company
	result := s.db.WithContext(ctx).Select("name").First(&company, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to resolve company name: %w", result.Error)
	}
	return company.Name, nil
}

// FindSecretary returns the secretary user of a company.
func (s *Service) FindSecretary(ctx context.Context, companyID uuid.UUID) (*User, error) {
	var user User
	result := s.db.WithContext(ctx).
		Where("company_id = ? AND is_secretary = true", companyID).
		Order("created_at ASC").
		First(&user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewValidation("secretary", "no secretary exists for the company")
		}
		return nil, fmt.Errorf("failed to find secretary: %w", result.Error)
	}
	return &user, nil
}

// FindDepartmentHead returns the first head-role user of a department.
func (s *Service) FindDepartmentHead(ctx context.Context, departmentID uuid.UUID) (*User, error) {
	var user User
	result := s.db.WithContext(ctx).
		Where("is_department_head = true AND department_ids @> ?", jsonbUUID(departmentID)).
		Order("created_at ASC").
		First(&user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewValidation("departmentHead", "no head exists for the department")
		}
		return nil, fmt.Errorf("failed to find department head: %w", result.Error)
	}
	return &user, nil
}

// UsersInDepartment returns all members of a department.
func (s *Service) UsersInDepartment(ctx context.Context, departmentID uuid.UUID) ([]User, error) {
	var users []User
	result := s.db.WithContext(ctx).
		Where("department_ids @> ?", jsonbUUID(departmentID)).
		Find(&users)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list department members: %w", result.Error)
	}
	return users, nil
}

// DepartmentsOfUser returns the departments a user belongs to. Lookup
// failures of individual departments are logged and skipped so a stale
// membership id cannot block authentication.
func (s *Service) DepartmentsOfUser(ctx context.Context, user *User) ([]Department, error) {
	if len(user.DepartmentIDs) == 0 {
		return []Department{}, nil
	}
	var departments []Department
	result := s.db.WithContext(ctx).Where("id IN ?", []uuid.UUID(user.DepartmentIDs)).Find(&departments)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list user departments: %w", result.Error)
	}
	if len(departments) < len(user.DepartmentIDs) {
		slog.Debug("user references missing departments",
			"user_id", user.ID,
			"referenced", len(user.DepartmentIDs),
			"found", len(departments),
		)
	}
	return departments, nil
}

// CompanyOfUser returns the company a user belongs to.
func (s *Service) CompanyOfUser(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	var user User
	result := s.db.WithContext(ctx).Select("company_id").First(&user, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return uuid.Nil, apperrors.NewNotFound("user", id.String())
		}
		return uuid.Nil, fmt.Errorf("failed to resolve user company: %w", result.Error)
	}
	return user.CompanyID, nil
}

// CompanyOfDepartment returns the company a department belongs to.
func (s *Service) CompanyOfDepartment(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	var dept Department
	result := s.db.WithContext(ctx).Select("company_id").First(&dept, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return uuid.Nil, apperrors.NewNotFound("department", id.String())
		}
		return uuid.Nil, fmt.Errorf("failed to resolve department company: %w", result.Error)
	}
	return dept.CompanyID, nil
}

// jsonbUUID renders a single-element jsonb array for @> containment queries.
func jsonbUUID(id uuid.UUID) string {
	return fmt.Sprintf(`["%s"]`, id.String())
}
