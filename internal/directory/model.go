// Package directory holds the organizational records the workflow core
// resolves against: companies, departments and users, plus their roles.
package directory

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is the enumerated privilege level of a user. Capability checks go
// through the methods below, never through raw string comparison at call
// sites.
type Role string

const (
	RoleMember       Role = "member"
	RoleCompanyAdmin Role = "company_admin"
	RoleMaster       Role = "master"
	RoleSystem       Role = "system" // unauthenticated back-office scripts
)

// Elevated reports whether the role may initiate cross-company routing.
func (r Role) Elevated() bool {
	return r == RoleCompanyAdmin || r == RoleMaster
}

// Privileged reports whether the role bypasses company isolation and the
// action completion guard.
func (r Role) Privileged() bool {
	return r == RoleMaster || r == RoleSystem
}

// UUIDArray is a jsonb-persisted list of UUIDs.
type UUIDArray []uuid.UUID

// Company is an organization participating in routing.
type Company struct {
	ID        uuid.UUID `gorm:"type:uuid;column:id;not null;primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(255);column:name;not null" json:"name"`
	CreatedAt time.Time `gorm:"type:timestamptz;column:created_at;not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"type:timestamptz;column:updated_at;not null" json:"updatedAt"`
}

func (c *Company) TableName() string { return "companies" }

// Department is an organizational unit within a company.
type Department struct {
	ID        uuid.UUID `gorm:"type:uuid;column:id;not null;primaryKey" json:"id"`
	CompanyID uuid.UUID `gorm:"type:uuid;column:company_id;not null;index" json:"companyId"`
	Name      string    `gorm:"type:varchar(255);column:name;not null" json:"name"`
	CreatedAt time.Time `gorm:"type:timestamptz;column:created_at;not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"type:timestamptz;column:updated_at;not null" json:"updatedAt"`
}

func (d *Department) TableName() string { return "departments" }

// User is a person who can hold, route or complete work.
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;column:id;not null;primaryKey" json:"id"`
	CompanyID    uuid.UUID `gorm:"type:uuid;column:company_id;not null;index" json:"companyId"`
	Name         string    `gorm:"type:varchar(255);column:name;not null" json:"name"`
	Email        string    `gorm:"type:varchar(255);column:email;not null;uniqueIndex" json:"email"`
	PasswordHash string    `gorm:"type:varchar(255);column:password_hash;not null" json:"-"`
	Role         Role      `gorm:"type:varchar(30);column:role;not null" json:"role"`

	// IsSecretary marks the single user the secretary routing intent
	// resolves to within a company.
	IsSecretary bool `gorm:"column:is_secretary;not null;default:false" json:"isSecretary"`
	// IsDepartmentHead marks users the department_head intent may resolve
	// to within their departments.
	IsDepartmentHead bool `gorm:"column:is_department_head;not null;default:false" json:"isDepartmentHead"`

	DepartmentIDs UUIDArray `gorm:"type:jsonb;column:department_ids;serializer:json" json:"departmentIds"`

	CreatedAt time.Time `gorm:"type:timestamptz;column:created_at;not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"type:timestamptz;column:updated_at;not null" json:"updatedAt"`
}

func (u *User) TableName() string { return "users" }

// BeforeCreate assigns a random UUID when none is set.
func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == uuid.Nil {
		u.ID, err = uuid.NewRandom()
	}
	return
}
