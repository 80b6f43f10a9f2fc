package models

import "time"

// UserRole identifies a dealership staff role.
type UserRole string

const (
	RoleAdmin          UserRole = "admin"
	RoleSalesManager   UserRole = "sales_manager"
	RoleServiceManager UserRole = "service_manager"
	RoleFinance        UserRole = "finance"
	RoleSalesRep       UserRole = "sales_rep"
	RoleTechnician     UserRole = "technician"
	RoleViewer         UserRole = "viewer"
)

// roleLevels orders roles for permission comparisons; higher wins.
var roleLevels = map[UserRole]int{
	RoleAdmin:          7,
	RoleSalesManager:   6,
	RoleServiceManager: 5,
	RoleFinance:        4,
	RoleSalesRep:       3,
	RoleTechnician:     2,
	RoleViewer:         1,
}

// Level returns the numeric rank of the role; unknown roles rank zero.
func (r UserRole) Level() int {
	return roleLevels[r]
}

// AtLeast reports whether the role meets or exceeds the required role.
func (r UserRole) AtLeast(required UserRole) bool {
	return r.Level() >= required.Level()
}

// User represents a dealership staff member.
type User struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Name         string     `db:"name" json:"name"`
	Role         UserRole   `db:"role" json:"role"`
	Phone        string     `db:"phone" json:"phone"`
	Active       bool       `db:"active" json:"active"`
	LastLoginAt  *time.Time `db:"last_login_at" json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// UserFilter encapsulates allowed search parameters for listing users.
type UserFilter struct {
	Role     *UserRole
	Active   *bool
	Search   string
	Page     int
	PageSize int
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// NewPagination computes the derived page count.
func NewPagination(page, limit, total int) *Pagination {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	totalPages := (total + limit - 1) / limit
	return &Pagination{Page: page, Limit: limit, Total: total, TotalPages: totalPages}
}
