package users

import (
	"github.com/source-impact/admin-dashboard/internal/backend"
	"github.com/source-impact/admin-dashboard/internal/shared"
)

// Account statuses staff can set.
const (
	StatusActive    = "active"
	StatusSuspended = "suspended"
	StatusBanned    = "banned"
)

// Statuses lists the account statuses in display order.
var Statuses = []string{StatusActive, StatusSuspended, StatusBanned}

// Filter holds the listing query.
type Filter struct {
	Query  string
	Status string
}

// ListPage is the data behind the users list.
type ListPage struct {
	Users      []backend.User
	Filter     Filter
	Statuses   []string
	Pagination shared.Pagination
	Error      string
}

// DetailPage is the data behind a single user view.
type DetailPage struct {
	User     backend.User
	Statuses []string
	Errors   map[string]string
}

type statusForm struct {
	Status string `validate:"required,oneof=active suspended banned"`
	Reason string `validate:"max=500"`
}

type profileForm struct {
	Name  string `validate:"required,max=120"`
	Email string `validate:"required,email"`
	Phone string `validate:"omitempty,max=32"`
}

type balanceForm struct {
	Amount float64 `validate:"required,ne=0"`
	Reason string  `validate:"required,max=500"`
}
