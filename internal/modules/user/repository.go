package user

import "context"

// Repository defines data access for user accounts.
type Repository interface {
	CreateUser(ctx context.Context, user *User) error
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByID(ctx context.Context, id string) (*User, error)
	ListByRole(ctx context.Context, role string) ([]*User, error)
}
