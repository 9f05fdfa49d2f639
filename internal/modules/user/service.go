package user

import (
	"context"
	"strings"
	"time"

	"github.com/AlrightTech/Pommy-Foods-OMS-sub001/internal/errs"
	"github.com/AlrightTech/Pommy-Foods-OMS-sub001/internal/modules/auth"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const tokenTTL = 24 * time.Hour

// Service defines user account business logic.
type Service interface {
	// Register creates an account. Admin-only; store-scoped roles
	// require a store id.
	Register(ctx context.Context, actor auth.Principal, req RegisterRequest) (*User, error)

	// Login checks credentials and issues a session token.
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)

	GetUser(ctx context.Context, id string) (*User, error)
	ListDrivers(ctx context.Context) ([]*User, error)
}

type service struct{ repo Repository }

// NewService creates a new user service.
func NewService(repo Repository) Service { return &service{repo: repo} }

func validRole(role string) bool {
	switch role {
	case auth.RoleAdmin, auth.RoleStore, auth.RoleDriver, auth.RoleKitchen:
		return true
	}
	return false
}

func (s *service) Register(ctx context.Context, actor auth.Principal, req RegisterRequest) (*User, error) {
	if !actor.IsAdmin() {
		return nil, &errs.ForbiddenError{Role: actor.Role, Action: "register users"}
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, errs.Validationf("email is required")
	}
	if len(req.Password) < 8 {
		return nil, errs.Validationf("password must be at least 8 characters")
	}
	role := strings.ToUpper(req.Role)
	if !validRole(role) {
		return nil, errs.Validationf("unknown role %q", req.Role)
	}
	var storeID *uuid.UUID
	if req.StoreID != "" {
		sid, err := uuid.Parse(req.StoreID)
		if err != nil {
			return nil, errs.Validationf("invalid store id: %v", err)
		}
		storeID = &sid
	}
	if role == auth.RoleStore && storeID == nil {
		return nil, errs.Validationf("store role requires a store id")
	}

	if existing, err := s.repo.GetUserByEmail(ctx, email); err == nil && existing != nil {
		return nil, &errs.AlreadyExistsError{Entity: "user", Ref: email}
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hashed),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         role,
		StoreID:      storeID,
		IsActive:     true,
		CreatedAt:    time.Now(),
	}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	u, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, errs.Validationf("invalid email or password")
	}
	if !u.IsActive {
		return nil, errs.Validationf("invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return nil, errs.Validationf("invalid email or password")
	}

	token, err := auth.IssueToken(auth.Principal{ID: u.ID, Role: u.Role, StoreID: u.StoreID}, tokenTTL)
	if err != nil {
		return nil, err
	}
	return &LoginResponse{Token: token, User: u}, nil
}

func (s *service) GetUser(ctx context.Context, id string) (*User, error) {
	u, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, &errs.NotFoundError{Entity: "user", Ref: id}
	}
	return u, nil
}

func (s *service) ListDrivers(ctx context.Context) ([]*User, error) {
	return s.repo.ListByRole(ctx, auth.RoleDriver)
}
