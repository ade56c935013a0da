package service

import (
	"context"

	"myfitguide/internal/domain"
	"myfitguide/internal/gateway"
)

// Gateway is the remote API as the services consume it
type Gateway interface {
	Register(ctx context.Context, reg domain.Registration) (*gateway.AuthResult, error)
	Login(ctx context.Context, creds domain.Credentials) (*gateway.AuthResult, error)
	SubmitDiet(ctx context.Context, profile domain.DietProfile) error
	SubmitRoutine(ctx context.Context, prefs domain.RoutinePreferences) error
	FetchProfile(ctx context.Context, userID domain.UserID) (*domain.AggregatedProfile, error)
}
