package functions

import (
	"context"
	"time"

	"github.com/rpupo63/projecthub-backend/auth"
	"github.com/rpupo63/projecthub-backend/models"
	"github.com/rs/zerolog/log"
)

type ProfileSeeder interface {
	Seed(ctx context.Context, profile *models.UserProfile) error
}

// OnUserCreated seeds users/{uid} with zeroed counters when an identity is created.
// Failures are logged and never surface to the sign-up flow.
func OnUserCreated(profiles ProfileSeeder) auth.CreateHook {
	logger := log.With().Str("function", "onUserCreated").Logger()

	return func(ctx context.Context, identity *auth.Identity) {
		name := identity.DisplayName
		if name == "" {
			name = identity.EmailLocalPart()
		}
		profile := &models.UserProfile{
			UID:       identity.UID,
			Name:      name,
			Email:     identity.Email,
			PhotoURL:  identity.PhotoURL,
			CreatedAt: time.Now(),
		}
		if err := profiles.Seed(ctx, profile); err != nil {
			logger.Error().Err(err).Str("uid", identity.UID.String()).Msg("error creating user profile")
			return
		}
		logger.Info().Str("uid", identity.UID.String()).Msg("user profile created")
	}
}
