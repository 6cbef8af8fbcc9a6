package seed

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	appModels "github.com/scholarnote/backend/internal/app/models"
	appRepos "github.com/scholarnote/backend/internal/app/repositories"
	"github.com/scholarnote/backend/internal/pkg/apperrors"
	"github.com/scholarnote/backend/internal/pkg/auth"
)

// CreateDefaultData seeds a demo account and a couple of notes so a fresh
// development database has something to browse. Runs only outside production.
func CreateDefaultData(ctx context.Context, dbPool *pgxpool.Pool, lgr zerolog.Logger) error {
	userRepo := appRepos.NewUserRepository(dbPool)
	noteRepo := appRepos.NewNoteRepository(dbPool)

	lgr.Info().Msg("Checking/Creating default data...")
	var finalErr error

	hashed, err := auth.HashPassword("demo1234")
	if err != nil {
		return err
	}

	demoUser := &appModels.User{
		Email:       "demo@scholarnote.app",
		Password:    hashed,
		DisplayName: "Demo Uploader",
	}

	demoID, err := userRepo.CreateUser(ctx, demoUser)
	if err != nil {
		if !errors.Is(err, apperrors.ErrEmailAlreadyExists) {
			lgr.Error().Err(err).Msg("Error creating demo user")
			return errors.Join(finalErr, err)
		}
		// Already seeded; nothing more to do
		lgr.Debug().Msg("Default data already present, skipping")
		return nil
	}

	freeNote := &appModels.Note{
		Subject:       "Operating Systems",
		College:       "NIT Trichy",
		Branch:        "CSE",
		ClassName:     "3rd Year",
		Unit:          "Unit 4",
		Description:   "Scheduling, deadlock and memory management summary with solved examples.",
		IsPaid:        false,
		UploaderID:    demoID,
		UploaderEmail: demoUser.Email,
	}
	if _, err := noteRepo.CreateNote(ctx, freeNote, nil); err != nil {
		lgr.Error().Err(err).Msg("Error creating demo free note")
		finalErr = errors.Join(finalErr, err)
	}

	paidNote := &appModels.Note{
		Subject:       "Digital Signal Processing",
		College:       "NIT Trichy",
		Branch:        "ECE",
		ClassName:     "3rd Year",
		Unit:          "Unit 2",
		Description:   "Full derivations for DFT and FFT with previous year question mapping.",
		IsPaid:        true,
		Amount:        50,
		UploaderID:    demoID,
		UploaderEmail: demoUser.Email,
	}
	if _, err := noteRepo.CreateNote(ctx, paidNote, nil); err != nil {
		lgr.Error().Err(err).Msg("Error creating demo paid note")
		finalErr = errors.Join(finalErr, err)
	}

	if finalErr == nil {
		lgr.Info().Msg("Default data created")
	}
	return finalErr
}
