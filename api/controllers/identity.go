package controllers

import (
	"context"

	"github.com/google/uuid"

	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/api/middleware"
	pkgerrors "github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/pkg/errors"
)

func callerID(ctx context.Context) (uuid.UUID, error) {
	accountID := middleware.AccountIDFromContext(ctx)
	if accountID == uuid.Nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "account context missing")
	}
	return accountID, nil
}
