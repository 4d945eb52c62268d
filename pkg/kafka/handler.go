package kafka

import (
	"context"

	"github.com/Gobusters/ectologger"
	sageerrors "github.com/Ramsey-B/sage/pkg/errors"
	"github.com/Ramsey-B/sage/pkg/models"
)

type Importer interface {
	UpdateProfile(ctx context.Context, profile models.Profile) (models.Profile, error)
}

// NewImportHandler feeds import requests to the pipeline. Rejections such as
// validation failures or unknown profiles are logged and committed since a
// retry cannot succeed.
func NewImportHandler(importer Importer, logger ectologger.Logger) MessageHandler {
	return func(ctx context.Context, msg *IncomingMessage) error {
		_, err := importer.UpdateProfile(ctx, msg.Import.Profile)
		if err == nil {
			return nil
		}
		if code := sageerrors.StatusCode(err); code >= 400 && code < 500 && code != 409 {
			logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
				"profile_id":  msg.Import.ProfileID,
				"status_code": code,
			}).Warn("dropping rejected import request")
			return nil
		}
		return err
	}
}
