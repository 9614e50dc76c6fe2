package usecase

import (
	"context"
	"strings"

	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/model/errs"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

// RegisterPlate records owner as a recipient for plate. Ownership
// verification happens before this call.
func (u *UseCases) RegisterPlate(ctx context.Context, owner types.UserID, plate string) (types.PlateHash, error) {
	if owner == types.EmptyUserID || types.NormalizePlate(plate) == "" {
		return "", goerr.New("owner and plate are required", goerr.T(errs.TagValidation))
	}
	hash := types.HashPlate(plate)
	if err := u.repository.RegisterPlate(ctx, hash, owner); err != nil {
		return "", goerr.Wrap(err, "failed to register plate", goerr.T(errs.TagTransport))
	}
	return hash, nil
}

// RegisterDevice adds a push token for user.
func (u *UseCases) RegisterDevice(ctx context.Context, user types.UserID, token string) error {
	token = strings.TrimSpace(token)
	if user == types.EmptyUserID || token == "" {
		return goerr.New("user and token are required", goerr.T(errs.TagValidation))
	}
	if err := u.repository.PutDeviceToken(ctx, user, token); err != nil {
		return goerr.Wrap(err, "failed to register device token", goerr.T(errs.TagTransport))
	}
	return nil
}
