package memory

import (
	"context"
	"slices"

	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/types"
)

func (r *Memory) RegisterPlate(ctx context.Context, plate types.PlateHash, owner types.UserID) error {
	r.incrementCallCount("RegisterPlate")

	r.mu.Lock()
	defer r.mu.Unlock()

	if !slices.Contains(r.plates[plate], owner) {
		r.plates[plate] = append(r.plates[plate], owner)
	}
	return nil
}

func (r *Memory) ResolveRecipient(ctx context.Context, plate types.PlateHash) ([]types.UserID, error) {
	r.incrementCallCount("ResolveRecipient")

	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.plates[plate]), nil
}

func (r *Memory) PutDeviceToken(ctx context.Context, user types.UserID, token string) error {
	r.incrementCallCount("PutDeviceToken")

	r.mu.Lock()
	defer r.mu.Unlock()

	if !slices.Contains(r.tokens[user], token) {
		r.tokens[user] = append(r.tokens[user], token)
	}
	return nil
}

func (r *Memory) GetDeviceTokens(ctx context.Context, user types.UserID) ([]string, error) {
	r.incrementCallCount("GetDeviceTokens")

	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.tokens[user]), nil
}

func (r *Memory) DeleteDeviceToken(ctx context.Context, user types.UserID, token string) error {
	r.incrementCallCount("DeleteDeviceToken")

	r.mu.Lock()
	defer r.mu.Unlock()

	r.tokens[user] = slices.DeleteFunc(r.tokens[user], func(t string) bool { return t == token })
	return nil
}
