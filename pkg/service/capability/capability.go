// Package capability provides capability gates for deployments without a
// payment provider.
package capability

import (
	"context"

	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/interfaces"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/types"
)

// Static answers the same capability for every user.
type Static types.Capability

var _ interfaces.CapabilityGate = Static{}

// Unlimited allows every send.
var Unlimited = Static{Allowed: true, Remaining: -1}

func (x Static) CanSendAlert(ctx context.Context, user types.UserID) (types.Capability, error) {
	return types.Capability(x), nil
}

// Func adapts a function to interfaces.CapabilityGate.
type Func func(ctx context.Context, user types.UserID) (types.Capability, error)

func (x Func) CanSendAlert(ctx context.Context, user types.UserID) (types.Capability, error) {
	return x(ctx, user)
}
