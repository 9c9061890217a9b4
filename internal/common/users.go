package common

import (
	"context"
	"fmt"

	"exchange-client-go/internal/controller"

	"go.uber.org/zap"
)

// RequireSession restores the saved session and loads the account. It fails
// when nobody is signed in on this device.
func RequireSession(ctx context.Context, services *Services) (controller.Snapshot, error) {
	ctrl := services.Controller
	if state := ctrl.Start(ctx); state == controller.StateUnauthenticated {
		return controller.Snapshot{}, fmt.Errorf("not signed in, run login first")
	}

	snap := ctrl.Snapshot()
	zap.L().Info("Using saved session",
		zap.Int64("user_id", snap.User.Id),
		zap.String("email", snap.User.Email))
	return snap, nil
}
