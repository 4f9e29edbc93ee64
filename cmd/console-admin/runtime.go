package main

import (
	"context"
	"fmt"
	"time"

	"github.com/target/mmk-ui-client/internal/bootstrap"
)

const notificationDrainTimeout = 10 * time.Second

// runtime is the wired client used by a single command invocation.
type runtime struct {
	bootstrap.ServiceContainer
	storage bootstrap.CredentialStorage
}

func openRuntime(cmdCtx *commandContext) (*runtime, error) {
	storage, err := bootstrap.BuildCredentialStorage(cmdCtx.Ctx, bootstrap.StorageDeps{
		Storage: cmdCtx.Config.Storage,
		Redis:   cmdCtx.Config.Redis,
		Logger:  cmdCtx.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("credential storage: %w", err)
	}

	services, err := bootstrap.NewServices(cmdCtx.Ctx, &bootstrap.ServiceDeps{
		Config:  &cmdCtx.Config,
		Storage: storage.Storage,
		Logger:  cmdCtx.Logger,
	})
	if err != nil {
		if cerr := storage.Close(); cerr != nil {
			cmdCtx.Logger.Warn("close credential storage failed", "error", cerr)
		}
		return nil, err
	}
	return &runtime{ServiceContainer: services, storage: storage}, nil
}

func (r *runtime) Close(cmdCtx *commandContext) {
	drainCtx, cancel := context.WithTimeout(context.WithoutCancel(cmdCtx.Ctx), notificationDrainTimeout)
	defer cancel()
	if err := r.ServiceContainer.Close(drainCtx); err != nil {
		cmdCtx.Logger.Warn("pending session notifications dropped", "error", err)
	}
	if err := r.storage.Close(); err != nil {
		cmdCtx.Logger.Warn("close credential storage failed", "error", err)
	}
}

func withRuntime(cmdCtx *commandContext, fn func(rt *runtime) error) error {
	rt, err := openRuntime(cmdCtx)
	if err != nil {
		return err
	}
	defer rt.Close(cmdCtx)
	return fn(rt)
}
