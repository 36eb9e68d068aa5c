// Package operations runs the capflow pipeline as a fixed sequence of steps.
//
// Core Components:
//
// Manager: executes the registered steps in order, tracks their state and stops
// at the first failure. Every step runs inside its own span and records its
// duration and outcome through the pipeline metrics.
//
// Step: one unit of work. The built-in steps are ingest, normalize, derive,
// render and export; they hand data to each other through the OperationState.
//
// Registry: keeps the steps in registration order.
//
// Example usage:
//
//	manager, err := operations.NewPipeline(operations.ConfigFrom(cfg), operations.Dependencies{
//		Paths:   cfg.GetPaths(),
//		Logger:  logger,
//		Metrics: metrics,
//		Store:   db,
//	})
//	if err != nil {
//		return err
//	}
//	resp, err := manager.Execute(ctx)
package operations
