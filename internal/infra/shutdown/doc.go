// Package shutdown coordinates graceful termination of redkv-server.
//
// A Handler collects cleanup hooks (stop accepting clients, write the final
// snapshot, close the store) and runs them once, in reverse registration
// order, when SIGINT or SIGTERM arrives or the parent context ends.
//
// Usage:
//
//	h := shutdown.NewHandler(10 * time.Second)
//	h.OnShutdown("store", func(ctx context.Context) error { store.Close(); return nil })
//	err := h.Wait(ctx)
package shutdown
