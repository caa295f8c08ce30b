// Package server provides the optional ops HTTP listener.
//
// The MCP protocol itself runs over stdio; this server only exists for
// probes and scraping when http_port is set.
//
// Available endpoints:
//   - /           : Service name, build information and readiness
//   - /metrics    : Prometheus metrics endpoint
//   - /health     : Liveness probe (always returns 200)
//   - /ready      : Readiness probe (200 once an access token was minted and the latest mint succeeded)
//
// The server is configured with sensible timeout defaults:
//   - Read timeout: 15 seconds
//   - Write timeout: 15 seconds
//   - Idle timeout: 60 seconds
//
// Example usage:
//
//	srv := server.NewServer(":9090", toolCollector, prometheus.DefaultGatherer, log)
//
//	serverErrors := make(chan error, 1)
//	go func() {
//		serverErrors <- srv.Start()
//	}()
//
//	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
//	defer cancel()
//	if err := srv.Shutdown(ctx); err != nil {
//		log.Printf("Error during shutdown: %v", err)
//	}
package server
