// Package backend provides the Ripple API server.
//
// This module contains the application entry points under cmd/ and the
// implementation under internal/:
//
//   - internal/realtime: session registry, room index and event router for
//     the WebSocket layer
//   - internal/handlers: HTTP request handlers for all API endpoints
//   - internal/models: data models and database schemas
//   - internal/auth: authentication and token verification
//   - internal/moderation: content classification
//   - internal/storage: media storage (S3) operations
//   - internal/database: database connection and migrations
//   - internal/cache: shared Redis client
//   - internal/middleware: HTTP middleware (auth, rate limiting, metrics)
//   - internal/seed: development data seeding
//
// See the individual package documentation for detailed reference.
package backend
