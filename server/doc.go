// Package server provides the supervision admin HTTP server, a Gin
// engine with HTTP/2 cleartext support exposing the registry's state
// and controls.
//
// # Middleware
//
// Built-in middleware (server/middleware):
//
//   - Recovery: panic recovery with structured logging
//   - Logging: request/response logging with duration tracking
//   - CORS: cross-origin resource sharing configuration
//   - RequestID: request ID generation and propagation
//   - BodySize: request body size limits
//
// # Endpoints
//
// Built-in endpoints (server/endpoint):
//
//   - GET    /health: aggregated service health
//   - GET    /alive and /ready: process probes
//   - GET    /info: build and uptime information
//   - GET    /services: registered service descriptions
//   - GET    /services/:id: one description with health and recovery state
//   - POST   /services/:id/recover: trigger a manual recovery attempt
//   - POST   /services/:id/execute: dispatch a command to a service
//   - DELETE /services/:id: unregister a service
package server
