// Package common holds helpers shared by several services.
//
// It provides a lightweight gRPC client for the render API with per-call
// timeouts. The client can stand in for the local render engine.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
