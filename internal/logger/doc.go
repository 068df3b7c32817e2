// Package logger wraps zap for the builder binaries:
//   - a global sugared logger writing a console encoding to stderr,
//     so stdout stays free for rendered artifacts,
//   - context helpers (ToContext/FromContext/WithName/WithKV/WithFields),
//   - an atomic level that the server adjusts when its settings change,
//   - leveled helpers (Infof, WarnKV, ErrorKV, etc.).
//
// Services take a context and log through it, so request-scoped fields such
// as the session id follow every message.
package logger
