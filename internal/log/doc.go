// Package log provides slog-based logging that keeps snap store credentials
// out of log output.
//
// The SecureHandler wraps any slog.Handler and masks:
//   - Attributes with credential-like keys (authorization, macaroon,
//     discharge, credentials, password, token)
//   - Values that look like credentials whatever their key (Macaroon
//     authorization headers, serialized macaroons, bearer tokens)
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	logger.Debug("store request", "url", u, "authorization", header)
//	slog.SetDefault(logger)
package log
