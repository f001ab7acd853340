// Package logger wraps Uber's Zap logger behind a small structured-logging
// API shared by every package in this module.
//
// Log calls take a message, an optional error, and optional field maps:
//
//	log.Info("index created", nil, map[string]interface{}{
//		"index": "products",
//		"table": "search_api_products",
//	})
//
// Consuming packages declare their own local Logger interface with this
// method set, so they stay mockable and never import this package directly.
// The fx module provides a *Logger and flushes it on shutdown.
//
// The level is configured via ZAP_LOGGER_LEVEL (debug, info, warning, error);
// output is JSON on stderr.
package logger
