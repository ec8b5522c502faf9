// Package log provides journalcloud's structured logging facade.
//
// # Overview
//
// The package exposes a small Logger interface with leveled methods and a
// simple Field type for structured context. Internally it is backed by Go's
// standard library slog with text or JSON handlers, so output interops with
// the slog ecosystem while the codebase programs against one facade.
//
// Quick start
//
//	l := log.NewLogger(
//	    log.WithLevel(log.InfoLevel),
//	    log.WithFormat(log.TextFormat),
//	)
//	l = l.WithComponent("shipper")
//	l.Info("batch shipped", log.Int("records", 500))
//
// # Interop
//
// To capture standard library logs (Pebble, AWS SDK internals) use
// RedirectStdLog.
package log
