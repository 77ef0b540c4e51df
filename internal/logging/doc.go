// Package logging provides structured logging for ctxkit.
//
// # Overview
//
// Logging wraps Zap with:
//   - Custom Trace level (-2, below Debug)
//   - stderr output so stdout stays reserved for command results
//   - Automatic context field injection (run id, query id, command)
//   - Secret redaction of sensitive field names and value patterns
//   - Optional level-aware sampling (errors never sampled)
//
// # Usage
//
// Create logger from config:
//
//	cfg := logging.NewDefaultConfig()
//	logger, err := logging.NewLogger(cfg)
//	if err != nil {
//	    return err
//	}
//	defer logger.Sync()
//
// Log with context:
//
//	ctx = logging.WithRunID(ctx, uuid.NewString())
//	ctx = logging.WithCommand(ctx, "recommend")
//	logger.Info(ctx, "ranking complete", zap.Int("results", n))
//
// Output includes automatic correlation:
//
//	{
//	  "ts": "2026-03-02T10:15:30Z",
//	  "level": "info",
//	  "msg": "ranking complete",
//	  "run.id": "5f0c...",
//	  "command": "recommend",
//	  "results": 5
//	}
package logging
