// Package errors provides structured error types for better observability
// and programmatic error handling across the collectors.
//
// Example usage:
//
//	err := errors.WrapWithContext(
//	    errors.ErrCodeTimeout,
//	    "failed to collect SMART metrics",
//	    ctx.Err(),
//	    map[string]interface{}{
//	        "command": "smartctl",
//	        "device": "/dev/sda",
//	    },
//	)
package errors
