// Package errors provides examples of structured error handling in Wrangler.
package errors_test

import (
	"fmt"
	"io"

	"github.com/ajitpratap0/wrangler/pkg/errors"
)

// Example demonstrates basic error creation.
func Example() {
	err := errors.New(errors.ErrorTypeNotFound, "Dataset not found").
		WithDetail("path", "/data/missing.json")

	fmt.Println(err.Error())

	// Output:
	// not_found: Dataset not found
}

// ExampleWrap shows how to wrap existing errors with context.
func ExampleWrap() {
	err := errors.Wrap(io.ErrUnexpectedEOF, errors.ErrorTypeFile, "failed to read dataset").
		WithDetail("file", "data.csv")

	if errors.IsType(err, errors.ErrorTypeFile) {
		fmt.Println("This is a file error")
	}
	fmt.Println(err)

	// Output:
	// This is a file error
	// file: failed to read dataset: unexpected EOF
}

// ExampleErrorType demonstrates the kinds surfaced by providers and sinks.
func ExampleErrorType() {
	upstream := errors.New(errors.ErrorTypeUpstream, "Failed to download from URL: 503").
		WithDetail("status_code", 503)
	format := errors.New(errors.ErrorTypeFormat, "CSV file is empty")
	disabled := errors.New(errors.ErrorTypeDisabled, "storage client is disabled")

	fmt.Printf("Upstream error: %v\n", upstream)
	fmt.Printf("Format error: %v\n", format)
	fmt.Printf("Disabled error: %v\n", disabled)

	// Output:
	// Upstream error: upstream: Failed to download from URL: 503
	// Format error: format: CSV file is empty
	// Disabled error: disabled: storage client is disabled
}

// ExampleIsRetryable shows that only transport errors are flagged retryable.
func ExampleIsRetryable() {
	connErr := errors.New(errors.ErrorTypeConnection, "connection reset")
	fmtErr := errors.New(errors.ErrorTypeFormat, "Invalid JSON format")

	fmt.Println(errors.IsRetryable(connErr))
	fmt.Println(errors.IsRetryable(fmtErr))

	// Output:
	// true
	// false
}

// Example_errorChain shows how wrapped errors render.
func Example_errorChain() {
	var err error = errors.New(errors.ErrorTypeConnection, "connection timeout")
	err = errors.Wrap(err, errors.ErrorTypeNotFound, "envelope fetch failed").
		WithDetail("uri", "gs://bucket/dev/doc/sv1/envelope/envelope.json")

	fmt.Println("Full error chain:", err)
	fmt.Println(errors.TypeOf(err))

	// Output:
	// Full error chain: not_found: envelope fetch failed: connection: connection timeout
	// not_found
}

// ExampleIsType demonstrates that IsType inspects the outermost error.
func ExampleIsType() {
	connErr := errors.New(errors.ErrorTypeConnection, "connection failed")
	wrappedErr := errors.Wrap(connErr, errors.ErrorTypeConfig, "storage client build failed")

	fmt.Printf("Is connection error: %v\n", errors.IsType(connErr, errors.ErrorTypeConnection))
	fmt.Printf("Wrapped error is config type: %v\n", errors.IsType(wrappedErr, errors.ErrorTypeConfig))
	fmt.Printf("Wrapped error reports connection type: %v\n", errors.IsType(wrappedErr, errors.ErrorTypeConnection))

	// Output:
	// Is connection error: true
	// Wrapped error is config type: true
	// Wrapped error reports connection type: false
}

// ExampleDetail shows how callers read structured details back.
func ExampleDetail() {
	err := errors.Newf(errors.ErrorTypeUpstream, "Failed to download from URL: %d", 404).
		WithDetail("status_code", 404)

	code, ok := errors.Detail(err, "status_code")
	fmt.Println(code, ok)

	// Output:
	// 404 true
}
