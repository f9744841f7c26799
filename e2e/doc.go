//go:build e2e

// Package e2e holds the profile lifecycle suites.
//
// The suites are isolated from the standard test run via build tags:
//
//	go test -tags=e2e ./e2e/...
//
// By default the API suite talks to an in-process gateway simulator. Set
// E2E_LIVE=1 together with TEST_EMAIL and TEST_PASSWORD to run it against
// API_BASE_URL. The UI suite drives Chrome through Rod and only runs with
// E2E_UI=1 and credentials for BASE_URL.
//
// Every profile a test creates is removed in t.Cleanup; TestMain sweeps the
// account once more after the last test.
package e2e
