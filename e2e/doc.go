//go:build e2e

// Package e2e provides end-to-end browser tests for the login flow.
//
// These tests are isolated from the standard test suite via build tags.
// They require a Chrome browser (auto-downloaded by Rod if not present)
// and are intended for CI pipelines or explicit local testing.
//
// Running E2E tests against the bundled login app:
//
//	go test -tags=e2e ./e2e/...
//
// Running them against an already deployed instance:
//
//	BASE_URL=https://staging.example.com TEST_USERNAME=qa TEST_PASSWORD=... \
//	    go test -tags=e2e ./e2e/...
//
// Set HEADLESS=false to watch the browser. A .env file at the repository
// root is loaded if present.
//
// E2E tests use:
//   - Rod for browser automation (Chrome DevTools Protocol)
//   - cmd/loginapp/server as the application when BASE_URL is unset
//   - pkg/pages Page Objects, so scenarios never touch selectors
//
// Test isolation:
// One Chrome process is shared, but every scenario gets its own incognito
// tab. Scenarios run in parallel and share no cookies or storage.
package e2e
