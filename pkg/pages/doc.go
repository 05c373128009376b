// Package pages provides Page Objects for the login flow.
//
// A Page Object binds the actions and assertions of one logical screen to a
// single browser tab, so scenarios never touch selectors directly:
//
//	login := pages.NewLoginPage(tab, baseURL)
//	dashboard := pages.NewDashboardPage(tab, baseURL)
//
//	if err := login.Goto(); err != nil { ... }
//	if err := login.Login("testuser", "password"); err != nil { ... }
//	if err := dashboard.ExpectUserLoggedIn("testuser"); err != nil { ... }
//
// Every call blocks until the browser action or assertion completes, or
// until the page timeout (default 30s, see WithTimeout) expires. Expect*
// methods return an error naming the unmet expectation.
package pages
