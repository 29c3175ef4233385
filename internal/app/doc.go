// Package app contains the course planner's application logic: validated
// configuration, logger construction, source selection and one method per
// command. It is decoupled from the CLI so commands can be driven directly
// from tests.
package app
