// Package cli builds the courseplanner command tree. It layers flags,
// COURSEPLANNER_* environment variables and an optional courseplanner.yaml
// into an app.Config, runs the selected command and translates failures into
// process exit codes.
package cli
