// Package cli provides the feedbackkit command-line client.
//
// Execute builds a cobra command tree whose persistent flags mirror
// config.Config. Before any subcommand runs, the configuration is loaded,
// a logger is built and an App is wired over local storage, the auth
// service and the feedback API.
//
// Subcommands:
//   - releases [--pages N]: list the changelog
//   - release <id>: show one release with its sections
//   - tickets [tab]: list roadmap tickets for a tab
//   - vote <id> / unvote <id> [--tab T]: change the caller's vote
//   - logout: forget the stored access token
//   - shell: the interactive REPL, also the default with no subcommand
//
// App methods print their own output and errors, so one failed command in
// the shell never ends the session.
package cli
