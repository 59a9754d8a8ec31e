// Package tracker runs one deployment check: it reads projects from the
// record store, probes each URL, posts a summary to the chat channel and
// writes changed status labels back.
//
// Per-project problems are carried as values in ProjectStatus and never stop
// the run. Failures that make the run meaningless, such as an unreadable
// database, abort it and are relayed once as an alert by Execute.
package tracker
