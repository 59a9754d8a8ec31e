// Package report renders health check results as the plain-text message
// posted to the chat channel, and the alert text sent when a run fails.
package report
