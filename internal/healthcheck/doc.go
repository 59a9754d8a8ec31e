// Package healthcheck implements reachability probes for project URLs.
// A probe issues HTTP GET requests, following redirects, and retries a fixed
// number of times with a fixed pause between attempts.
package healthcheck
