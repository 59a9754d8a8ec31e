// Package notion reads project records from a Notion database and writes
// status labels back to individual pages.
//
// Responses are decoded into explicit types at the boundary. A response that
// does not have the expected shape is reported as a *ParseError, a non-2xx
// answer from the API as an *APIError.
package notion
