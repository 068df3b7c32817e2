// Package builder implements the HTTP transport of the builder: the form
// page, upload and configuration endpoints, and the downloads.
//
// A session cookie ties requests to the server-side session. Successful
// actions redirect back to the form; actions with notices render it directly.
package builder
