// Package builder implements the business operations behind the form:
// capturing files into a session, editing its configuration, generating
// the setup script and streaming the download bundle.
//
// Every mutation is load → pure reducer → save under one mutex, so
// concurrent requests of the same session cannot lose updates.
package builder
