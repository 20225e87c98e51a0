// Package cors lets the separately hosted shop front-end call the API with
// the session cookie attached.
package cors
