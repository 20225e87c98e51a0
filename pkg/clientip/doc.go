// Package clientip resolves the client address of HTTP requests behind
// reverse proxies. Only the headers configured on a Resolver are trusted;
// everything else falls back to RemoteAddr. Values are validated with
// net.ParseIP and returned in canonical form.
package clientip
