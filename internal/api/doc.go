// Package api is the HTTP client for the property-listing backend.
//
// The backend is an external collaborator behind a fixed JSON-over-HTTP
// contract: bearer-authenticated requests, DRF-style page-number pagination
// and error bodies. The client adds no business rules of its own; it decodes
// the contract and reports failures as *Error values carrying the HTTP status.
//
// Authenticated requests flow through the auth transport (NewAuthTransport),
// which attaches the session's access token and retries a request exactly once
// after a 401 by renewing the session.
package api
