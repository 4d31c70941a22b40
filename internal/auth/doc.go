// Package auth issues and verifies the bearer tokens of the climate API.
//
// Tokens are HS256 JWTs carrying a subject and one of three roles:
// viewer (read state), operator (read and command) and admin. They are
// minted by the operator with the token CLI command; there is no user store.
package auth
