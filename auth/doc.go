// Package auth implements the identity core of the notice server: issuing
// and validating the server's own bearer tokens, reconciling federated
// logins with local accounts, and managing the single-use tokens behind
// email verification and password reset.
package auth
