// Package firebase validates Firebase-issued ID tokens against Google's
// public signing keys. Verification fails closed: if the key set cannot be
// fetched or the signature does not check out, the token is rejected and
// the request proceeds unauthenticated.
package firebase
