// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth verifies identity tokens.

# Token Verification

Requests carry an HS256 JWT issued by the external identity provider. The
server verifies the signature and expiry, then trusts the claims:

	claims, err := auth.VerifyToken(tokenStr, cfg.JWTSecret)
	userID := claims.UserID()

Claims carry the (userID, email, name) tuple from the sub, email, and name
claims. A token without a subject is rejected.

# Errors

  - ErrTokenExpired: signature valid but past exp
  - ErrInvalidToken: everything else (bad signature, wrong alg, no subject)

Both map to HTTP 401 in the middleware.

# Token Issuance

IssueToken signs a token for tests and local development:

	token, _ := auth.IssueToken("user-1", "a@b.c", "Alice", secret, time.Hour)

Production tokens come from the identity provider, not this server.
*/
package auth
