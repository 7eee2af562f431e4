// Package taskvault implements the authentication and authorization core
// of a multi-tenant task-tracking API.
//
// The package separates the pipeline into small collaborators: a
// PasswordHasher for credential secrecy, a TokenCodec for signed bearer
// tokens, a UserStore for identities with hashed secrets, a Middleware
// that gates every protected route, and services composing them.
//
// # Basic Usage
//
// Set up stores for users and tasks:
//
//	import (
//	    "github.com/taskvault/taskvault"
//	    "github.com/taskvault/taskvault/stores"
//	)
//
//	storagePath := "/path/to/storage"
//	users := stores.NewFSUserStore(storagePath)
//	tasks := stores.NewFSTaskStore(storagePath)
//
// Construct the core from an explicit configuration (the signing secret
// is required; there is no fallback):
//
//	cfg, err := taskvault.LoadConfig()
//	if err != nil {
//	    // refuse to start
//	}
//	codec := taskvault.NewTokenCodec(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenTTL())
//	hasher := taskvault.NewBcryptHasher(cfg.BcryptCost)
//
//	server := taskvault.NewServer(
//	    taskvault.NewAccountService(users, hasher, codec),
//	    taskvault.NewTaskService(tasks),
//	    taskvault.NewMiddleware(codec, users),
//	    slog.Default(),
//	)
//	http.ListenAndServe(cfg.Addr, server.Handler())
//
// # Store Implementations
//
// File-based stores in the stores package suit development and tests;
// the stores/gorm package provides the Postgres-backed implementation
// for production, where email uniqueness is enforced by a database
// index rather than application-level checks.
//
// # Security
//
// Passwords are hashed with bcrypt and never persisted or logged in
// plaintext. Tokens are HS256 JWTs carrying only the user id; a token
// whose signature still verifies is rejected once the user it names no
// longer exists. Login failures for unknown emails and wrong passwords
// are indistinguishable in status, message and (approximately) time.
package taskvault
