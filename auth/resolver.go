package auth

import (
	"context"
	"strings"

	"github.com/goliatone/go-errors"
)

// IdentityResolver converts verified token claims into an authoritative
// local User record. It is the single point where the local and federated
// authentication paths converge, and the only component that provisions
// accounts implicitly.
type IdentityResolver struct {
	repo   RepositoryManager
	logger Logger
}

// NewIdentityResolver returns a resolver over the given stores.
func NewIdentityResolver(repo RepositoryManager) *IdentityResolver {
	return &IdentityResolver{
		repo:   repo,
		logger: defLogger{},
	}
}

func (r *IdentityResolver) WithLogger(logger Logger) *IdentityResolver {
	if logger != nil {
		r.logger = logger
	}
	return r
}

// ResolveFederated maps verified federated claims to a local account:
//
//  1. by federated subject id — the common case after first login
//  2. by email — a pre-existing local account logging in through the
//     provider for the first time; the subject id is linked, not duplicated
//  3. otherwise a new account is provisioned from the claims
//
// The check-then-create sequence is not serialized in application code.
// Correctness under concurrent first logins relies on the unique
// constraints on firebase_uid and email: the loser of an insert race
// re-runs the lookup and returns the winner's row.
func (r *IdentityResolver) ResolveFederated(ctx context.Context, claims FederatedClaims) (*User, error) {
	if claims.SubjectID == "" {
		return nil, ErrTokenMalformed
	}

	user, err := r.repo.Users().ByFirebaseUID(ctx, claims.SubjectID)
	if err == nil {
		return r.ensureActive(user)
	}
	if !errors.IsNotFound(err) {
		return nil, err
	}

	user, err = r.repo.Users().ByEmail(ctx, claims.Email)
	if err == nil {
		if user.FirebaseUID == nil {
			if err := r.repo.Users().LinkFirebaseUID(ctx, user.ID, claims.SubjectID); err != nil {
				return nil, err
			}
			uid := claims.SubjectID
			user.FirebaseUID = &uid
			r.logger.Info("linked federated subject to existing account", "email", claims.Email, "uid", claims.SubjectID)
		}
		return r.ensureActive(user)
	}
	if !errors.IsNotFound(err) {
		return nil, err
	}

	created, err := r.provision(ctx, claims)
	if err == nil {
		return created, nil
	}
	if !isUniqueViolation(err) {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to provision federated user")
	}

	// Another request provisioned the same principal between our lookup
	// and insert. The discarded insert is the only cost; fetch the row the
	// winner created.
	r.logger.Debug("provisioning race lost, re-fetching", "uid", claims.SubjectID)
	user, err = r.repo.Users().ByFirebaseUID(ctx, claims.SubjectID)
	if err == nil {
		return r.ensureActive(user)
	}
	if !errors.IsNotFound(err) {
		return nil, err
	}

	// The conflict may also have been on email: a concurrent signup or a
	// concurrent login that linked the uid to a pre-existing account.
	user, err = r.repo.Users().ByEmail(ctx, claims.Email)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to resolve user after provisioning conflict")
	}

	return r.ensureActive(user)
}

func (r *IdentityResolver) provision(ctx context.Context, claims FederatedClaims) (*User, error) {
	uid := claims.SubjectID
	user := &User{
		FirebaseUID: &uid,
		Email:       claims.Email,
		Name:        displayName(claims),
		// Placeholder credential: random and never disclosed, so the
		// local password path stays unusable until a real reset.
		PasswordHash:    RandomPasswordHash(),
		Role:            RoleUser,
		IsActive:        true,
		IsEmailVerified: claims.EmailVerified,
	}

	created, err := r.repo.Users().Create(ctx, user)
	if err != nil {
		return nil, err
	}

	r.logger.Info("auto-provisioned federated user", "email", claims.Email, "uid", claims.SubjectID)
	return created, nil
}

// ResolveLocalClaims maps validated server-token claims to the account they
// assert. Precondition: the caller has already run TokenService.Validate.
func (r *IdentityResolver) ResolveLocalClaims(ctx context.Context, claims *JWTClaims) (*User, error) {
	user, err := r.repo.Users().ByEmail(ctx, claims.Email())
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	return r.ensureActive(user)
}

// VerifyLocal authenticates the email/password path. Unknown email and
// wrong password yield the same generic failure so responses cannot be
// used to enumerate accounts.
func (r *IdentityResolver) VerifyLocal(ctx context.Context, email, password string) (*User, error) {
	user, err := r.repo.Users().ByEmail(ctx, email)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve user during verification")
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		return nil, ErrInvalidCredentials
	}

	return r.ensureActive(user)
}

func (r *IdentityResolver) ensureActive(user *User) (*User, error) {
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrAccountInactive
	}
	return user, nil
}

func displayName(claims FederatedClaims) string {
	if claims.Name != "" {
		return claims.Name
	}
	if at := strings.Index(claims.Email, "@"); at > 0 {
		return claims.Email[:at]
	}
	return claims.Email
}
