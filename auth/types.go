package auth

import (
	"context"
	"fmt"
)

// Logger takes a message plus alternating key/value context pairs, the way
// zap's sugared logger does.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Config holds auth options. Values are read once at process startup and
// never mutated afterwards.
type Config interface {
	GetSigningKey() string
	GetTokenExpiration() int
	GetIssuer() string
}

// FederatedClaims is the verified payload of an externally issued identity
// token. A value of this type must only ever be built from a token whose
// signature has already been checked.
type FederatedClaims struct {
	SubjectID     string
	Email         string
	EmailVerified bool
	Name          string
}

// FederatedValidator verifies tokens issued by the external identity
// provider. Implementations fail closed: any network or verification
// problem yields an error, never a claim set.
type FederatedValidator interface {
	Validate(tokenString string) (*FederatedClaims, error)
}

// MailKind selects the outbound email template.
type MailKind string

const (
	MailEmailVerification MailKind = "email_verification"
	MailPasswordReset     MailKind = "password_reset"
)

// Mailer delivers out-of-band messages. Send failures are logged by
// callers, not propagated; account and token creation never roll back on a
// failed delivery.
type Mailer interface {
	Send(ctx context.Context, to string, kind MailKind, payload map[string]string) error
}

// DefaultLogger returns the fallback stdout logger.
func DefaultLogger() Logger {
	return defLogger{}
}

type defLogger struct{}

func (d defLogger) Error(msg string, args ...any) { d.print("ERR", msg, args) }
func (d defLogger) Warn(msg string, args ...any)  { d.print("WRN", msg, args) }
func (d defLogger) Info(msg string, args ...any)  { d.print("INF", msg, args) }
func (d defLogger) Debug(msg string, args ...any) { d.print("DBG", msg, args) }

func (d defLogger) print(level, msg string, args []any) {
	fmt.Printf("[%s] AUTH %s", level, msg)
	for i := 0; i+1 < len(args); i += 2 {
		fmt.Printf(" %v=%v", args[i], args[i+1])
	}
	fmt.Println()
}

// NewLogMailer returns a Mailer that only logs the payload. Used in
// development and in tests.
func NewLogMailer(logger Logger) Mailer {
	if logger == nil {
		logger = defLogger{}
	}
	return &logMailer{logger: logger}
}

type logMailer struct {
	logger Logger
}

func (m *logMailer) Send(_ context.Context, to string, kind MailKind, payload map[string]string) error {
	m.logger.Info("mail send", "to", to, "kind", string(kind), "payload", payload)
	return nil
}
