// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Scylla Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/scylla/scylla/internal/notify"
	"github.com/scylla/scylla/internal/session"
	"github.com/scylla/scylla/pkg/errutil"
)

var tracer = otel.Tracer("scylla/auth")

// Default service settings.
const (
	DefaultVerificationTTL = 30 * time.Minute
	DefaultResetTTL        = 30 * time.Minute
	DefaultDispatchTimeout = 10 * time.Second
	DefaultResetWorkers    = 8
)

// Transactor runs fn inside a database transaction carried by ctx.
type Transactor interface {
	InTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// SessionManager binds identities to session carriers.
type SessionManager interface {
	Login(ctx context.Context, c session.Carrier, userID ulid.ULID) error
	Logout(ctx context.Context, c session.Carrier) error
	CurrentIdentity(ctx context.Context, c session.Carrier) (ulid.ULID, bool, error)
}

// ServiceDeps are the collaborators of the Auth Service.
type ServiceDeps struct {
	Users      UserRepository
	Accounts   AccountRepository
	Tokens     TokenRepository
	Hasher     PasswordHasher
	Sessions   SessionManager
	Dispatcher notify.Dispatcher
	Tx         Transactor
}

// ServiceConfig holds the tunables of the Auth Service.
type ServiceConfig struct {
	// From is the sender address of outbound notifications.
	From string

	// FrontendURL prefixes the links placed in notifications.
	FrontendURL string

	VerificationTTL time.Duration
	ResetTTL        time.Duration
	DispatchTimeout time.Duration

	// ResetWorkers caps the password reset deliveries running at once.
	// ForgotPassword drops requests that arrive while every worker is busy.
	ResetWorkers int

	// AllowRelogin lets Login replace a live session instead of rejecting it.
	AllowRelogin bool
}

func (c *ServiceConfig) applyDefaults() {
	if c.VerificationTTL == 0 {
		c.VerificationTTL = DefaultVerificationTTL
	}
	if c.ResetTTL == 0 {
		c.ResetTTL = DefaultResetTTL
	}
	if c.DispatchTimeout <= 0 {
		c.DispatchTimeout = DefaultDispatchTimeout
	}
	if c.ResetWorkers <= 0 {
		c.ResetWorkers = DefaultResetWorkers
	}
	c.FrontendURL = strings.TrimRight(c.FrontendURL, "/")
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m Metrics) ServiceOption {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithLedgerOptions passes options through to the token ledger.
func WithLedgerOptions(opts ...LedgerOption) ServiceOption {
	return func(s *Service) {
		s.ledgerOpts = append(s.ledgerOpts, opts...)
	}
}

// Service orchestrates registration, login, email verification and
// password reset over the directory, credential store, token ledger,
// session manager and notification dispatcher.
type Service struct {
	directory   *Directory
	credentials *Credentials
	ledger      *TokenLedger
	sessions    SessionManager
	dispatcher  notify.Dispatcher
	tx          Transactor
	cfg         ServiceConfig
	logger      *slog.Logger
	metrics     Metrics
	ledgerOpts  []LedgerOption

	mu         sync.Mutex
	closed     bool
	wg         sync.WaitGroup
	resetSlots chan struct{}
}

// NewService wires a Service.
func NewService(deps ServiceDeps, cfg ServiceConfig, opts ...ServiceOption) (*Service, error) {
	if deps.Sessions == nil {
		return nil, oops.Errorf("session manager is required")
	}
	if deps.Dispatcher == nil {
		return nil, oops.Errorf("dispatcher is required")
	}
	if deps.Tx == nil {
		return nil, oops.Errorf("transactor is required")
	}
	if cfg.From == "" {
		return nil, oops.Errorf("sender address is required")
	}
	cfg.applyDefaults()

	s := &Service{
		sessions:   deps.Sessions,
		dispatcher: deps.Dispatcher,
		tx:         deps.Tx,
		cfg:        cfg,
		logger:     slog.Default(),
		metrics:    noopMetrics{},
		resetSlots: make(chan struct{}, cfg.ResetWorkers),
	}
	for _, opt := range opts {
		opt(s)
	}

	var err error
	if s.directory, err = NewDirectory(deps.Users); err != nil {
		return nil, err
	}
	if s.credentials, err = NewCredentials(deps.Accounts, deps.Hasher); err != nil {
		return nil, err
	}
	if s.ledger, err = NewTokenLedger(deps.Tokens, s.ledgerOpts...); err != nil {
		return nil, err
	}
	return s, nil
}

// Register creates a user and its credentials account atomically. The
// password is hashed before the transaction opens.
func (s *Service) Register(ctx context.Context, in RegisterInput) (user *User, err error) {
	ctx, end := s.begin(ctx, "register")
	defer func() { end(err) }()

	if err := ValidateInput(in); err != nil {
		return nil, err
	}

	// Hash before the transaction so no connection is held during argon2id.
	hash, err := s.credentials.Hash(in.Password)
	if err != nil {
		return nil, s.failure(ctx, "register", err)
	}

	err = s.tx.InTransaction(ctx, func(ctx context.Context) error {
		created, err := s.directory.Create(ctx, in.Name, in.Email)
		if err != nil {
			return err
		}
		if _, err := s.credentials.InsertCredentialsAccount(ctx, created.ID, hash); err != nil {
			return err
		}
		user = created
		return nil
	})
	if errors.Is(err, ErrDuplicateEmail) {
		return nil, oops.Code(CodeEmailTaken).Errorf("email is already registered")
	}
	if err != nil {
		return nil, s.failure(ctx, "register", err)
	}

	s.logger.InfoContext(ctx, "user registered", "user_id", user.ID.String())
	return user, nil
}

// Login verifies credentials and binds the user to the carrier.
// Unknown emails, missing credentials and wrong passwords are
// indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, c session.Carrier, in LoginInput) (user *User, err error) {
	ctx, end := s.begin(ctx, "login")
	defer func() { end(err) }()

	if err := ValidateInput(in); err != nil {
		return nil, err
	}

	if !s.cfg.AllowRelogin {
		_, bound, err := s.sessions.CurrentIdentity(ctx, c)
		if err != nil {
			return nil, s.failure(ctx, "login", err)
		}
		if bound {
			return nil, oops.Code(session.CodeAlreadyAuthenticated).Errorf("a session is already active")
		}
	}

	user, err = s.directory.FindByEmail(ctx, in.Email)
	if errors.Is(err, ErrNotFound) {
		s.credentials.VerifyDummy(in.Password)
		return nil, errInvalidCredentials()
	}
	if err != nil {
		return nil, s.failure(ctx, "login", err)
	}

	account, err := s.credentials.CredentialsFor(ctx, user.ID)
	if errors.Is(err, ErrNotFound) || (err == nil && account.PasswordHash == nil) {
		s.credentials.VerifyDummy(in.Password)
		return nil, errInvalidCredentials()
	}
	if err != nil {
		return nil, s.failure(ctx, "login", err)
	}

	ok, err := s.credentials.Verify(in.Password, *account.PasswordHash)
	if err != nil {
		errutil.LogErrorContext(ctx, s.logger, "stored password hash is unreadable", err)
		return nil, errInvalidCredentials()
	}
	if !ok {
		return nil, errInvalidCredentials()
	}

	if err := s.sessions.Login(ctx, c, user.ID); err != nil {
		return nil, s.failure(ctx, "login", err)
	}

	if s.credentials.NeedsUpgrade(*account.PasswordHash) {
		s.upgradeHash(ctx, account, in.Password)
	}
	return user, nil
}

func (s *Service) upgradeHash(ctx context.Context, account *Account, password string) {
	hash, err := s.credentials.Hash(password)
	if err == nil {
		err = s.credentials.SetPasswordHash(ctx, account, hash)
	}
	if err != nil {
		errutil.LogWarnContext(ctx, s.logger, "password hash upgrade failed", err)
		return
	}
	s.logger.InfoContext(ctx, "password hash upgraded", "user_id", account.UserID.String())
}

// Logout ends the carrier's session.
func (s *Service) Logout(ctx context.Context, c session.Carrier) (err error) {
	ctx, end := s.begin(ctx, "logout")
	defer func() { end(err) }()

	_, bound, err := s.sessions.CurrentIdentity(ctx, c)
	if err != nil {
		return s.failure(ctx, "logout", err)
	}
	if !bound {
		return errNotAuthenticated()
	}
	if err := s.sessions.Logout(ctx, c); err != nil {
		return s.failure(ctx, "logout", err)
	}
	return nil
}

// CurrentUser returns the user bound to the carrier.
func (s *Service) CurrentUser(ctx context.Context, c session.Carrier) (user *User, err error) {
	ctx, end := s.begin(ctx, "current_user")
	defer func() { end(err) }()

	id, bound, err := s.sessions.CurrentIdentity(ctx, c)
	if err != nil {
		return nil, s.failure(ctx, "current_user", err)
	}
	if !bound {
		return nil, errNotAuthenticated()
	}
	return s.findUser(ctx, "current_user", id)
}

// RequestEmailVerification sends a verification link to the user. Users that
// are already verified get nothing and no error.
func (s *Service) RequestEmailVerification(ctx context.Context, userID ulid.ULID) (err error) {
	ctx, end := s.begin(ctx, "request_email_verification")
	defer func() { end(err) }()

	user, err := s.findUser(ctx, "request_email_verification", userID)
	if err != nil {
		return err
	}
	if user.Verified {
		s.logger.DebugContext(ctx, "verification skipped, already verified", "user_id", user.ID.String())
		return nil
	}

	raw, _, err := s.ledger.Issue(ctx, TokenKindVerification, user.ID, s.cfg.VerificationTTL)
	if err != nil {
		return s.failure(ctx, "request_email_verification", err)
	}
	s.metrics.RecordToken(TokenKindVerification, TokenEventIssued)

	return s.send(ctx, notify.TemplateVerifyEmail, user, "/verify", raw, s.cfg.VerificationTTL)
}

// VerifyEmail consumes a verification token and marks its owner verified,
// in one transaction.
func (s *Service) VerifyEmail(ctx context.Context, rawToken string) (err error) {
	ctx, end := s.begin(ctx, "verify_email")
	defer func() { end(err) }()

	var (
		userID  ulid.ULID
		missing bool
	)
	err = s.tx.InTransaction(ctx, func(ctx context.Context) error {
		id, err := s.ledger.Consume(ctx, TokenKindVerification, rawToken)
		if err != nil {
			return err
		}
		userID = id
		err = s.directory.MarkVerified(ctx, id)
		if errors.Is(err, ErrNotFound) {
			// Keep the consumption; the token must not become usable again.
			missing = true
			return nil
		}
		return err
	})
	if err != nil {
		s.recordRejection(TokenKindVerification, err)
		return s.failure(ctx, "verify_email", err)
	}
	s.metrics.RecordToken(TokenKindVerification, TokenEventConsumed)

	if missing {
		s.logger.WarnContext(ctx, "verification token owner no longer exists", "user_id", userID.String())
		return oops.Code(CodeUserNotFound).Errorf("user not found")
	}
	s.logger.InfoContext(ctx, "email verified", "user_id", userID.String())
	return nil
}

// ForgotPassword starts a password reset for the email. Once the input is
// valid it always succeeds: the lookup, token issue and dispatch run in the
// background and their failures are only logged. At most ResetWorkers
// deliveries run at once; a request arriving when all are busy is dropped
// with a warning.
func (s *Service) ForgotPassword(ctx context.Context, in ForgotPasswordInput) (err error) {
	ctx, end := s.begin(ctx, "forgot_password")
	defer func() { end(err) }()

	if err := ValidateInput(in); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		s.logger.WarnContext(ctx, "forgot password dropped, service is closing")
		return nil
	}

	select {
	case s.resetSlots <- struct{}{}:
	default:
		s.logger.WarnContext(ctx, "forgot password dropped, reset workers busy",
			"workers", cap(s.resetSlots))
		s.metrics.RecordToken(TokenKindPasswordReset, TokenEventDropped)
		return nil
	}

	bg := context.WithoutCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer func() {
			<-s.resetSlots
			s.wg.Done()
		}()
		s.startReset(bg, in.Email)
	}()
	return nil
}

func (s *Service) startReset(ctx context.Context, email string) {
	ctx, end := s.begin(ctx, "forgot_password_delivery")
	var err error
	defer func() { end(err) }()

	user, err := s.directory.FindByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		s.logger.DebugContext(ctx, "password reset requested for unknown email", "email", email)
		err = nil
		return
	}
	if err != nil {
		errutil.LogWarnContext(ctx, s.logger, "password reset lookup failed", err)
		return
	}

	raw, _, err := s.ledger.Issue(ctx, TokenKindPasswordReset, user.ID, s.cfg.ResetTTL)
	if err != nil {
		errutil.LogWarnContext(ctx, s.logger, "password reset token issue failed", err)
		return
	}
	s.metrics.RecordToken(TokenKindPasswordReset, TokenEventIssued)

	// send logs its own failures
	err = s.send(ctx, notify.TemplateResetPassword, user, "/reset-password", raw, s.cfg.ResetTTL)
}

// ResetPassword replaces the password of the reset token's owner.
// A confirmation mismatch is rejected before the token is touched.
func (s *Service) ResetPassword(ctx context.Context, in ResetPasswordInput) (err error) {
	ctx, end := s.begin(ctx, "reset_password")
	defer func() { end(err) }()

	if err := ValidateInput(in); err != nil {
		return err
	}
	if in.Password != in.PasswordConfirmation {
		return oops.Code(CodePasswordMismatch).Errorf("passwords do not match")
	}

	hash, err := s.credentials.Hash(in.Password)
	if err != nil {
		return s.failure(ctx, "reset_password", err)
	}

	var (
		userID  ulid.ULID
		missing bool
	)
	err = s.tx.InTransaction(ctx, func(ctx context.Context) error {
		id, err := s.ledger.Consume(ctx, TokenKindPasswordReset, in.Token)
		if err != nil {
			return err
		}
		userID = id

		account, err := s.credentials.CredentialsFor(ctx, id)
		if err == nil {
			err = s.credentials.SetPasswordHash(ctx, account, hash)
		}
		if errors.Is(err, ErrNotFound) {
			// Commit the consumption anyway; a consumed token is never restored.
			missing = true
			return nil
		}
		return err
	})
	if err != nil {
		s.recordRejection(TokenKindPasswordReset, err)
		return s.failure(ctx, "reset_password", err)
	}
	s.metrics.RecordToken(TokenKindPasswordReset, TokenEventConsumed)

	if missing {
		s.logger.ErrorContext(ctx, "credentials account missing after reset token was consumed",
			"user_id", userID.String(),
			"code", CodeInternal,
		)
		return oops.Code(CodeInternal).Errorf("internal error")
	}
	s.logger.InfoContext(ctx, "password reset", "user_id", userID.String())
	return nil
}

// Wait blocks until background work started by ForgotPassword has finished.
func (s *Service) Wait() {
	s.wg.Wait()
}

// Close stops accepting background work and waits for what is running.
func (s *Service) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Service) findUser(ctx context.Context, op string, id ulid.ULID) (*User, error) {
	user, err := s.directory.FindByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, oops.Code(CodeUserNotFound).With("user_id", id.String()).Errorf("user not found")
	}
	if err != nil {
		return nil, s.failure(ctx, op, err)
	}
	return user, nil
}

func (s *Service) send(ctx context.Context, tmpl notify.Template, user *User, path, raw string, ttl time.Duration) error {
	msg, err := notify.Compose(tmpl, s.cfg.From, user.Email, notify.LinkData{
		Name:      user.Name,
		Link:      s.cfg.FrontendURL + path + "?token=" + url.QueryEscape(raw),
		ExpiresIn: ttl,
	})
	if err != nil {
		return s.failure(ctx, "compose "+string(tmpl), err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.DispatchTimeout)
	defer cancel()
	if err := s.dispatcher.Send(ctx, msg); err != nil {
		errutil.LogWarnContext(ctx, s.logger, "notification dispatch failed", err)
		return oops.Code(CodeDispatchFailed).With("template", string(tmpl)).Errorf("notification could not be sent")
	}
	return nil
}

func (s *Service) recordRejection(kind TokenKind, err error) {
	switch ErrorCode(err) {
	case CodeTokenNotFound, CodeTokenExpired, CodeTokenAlreadyUsed:
		s.metrics.RecordToken(kind, TokenEventRejected)
	}
}

// publicCodes pass through the service unchanged.
var publicCodes = map[string]bool{
	CodeValidationFailed:             true,
	CodeEmailTaken:                   true,
	CodeInvalidCredentials:           true,
	CodePasswordMismatch:             true,
	CodeUserNotFound:                 true,
	CodeTokenNotFound:                true,
	CodeTokenExpired:                 true,
	CodeTokenAlreadyUsed:             true,
	CodeStorageUnavailable:           true,
	CodeDispatchFailed:               true,
	CodeInternal:                     true,
	session.CodeNotAuthenticated:     true,
	session.CodeAlreadyAuthenticated: true,
}

// failure turns an internal error into STORAGE_UNAVAILABLE or INTERNAL_ERROR.
// The cause is logged here and not wrapped into the returned error.
func (s *Service) failure(ctx context.Context, op string, err error) error {
	if publicCodes[ErrorCode(err)] {
		return err
	}
	if errors.Is(err, ErrStorageUnavailable) || errors.Is(err, session.ErrStoreUnavailable) ||
		errors.Is(err, context.DeadlineExceeded) {
		errutil.LogWarnContext(ctx, s.logger, op+" failed: storage unavailable", err)
		return oops.Code(CodeStorageUnavailable).With("operation", op).Errorf("storage unavailable")
	}
	errutil.LogErrorContext(ctx, s.logger, op+" failed", err)
	return oops.Code(CodeInternal).With("operation", op).Errorf("internal error")
}

func (s *Service) begin(ctx context.Context, op string) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "auth."+op)
	return ctx, func(err error) {
		outcome := OutcomeOK
		if err != nil {
			if outcome = ErrorCode(err); outcome == "" {
				outcome = CodeInternal
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, outcome)
		}
		s.metrics.RecordOperation(op, outcome, time.Since(start))
		span.End()
	}
}

func errInvalidCredentials() error {
	return oops.Code(CodeInvalidCredentials).Errorf("invalid email or password")
}

func errNotAuthenticated() error {
	return oops.Code(session.CodeNotAuthenticated).Errorf("not logged in")
}
