// Package engine assembles a TokenGranter and its collaborators from configuration.
package engine

import (
	"context"
	"crypto"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jrsteele09/go-token-engine/captcha"
	"github.com/jrsteele09/go-token-engine/clients"
	fakeclientrepo "github.com/jrsteele09/go-token-engine/clients/fakerepo"
	"github.com/jrsteele09/go-token-engine/clients/pgsource"
	"github.com/jrsteele09/go-token-engine/granter"
	"github.com/jrsteele09/go-token-engine/internal/config"
	"github.com/jrsteele09/go-token-engine/tenants"
	tenantrepofakes "github.com/jrsteele09/go-token-engine/tenants/repofakes"
	"github.com/jrsteele09/go-token-engine/token"
	"github.com/jrsteele09/go-token-engine/token/code"
	"github.com/jrsteele09/go-token-engine/token/enhance"
	"github.com/jrsteele09/go-token-engine/token/introspect"
	"github.com/jrsteele09/go-token-engine/token/keys"
	"github.com/jrsteele09/go-token-engine/users"
	fakeuserrepo "github.com/jrsteele09/go-token-engine/users/repofake"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Engine is a fully wired token engine.
type Engine struct {
	Granter      *granter.TokenGranter
	Introspector *introspect.Introspector
	Codes        *code.Issuer
	Clients      *clients.Store
	Tokens       token.Store
	Users        users.UserRepo
	Tenants      tenants.Repo
	Signer       keys.Signer
	Registry     *prometheus.Registry

	captchas      captcha.Keeper
	captchaLength int
	captchaTTL    time.Duration
	closers       []func()
}

type options struct {
	logger   zerolog.Logger
	nowFunc  func() time.Time
	registry *prometheus.Registry
	seed     *Seed
}

type Option func(*options)

func WithLogger(l zerolog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

func WithNowFunc(now func() time.Time) Option {
	return func(o *options) {
		o.nowFunc = now
	}
}

func WithRegistry(reg *prometheus.Registry) Option {
	return func(o *options) {
		o.registry = reg
	}
}

// WithSeed loads the given seed instead of the configured seed file.
func WithSeed(seed *Seed) Option {
	return func(o *options) {
		o.seed = seed
	}
}

// New builds the engine. Clients come from Postgres when a DSN is configured and from the
// seed otherwise; captchas and authorization codes live in Redis when an address is
// configured and in process memory otherwise.
func New(ctx context.Context, cfg config.Config, opts ...Option) (*Engine, error) {
	o := options{logger: log.Logger, nowFunc: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.registry == nil {
		o.registry = prometheus.NewRegistry()
	}
	e := &Engine{
		Registry:      o.registry,
		Tokens:        token.NewMemoryStore(),
		captchaLength: cfg.GetCaptchaLength(),
		captchaTTL:    cfg.GetCaptchaTTL(),
	}

	seed := o.seed
	if seed == nil && cfg.GetSeedFile() != "" {
		loaded, err := LoadSeed(cfg.GetSeedFile())
		if err != nil {
			return nil, err
		}
		seed = loaded
	}
	if seed == nil {
		seed = &Seed{}
	}

	memClients := fakeclientrepo.NewFakeClientSource()
	userRepo := fakeuserrepo.NewFakeUserRepo()
	tenantRepo := tenantrepofakes.NewFakeTenantRepo()
	if err := seed.apply(ctx, seedTargets{clients: memClients, users: userRepo, tenants: tenantRepo}); err != nil {
		return nil, err
	}
	e.Users, e.Tenants = userRepo, tenantRepo

	source, err := e.clientSource(ctx, cfg, memClients, o.logger)
	if err != nil {
		e.Close()
		return nil, err
	}
	e.Clients = clients.NewStore(source)

	captchas, codes := e.transientStores(cfg, o.nowFunc, o.logger)
	e.captchas = captchas
	e.Codes = code.NewIssuer(codes, code.WithValidity(cfg.GetAuthCodeTimeout()), code.WithNowFunc(o.nowFunc))

	signer, publicKey, err := newSigner(cfg, o.logger)
	if err != nil {
		e.Close()
		return nil, err
	}
	e.Signer = signer

	claimOpts := []enhance.ClaimsOption{enhance.WithEnricher(tenants.NewRepoEnricher(tenantRepo))}
	if license := cfg.GetLicense(); license != "" {
		claimOpts = append(claimOpts, enhance.WithLicense(license))
	}
	pipeline := enhance.NewPipeline(
		enhance.NewClaimsInjector(claimOpts...),
		enhance.NewJWTSigner(signer, cfg.GetIssuer(), cfg.GetAudience()),
	)

	metrics, err := granter.NewMetrics(o.registry)
	if err != nil {
		e.Close()
		return nil, errors.Wrap(err, "engine.New metrics")
	}

	validator := users.NewRepoValidator(userRepo)
	granterOpts := []granter.Option{
		granter.WithLogger(o.logger),
		granter.WithMetrics(metrics),
		granter.WithNowFunc(o.nowFunc),
		granter.WithReuseRefreshToken(cfg.GetReuseRefreshToken()),
		granter.WithTokenValidity(cfg.GetDefaultAccessTokenExpiry(), cfg.GetDefaultRefreshTokenExpiry()),
		granter.WithRefreshTokenLength(cfg.GetRefreshTokenLength()),
	}
	if cfg.GetReloadUserOnRefresh() {
		granterOpts = append(granterOpts, granter.WithUserLoader(validator))
	}
	e.Granter, err = granter.New(granter.Config{
		Clients:   e.Clients,
		Validator: validator,
		Codes:     codes,
		Captchas:  captchas,
		Tokens:    e.Tokens,
		Enhancer:  pipeline,
	}, granterOpts...)
	if err != nil {
		e.Close()
		return nil, errors.Wrap(err, "engine.New granter")
	}

	var verifier introspect.Verifier
	if publicKey != nil {
		verifier = introspect.NewOIDCVerifier(cfg.GetIssuer(), cfg.GetAudience(), o.nowFunc, publicKey)
	} else {
		verifier = introspect.NewSignerVerifier(signer, cfg.GetIssuer(), cfg.GetAudience(), o.nowFunc)
	}
	e.Introspector = introspect.New(verifier, e.Tokens, introspect.WithNowFunc(o.nowFunc), introspect.WithLogger(o.logger))
	return e, nil
}

// NewCaptcha creates a challenge for a captcha_password login.
func (e *Engine) NewCaptcha(ctx context.Context) (captcha.Challenge, error) {
	return captcha.NewChallenge(ctx, e.captchas, e.captchaLength, e.captchaTTL)
}

// Close releases database and cache connections.
func (e *Engine) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		e.closers[i]()
	}
	e.closers = nil
}

func (e *Engine) clientSource(ctx context.Context, cfg config.StoreConfig, seeded clients.Source, logger zerolog.Logger) (clients.Source, error) {
	dsn := cfg.GetPostgresDSN()
	if dsn == "" {
		logger.Info().Msg("clients: using seeded in-memory source")
		return seeded, nil
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "engine.clientSource pgxpool.New")
	}
	e.closers = append(e.closers, pool.Close)

	var opts []pgsource.Option
	if stmt := cfg.GetClientSelectStatement(); stmt != "" {
		opts = append(opts, pgsource.WithSelectStatement(stmt))
	}
	if stmt := cfg.GetClientFindStatement(); stmt != "" {
		opts = append(opts, pgsource.WithFindStatement(stmt))
	}
	logger.Info().Msg("clients: using postgres source")
	return pgsource.New(pool, opts...), nil
}

type captchaStore interface {
	captcha.Source
	captcha.Keeper
}

func (e *Engine) transientStores(cfg config.Config, now func() time.Time, logger zerolog.Logger) (captchaStore, code.Store) {
	addr := cfg.GetRedisAddr()
	if addr == "" {
		logger.Info().Msg("captchas and authorization codes: using in-memory stores")
		return captcha.NewMemorySource(time.Minute), code.NewMemoryStore(now)
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.GetRedisPassword(),
		DB:       cfg.GetRedisDB(),
	})
	e.closers = append(e.closers, func() { _ = client.Close() })
	logger.Info().Str("addr", addr).Msg("captchas and authorization codes: using redis")
	return captcha.NewRedisSource(client, cfg.GetCaptchaKeyPrefix()),
		code.NewRedisStore(client, cfg.GetCodeKeyPrefix(), now)
}

// newSigner returns the configured signer and, for RSA keys, the public key tokens
// are verified against.
func newSigner(cfg config.SigningConfig, logger zerolog.Logger) (keys.Signer, crypto.PublicKey, error) {
	keyID := cfg.GetSigningKeyID()
	switch strings.ToUpper(cfg.GetSigningAlgorithm()) {
	case keys.HS256:
		secret := cfg.GetHMACSecret()
		if secret == "" {
			return nil, nil, fmt.Errorf("[newSigner] %s needs signing.hmac_secret", keys.HS256)
		}
		return keys.NewHMACSigner(keyID, secret), nil, nil
	case keys.RS256, "":
		var kp *keys.KeyPair
		var err error
		if path := cfg.GetPrivateKeyFile(); path != "" {
			kp, err = keys.LoadKeyPairFromFile(keyID, path)
		} else {
			logger.Warn().Str("kid", keyID).Msg("no signing key configured, generating an ephemeral RSA key")
			kp, err = keys.GenerateRSAKeyPair(keyID, cfg.GetRSAKeyBits())
		}
		if err != nil {
			return nil, nil, errors.Wrap(err, "newSigner")
		}
		signer := keys.NewKeyPairSigner(kp)
		return signer, signer.PublicKey(), nil
	default:
		return nil, nil, fmt.Errorf("[newSigner] unsupported signing algorithm %q", cfg.GetSigningAlgorithm())
	}
}
