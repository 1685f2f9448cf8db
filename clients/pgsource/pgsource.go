// Package pgsource reads OAuth2 client rows from PostgreSQL through pgx.
package pgsource

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jrsteele09/go-token-engine/clients"
)

const baseColumns = `client_id, %s AS client_secret, resource_ids, scope, authorized_grant_types,
	web_server_redirect_uri, authorities, access_token_validity, refresh_token_validity,
	additional_information, autoapprove
FROM blade_client`

var (
	// DefaultSelectStatement loads the full record, secret included, for authentication.
	DefaultSelectStatement = "SELECT " + fmt.Sprintf(baseColumns, "client_secret") + " WHERE client_id = $1 AND is_deleted = 0"

	// DefaultFindStatement loads the record for detail checks and never returns the secret.
	DefaultFindStatement = "SELECT " + fmt.Sprintf(baseColumns, "''") + " WHERE client_id = $1 AND is_deleted = 0"
)

// Querier is the part of *pgxpool.Pool (or pgx.Conn) the source needs.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var _ clients.Source = (*Source)(nil)

// Source runs two independently configurable statements, each taking the client id as $1.
type Source struct {
	db              Querier
	selectStatement string
	findStatement   string
}

type Option func(*Source)

// WithSelectStatement overrides the statement used to load a client for authentication.
func WithSelectStatement(sql string) Option {
	return func(s *Source) {
		s.selectStatement = sql
	}
}

// WithFindStatement overrides the statement used for existence and detail checks.
func WithFindStatement(sql string) Option {
	return func(s *Source) {
		s.findStatement = sql
	}
}

func New(db Querier, opts ...Option) *Source {
	s := &Source{
		db:              db,
		selectStatement: DefaultSelectStatement,
		findStatement:   DefaultFindStatement,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Source) Select(ctx context.Context, clientID string) (*clients.Row, error) {
	return s.queryRow(ctx, s.selectStatement, clientID)
}

func (s *Source) Find(ctx context.Context, clientID string) (*clients.Row, error) {
	return s.queryRow(ctx, s.findStatement, clientID)
}

func (s *Source) queryRow(ctx context.Context, sql, clientID string) (*clients.Row, error) {
	row := &clients.Row{}
	err := s.db.QueryRow(ctx, sql, clientID).Scan(
		&row.ClientID,
		&row.ClientSecret,
		&row.ResourceIDs,
		&row.Scope,
		&row.AuthorizedGrantTypes,
		&row.WebServerRedirectURI,
		&row.Authorities,
		&row.AccessTokenValidity,
		&row.RefreshTokenValidity,
		&row.AdditionalInformation,
		&row.AutoApprove,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, clients.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query client %s: %w", clientID, err)
	}
	return row, nil
}
