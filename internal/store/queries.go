package store

// SQL query constants. PostgreSQL queries use pgx named arguments and
// SQLite queries use positional placeholders.

// PostgreSQL credential queries.
const (
	queryUpsertCredentials = `
		INSERT INTO meli_credentials (
			client_id, user_id, access_token, refresh_token,
			token_type, scope, expires_at, updated_at
		) VALUES (
			@client_id, @user_id, @access_token, @refresh_token,
			@token_type, @scope, @expires_at, now()
		)
		ON CONFLICT (client_id) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			token_type = EXCLUDED.token_type,
			scope = EXCLUDED.scope,
			expires_at = EXCLUDED.expires_at,
			updated_at = now()`

	queryGetCredentials = `
		SELECT user_id, access_token, refresh_token, token_type, scope, expires_at
		FROM meli_credentials
		WHERE client_id = $1`

	queryDeleteCredentials = `DELETE FROM meli_credentials WHERE client_id = $1`
)

// SQLite credential queries.
const (
	sqliteUpsertCredentials = `
		INSERT INTO meli_credentials (
			client_id, user_id, access_token, refresh_token,
			token_type, scope, expires_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (client_id) DO UPDATE SET
			user_id = excluded.user_id,
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			token_type = excluded.token_type,
			scope = excluded.scope,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at`

	sqliteGetCredentials = `
		SELECT user_id, access_token, refresh_token, token_type, scope, expires_at
		FROM meli_credentials
		WHERE client_id = ?`

	sqliteDeleteCredentials = `DELETE FROM meli_credentials WHERE client_id = ?`
)
