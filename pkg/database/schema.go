package database

// schemaStatements bootstraps the persistent state. Uniqueness that the
// lifecycle service depends on lives here: concurrent restores racing
// on the same phone or email are resolved by these indexes, not by
// application locking.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'user',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS members (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		phone TEXT NOT NULL,
		email TEXT,
		sex TEXT NOT NULL DEFAULT 'Male',
		duration TEXT NOT NULL DEFAULT '1 Month',
		amount_paid NUMERIC(12,2) NOT NULL DEFAULT 0,
		due NUMERIC(12,2) NOT NULL DEFAULT 0,
		avatar TEXT,
		expiry_date TIMESTAMPTZ NOT NULL,
		created_by UUID REFERENCES users(id) ON DELETE SET NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE UNIQUE INDEX IF NOT EXISTS members_phone_key ON members (phone)`,

	`CREATE UNIQUE INDEX IF NOT EXISTS members_email_key ON members (email) WHERE email IS NOT NULL`,

	`CREATE TABLE IF NOT EXISTS member_history (
		id UUID PRIMARY KEY,
		member_id UUID NOT NULL,
		action TEXT NOT NULL,
		snapshot JSONB NOT NULL,
		performed_by UUID REFERENCES users(id) ON DELETE SET NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE INDEX IF NOT EXISTS member_history_created_at_idx ON member_history (created_at DESC)`,

	`CREATE TABLE IF NOT EXISTS fee_plans (
		id UUID PRIMARY KEY,
		plan_name TEXT NOT NULL UNIQUE,
		amount NUMERIC(12,2) NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		offer TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}
