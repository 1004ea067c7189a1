// ABOUTME: Database schema definitions and migrations
// ABOUTME: Handles SQLite table creation and initialization
package db

import (
	"github.com/jmoiron/sqlx"
)

const schema = `
CREATE TABLE IF NOT EXISTS contacts (
	id TEXT PRIMARY KEY,
	first_name TEXT NOT NULL DEFAULT '',
	last_name TEXT NOT NULL DEFAULT '',
	company TEXT NOT NULL DEFAULT '',
	title TEXT NOT NULL DEFAULT '',
	email TEXT NOT NULL DEFAULT '',
	phone TEXT NOT NULL DEFAULT '',
	linkedin TEXT NOT NULL DEFAULT '',
	website TEXT NOT NULL DEFAULT '',
	address TEXT NOT NULL DEFAULT '',
	category TEXT NOT NULL DEFAULT 'prospect',
	status TEXT NOT NULL DEFAULT 'New',
	notes TEXT NOT NULL DEFAULT '',
	tags TEXT NOT NULL DEFAULT '[]',
	score INTEGER,
	score_reason TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_contacts_email ON contacts(email);
CREATE INDEX IF NOT EXISTS idx_contacts_category ON contacts(category);

CREATE TABLE IF NOT EXISTS campaigns (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	subject TEXT NOT NULL DEFAULT '',
	template TEXT NOT NULL DEFAULT '',
	goal TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'Draft',
	target_contact_ids TEXT NOT NULL DEFAULT '[]',
	sent INTEGER NOT NULL DEFAULT 0,
	outcomes TEXT NOT NULL DEFAULT '{}',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS deals (
	id TEXT PRIMARY KEY,
	contact_id TEXT,
	title TEXT NOT NULL,
	value REAL NOT NULL DEFAULT 0,
	stage TEXT NOT NULL,
	probability INTEGER NOT NULL DEFAULT 0,
	expected_close_date DATETIME,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_deals_stage ON deals(stage);

CREATE TABLE IF NOT EXISTS events (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	start_time DATETIME NOT NULL,
	end_time DATETIME NOT NULL,
	reminder_minutes INTEGER NOT NULL DEFAULT 15,
	contact_id TEXT,
	is_completed BOOLEAN NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_events_start_time ON events(start_time);

CREATE TABLE IF NOT EXISTS emails (
	id TEXT PRIMARY KEY,
	campaign_id TEXT NOT NULL,
	contact_id TEXT NOT NULL,
	recipient TEXT NOT NULL,
	subject TEXT NOT NULL DEFAULT '',
	tracking_id TEXT NOT NULL UNIQUE,
	status TEXT NOT NULL CHECK(status IN ('sent', 'opened', 'failed')),
	error TEXT NOT NULL DEFAULT '',
	sent_at DATETIME NOT NULL,
	opened_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_emails_campaign ON emails(campaign_id);
`

func InitSchema(db *sqlx.DB) error {
	_, err := db.Exec(schema)
	return err
}
