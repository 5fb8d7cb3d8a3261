package store

const Schema = `
CREATE TABLE IF NOT EXISTS leagues (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS competitors (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS competitor_leagues (
	competitor_id TEXT NOT NULL REFERENCES competitors(id),
	league_id INTEGER NOT NULL REFERENCES leagues(id),
	PRIMARY KEY (competitor_id, league_id)
);

CREATE TABLE IF NOT EXISTS rounds (
	id TEXT PRIMARY KEY,
	league_id INTEGER NOT NULL REFERENCES leagues(id),
	name TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	playlist_url TEXT NOT NULL DEFAULT '',
	created DATETIME
);

CREATE INDEX IF NOT EXISTS idx_rounds_league ON rounds(league_id);

CREATE TABLE IF NOT EXISTS submissions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	round_id TEXT NOT NULL REFERENCES rounds(id),
	league_id INTEGER NOT NULL,
	submitter_id TEXT NOT NULL,
	spotify_uri TEXT NOT NULL,
	title TEXT NOT NULL DEFAULT '',
	artists TEXT NOT NULL DEFAULT '[]',  -- JSON array of names
	album TEXT NOT NULL DEFAULT '',
	comment TEXT NOT NULL DEFAULT '',
	created DATETIME
);

CREATE INDEX IF NOT EXISTS idx_submissions_round ON submissions(round_id);
CREATE INDEX IF NOT EXISTS idx_submissions_league ON submissions(league_id);
CREATE INDEX IF NOT EXISTS idx_submissions_uri ON submissions(spotify_uri);

CREATE TABLE IF NOT EXISTS votes (
	id TEXT PRIMARY KEY,
	round_id TEXT NOT NULL REFERENCES rounds(id),
	league_id INTEGER NOT NULL,
	voter_id TEXT NOT NULL,
	spotify_uri TEXT NOT NULL,
	points INTEGER NOT NULL CHECK (points >= 0),
	comment TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_votes_round ON votes(round_id);
CREATE INDEX IF NOT EXISTS idx_votes_league ON votes(league_id);
CREATE INDEX IF NOT EXISTS idx_votes_uri ON votes(spotify_uri);

CREATE TABLE IF NOT EXISTS track_metadata (
	spotify_uri TEXT PRIMARY KEY,
	name TEXT NOT NULL DEFAULT '',
	artists TEXT NOT NULL DEFAULT '[]',  -- JSON array of {name,id,uri}
	album TEXT NOT NULL DEFAULT '',
	album_id TEXT NOT NULL DEFAULT '',
	release_date TEXT NOT NULL DEFAULT '',
	duration_ms INTEGER NOT NULL DEFAULT 0,
	explicit BOOLEAN NOT NULL DEFAULT 0,
	popularity INTEGER NOT NULL DEFAULT 0,
	preview_url TEXT NOT NULL DEFAULT '',
	spotify_url TEXT NOT NULL DEFAULT '',

	-- Audio features, NULL until the extended fetch runs
	energy REAL,
	danceability REAL,
	valence REAL,
	acousticness REAL,
	instrumentalness REAL,
	liveness REAL,
	speechiness REAL,
	tempo REAL,
	key_value INTEGER,
	mode INTEGER,
	time_signature INTEGER,
	loudness REAL,

	-- Derived genre fields
	genre TEXT,
	all_genres TEXT NOT NULL DEFAULT '[]',

	fetched_at DATETIME,
	updated_at DATETIME
);

CREATE TABLE IF NOT EXISTS artist_metadata (
	artist_id TEXT PRIMARY KEY,
	artist_uri TEXT NOT NULL DEFAULT '',
	name TEXT NOT NULL DEFAULT '',
	genres TEXT NOT NULL DEFAULT '[]',
	popularity INTEGER NOT NULL DEFAULT 0,
	followers INTEGER NOT NULL DEFAULT 0,
	images TEXT NOT NULL DEFAULT '[]',
	spotify_url TEXT NOT NULL DEFAULT '',
	fetched_at DATETIME,
	updated_at DATETIME
);

CREATE TABLE IF NOT EXISTS genres (
	name TEXT PRIMARY KEY,
	artist_count INTEGER NOT NULL DEFAULT 0,
	updated_at DATETIME
);

CREATE TABLE IF NOT EXISTS songs (
	metadata_uri TEXT PRIMARY KEY,
	name TEXT NOT NULL DEFAULT '',
	artists TEXT NOT NULL DEFAULT '[]',
	genres TEXT NOT NULL DEFAULT '[]',
	submission_count INTEGER NOT NULL DEFAULT 0,
	updated_at DATETIME
);
`
