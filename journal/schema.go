package journal

const Schema = `
CREATE TABLE IF NOT EXISTS submissions (
	attempt_id TEXT PRIMARY KEY,
	item TEXT NOT NULL,
	price TEXT NOT NULL,
	block_time INTEGER NOT NULL,
	state TEXT NOT NULL,
	tx_id TEXT NOT NULL,
	reason TEXT NOT NULL,
	submitted_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_submissions_submitted_at ON submissions(submitted_at);
`
