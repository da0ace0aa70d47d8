package storage

const schema = `
-- The 'app_state' table stores the whole application state as one JSON blob per key.
CREATE TABLE IF NOT EXISTS app_state (
    key TEXT PRIMARY KEY,
    value BLOB NOT NULL,
    updated_at DATETIME NOT NULL
);

-- The 'assets' table stores binary payloads (images, document files) keyed
-- independently of the tree so they can be fetched on demand.
CREATE TABLE IF NOT EXISTS assets (
    id TEXT PRIMARY KEY,
    data BLOB NOT NULL,
    created_at DATETIME NOT NULL
);
`
