package store

// SchemaSQL contains the database schema initialization SQL.
const SchemaSQL = `
    -- ==========================================================================
    -- BLUEPRINT TABLE
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS blueprint SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS name ON blueprint TYPE string;
    DEFINE FIELD IF NOT EXISTS version ON blueprint TYPE string DEFAULT "1.0";
    DEFINE FIELD IF NOT EXISTS definition ON blueprint TYPE object FLEXIBLE;
    DEFINE FIELD IF NOT EXISTS created ON blueprint TYPE datetime DEFAULT time::now();
    DEFINE FIELD IF NOT EXISTS updated ON blueprint TYPE datetime DEFAULT time::now();

    -- ==========================================================================
    -- PROJECT TABLE
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS project SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS name ON project TYPE string;
    DEFINE FIELD IF NOT EXISTS blueprint ON project TYPE string;
    DEFINE FIELD IF NOT EXISTS nodes ON project TYPE array<object>;
    REMOVE FIELD IF EXISTS nodes.* ON project;
    DEFINE FIELD nodes.* ON project TYPE object FLEXIBLE;
    DEFINE FIELD IF NOT EXISTS blocking ON project TYPE array<object>;
    REMOVE FIELD IF EXISTS blocking.* ON project;
    DEFINE FIELD blocking.* ON project TYPE object FLEXIBLE;
    DEFINE FIELD IF NOT EXISTS saved ON project TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS project_name ON project FIELDS name UNIQUE;
    DEFINE INDEX IF NOT EXISTS project_blueprint ON project FIELDS blueprint;
`
