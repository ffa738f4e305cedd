package catalog

// Origin table names. The relocated 3-D catalog is precise enough for
// stage-level interpretation; the coarse catalog is not.
const (
	TableOrigin3D = "master_origin_3d"
	TableOrigin   = "master_origin"
)

// Timestamps are stored as RFC 3339 text; date-only fields carry midnight
// UTC with the date_only flag set where the distinction matters.
const schema = `
CREATE TABLE IF NOT EXISTS master_origin_3d (
	quake_id    INTEGER PRIMARY KEY,
	lat         REAL NOT NULL,
	lon         REAL NOT NULL,
	depth_km    REAL NOT NULL,
	magnitude   REAL NOT NULL,
	origin_time TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS master_origin (
	quake_id    INTEGER PRIMARY KEY,
	lat         REAL NOT NULL,
	lon         REAL NOT NULL,
	depth_km    REAL NOT NULL,
	magnitude   REAL NOT NULL,
	origin_time TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS hf_stages (
	stage_id   INTEGER PRIMARY KEY,
	well_id    TEXT NOT NULL,
	pad_id     TEXT NOT NULL,
	formation  TEXT NOT NULL DEFAULT '',
	lat        REAL NOT NULL,
	lon        REAL NOT NULL,
	started_at TEXT NOT NULL,
	date_only  INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_hf_stages_well ON hf_stages (well_id);

CREATE TABLE IF NOT EXISTS hf_present (
	well_id        TEXT NOT NULL,
	pad_id         TEXT NOT NULL,
	formation      TEXT NOT NULL DEFAULT '',
	seq            INTEGER NOT NULL,
	lat            REAL NOT NULL,
	lon            REAL NOT NULL,
	expected_start TEXT NOT NULL,
	expected_end   TEXT NOT NULL,
	PRIMARY KEY (well_id, seq)
);

CREATE TABLE IF NOT EXISTS wd_monthly (
	well_id    TEXT NOT NULL,
	pad_id     TEXT NOT NULL,
	lat        REAL NOT NULL,
	lon        REAL NOT NULL,
	year_month TEXT NOT NULL,
	PRIMARY KEY (well_id, year_month)
);

CREATE TABLE IF NOT EXISTS prod_status (
	well_id    TEXT PRIMARY KEY,
	pad_id     TEXT NOT NULL,
	lat        REAL NOT NULL,
	lon        REAL NOT NULL,
	status_eff TEXT NOT NULL,
	mode_code  TEXT NOT NULL,
	ops_type   TEXT NOT NULL
);
`
