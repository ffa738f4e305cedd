package store

const schema = `
CREATE TABLE IF NOT EXISTS eq_well_association (
    quake_id   INTEGER NOT NULL,
    stage_id   INTEGER NOT NULL DEFAULT 0,
    well_id    TEXT    NOT NULL,
    pad_id     TEXT    NOT NULL DEFAULT '',
    type       TEXT    NOT NULL CHECK(type IN ('HF','WD','PROD')),
    d_km       REAL    NOT NULL,
    dt_days    REAL    NOT NULL,
    score      REAL    NOT NULL,
    p_stage    REAL    NOT NULL,
    region     TEXT    NOT NULL,
    resolution TEXT    NOT NULL CHECK(resolution IN ('stage','present'))
);

CREATE INDEX IF NOT EXISTS idx_assoc_quake ON eq_well_association(quake_id);
CREATE INDEX IF NOT EXISTS idx_assoc_well ON eq_well_association(well_id);
CREATE INDEX IF NOT EXISTS idx_assoc_resolution ON eq_well_association(resolution, well_id);

CREATE TABLE IF NOT EXISTS eq_well_association_classified (
    quake_id        INTEGER PRIMARY KEY,
    best_stage      INTEGER NOT NULL DEFAULT 0,
    best_stage_prob REAL    NOT NULL,
    best_well       TEXT    NOT NULL,
    best_well_type  TEXT    NOT NULL,
    best_well_prob  REAL    NOT NULL,
    best_pad        TEXT    NOT NULL DEFAULT '',
    best_pad_prob   REAL    NOT NULL,
    best_d_km       REAL    NOT NULL,
    best_dt_days    REAL    NOT NULL,
    n_hf_wells      INTEGER NOT NULL DEFAULT 0,
    n_wd_wells      INTEGER NOT NULL DEFAULT 0,
    n_prod_wells    INTEGER NOT NULL DEFAULT 0,
    n_pad_wells     INTEGER NOT NULL DEFAULT 0
);
`
