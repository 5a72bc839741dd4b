package repository

// Schema returns the idempotent DDL for every table the scanner touches.
// Bars and candidates dedupe through ReplacingMergeTree keyed on their
// natural identity, which is what makes re-scanning after a resume safe.
func Schema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS bars_daily (
			ticker     String,
			date       Date,
			open       Float64,
			high       Float64,
			low        Float64,
			close      Float64,
			volume     Int64,
			source     LowCardinality(String),
			updated_at DateTime DEFAULT now()
		) ENGINE = ReplacingMergeTree(updated_at)
		ORDER BY (ticker, date)`,

		`CREATE TABLE IF NOT EXISTS universe (
			ticker     String,
			code       String,
			name       String,
			market     LowCardinality(String),
			active     UInt8 DEFAULT 1,
			updated_at DateTime DEFAULT now()
		) ENGINE = ReplacingMergeTree(updated_at)
		ORDER BY ticker`,

		`CREATE TABLE IF NOT EXISTS scan_runs (
			run_id          String,
			started_at      DateTime,
			finished_at     DateTime,
			universe_size   Int32,
			segments_done   Int32,
			segments_total  Int32,
			scanned         Int64,
			failed          Int64,
			candidate_count Int64,
			status          LowCardinality(String),
			notes           String
		) ENGINE = MergeTree
		ORDER BY started_at`,

		`CREATE TABLE IF NOT EXISTS scan_candidates (
			run_id          String,
			ticker          String,
			code            String,
			name            String,
			market          LowCardinality(String),
			score           Float64,
			close           Float64,
			reasons_json    String,
			indicators_json String,
			created_at      DateTime DEFAULT now()
		) ENGINE = ReplacingMergeTree(created_at)
		ORDER BY (run_id, ticker)`,
	}
}
