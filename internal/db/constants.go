package db

// timeLayout is how timestamps are stored: UTC, sortable, and understood by
// SQLite's date functions.
const timeLayout = "2006-01-02 15:04:05"

// maxSnapshotsPerPeriod bounds the snapshot history kept for each period.
const maxSnapshotsPerPeriod = 2000
