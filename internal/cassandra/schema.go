package cassandra

import "fmt"

// Table and column names are fixed by spec §4.2/§6; they are not
// configurable per namespace.
const (
	streamTable     = "stream"
	streamListTable = "stream_list"
	streamListKey   = "streams"
)

func createKeyspaceCQL(keyspace string, replicationFactor int) string {
	return fmt.Sprintf(
		`CREATE KEYSPACE IF NOT EXISTS %s WITH replication = {'class': 'SimpleStrategy', 'replication_factor': %d}`,
		keyspace, replicationFactor,
	)
}

func createStreamTableCQL() string {
	return fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS %s (
			stream_name text,
			bucket_start_time bigint,
			shard int,
			id timeuuid,
			blob text,
			PRIMARY KEY ((stream_name, bucket_start_time, shard), id)
		) WITH CLUSTERING ORDER BY (id ASC)`,
		streamTable,
	)
}

func createStreamListTableCQL() string {
	return fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS %s (
			key text PRIMARY KEY,
			streams set<text>
		)`,
		streamListTable,
	)
}

const (
	upsertEventCQL = `INSERT INTO ` + streamTable + ` (stream_name, bucket_start_time, shard, id, blob) VALUES (?, ?, ?, ?, ?)`

	selectRangeAscCQL = `SELECT id, blob FROM ` + streamTable + `
		WHERE stream_name = ? AND bucket_start_time = ? AND shard = ? AND id >= ? AND id <= ?
		ORDER BY id ASC`

	selectRangeDescCQL = `SELECT id, blob FROM ` + streamTable + `
		WHERE stream_name = ? AND bucket_start_time = ? AND shard = ? AND id >= ? AND id <= ?
		ORDER BY id DESC`

	deleteRangeCQL = `DELETE FROM ` + streamTable + `
		WHERE stream_name = ? AND bucket_start_time = ? AND shard = ? AND id >= ? AND id <= ?`

	addStreamNameCQL = `UPDATE ` + streamListTable + ` SET streams = streams + ? WHERE key = ?`

	selectStreamListCQL = `SELECT streams FROM ` + streamListTable + ` WHERE key = ?`
)
