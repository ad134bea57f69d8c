package migrate

import "embed"

// Files carries the SQL migrations so tests can build the same schema
// without depending on the working directory.
//
//go:embed migrations/*.sql
var Files embed.FS
