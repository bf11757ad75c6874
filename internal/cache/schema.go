package cache

// SQL schemas for cache tables
// All cache tables use "cache_key" as the primary key column for consistency

// TableOpenLibrary caches raw OpenLibrary responses keyed by request URL.
const TableOpenLibrary = "openlibrary_cache"

// OpenLibraryCacheSchema defines the schema for OpenLibrary response cache
const OpenLibraryCacheSchema = `
CREATE TABLE IF NOT EXISTS openlibrary_cache (
	cache_key TEXT PRIMARY KEY NOT NULL,
	data TEXT NOT NULL,
	cached_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_openlibrary_cached_at ON openlibrary_cache(cached_at);
`

// AllCacheSchemas contains all cache table schemas for easy initialization
var AllCacheSchemas = []string{
	OpenLibraryCacheSchema,
}

// ValidCacheTableNames is the whitelist of allowed cache table names
// Used to prevent SQL injection when interpolating table names
var ValidCacheTableNames = map[string]bool{
	TableOpenLibrary: true,
}

// sourceTables maps the names accepted on the command line to tables.
var sourceTables = map[string]string{
	"openlibrary": TableOpenLibrary,
}
