package schema

import "errors"

var (
	// ErrInvalidSchema is returned for a malformed column type tag, unknown
	// column name, or contradictory flags, at schema-compile time
	// (spec.md §7: fatal for the table open).
	ErrInvalidSchema = errors.New("schema: invalid schema")

	// ErrRowParse is returned when a row does not match the schema it is
	// parsed against: bad length prefix, wrong column count in delimited
	// text, or an embedded NUL in a StrZero column.
	ErrRowParse = errors.New("schema: row does not match schema")

	// ErrColumnCountMismatch is returned by CombineRow when the supplied
	// column count does not match the schema.
	ErrColumnCountMismatch = errors.New("schema: column count mismatch")

	// ErrNotCompiled is returned when an operation that requires a
	// compiled schema is invoked before Compile.
	ErrNotCompiled = errors.New("schema: schema not compiled")
)
