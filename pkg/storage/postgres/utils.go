package postgres

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var collectionNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// validateCollection rejects collection names that cannot be used as SQL
// identifiers. Collection names are interpolated into statements, so
// anything beyond [A-Za-z0-9_] is refused.
func validateCollection(name string) error {
	if !collectionNameRe.MatchString(name) {
		return fmt.Errorf("postgres: invalid collection name %q", name)
	}
	return nil
}

// vectorToString formats an embedding in pgvector's literal syntax:
// "[0.1,0.2,0.3]".
func vectorToString(embedding []float64) string {
	parts := make([]string, len(embedding))
	for i, v := range embedding {
		parts[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return "[" + strings.Join(parts, ",") + "]"
}
