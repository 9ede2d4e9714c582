package search

import (
	"strconv"
	"strings"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Query holds the parameters of a message search.
// It decouples the raw user input from what the index needs.
type Query struct {
	RawInput string // The original input
	Terms    string // The text matched against message bodies
	PeerID   string // Restricts the search to one conversation when set
	Limit    int
}

// ParseQuery reads command-line style arguments out of raw input.
// Example: /find "invoice" --peer 42 --limit 5
func ParseQuery(input string) Query {
	query := Query{RawInput: input, Limit: DefaultLimit}

	parts := strings.Fields(input)
	var textTerms []string

	for i := 0; i < len(parts); i++ {
		part := parts[i]

		// Flags like --peer 42 or --limit 5
		if strings.HasPrefix(part, "--") && i+1 < len(parts) {
			val := parts[i+1]
			switch strings.TrimPrefix(part, "--") {
			case "peer":
				query.PeerID = val
			case "limit":
				if n, err := strconv.Atoi(val); err == nil {
					query.Limit = n
				}
			}
			i++ // Skip the value part in next iteration
			continue
		}

		// Commands like /find are not terms
		if !strings.HasPrefix(part, "/") {
			textTerms = append(textTerms, strings.Trim(part, `"`))
		}
	}

	query.Terms = strings.Join(textTerms, " ")
	query.Limit = ClampLimit(query.Limit)
	return query
}

// ClampLimit keeps a requested page size within [1, MaxLimit], zero meaning default.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}
