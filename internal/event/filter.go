package event

import (
	"strings"

	"github.com/tidwall/match"
)

// Common filter predicates for event subscription.

// FilterBySource allows only events from source.
func FilterBySource(source string) FilterFunc {
	return func(evt Event) bool {
		return evt.Metadata.Source == source
	}
}

// FilterBySourcePrefix allows only events whose source starts with prefix.
func FilterBySourcePrefix(prefix string) FilterFunc {
	return func(evt Event) bool {
		return evt.Metadata.Source != "" && strings.HasPrefix(evt.Metadata.Source, prefix)
	}
}

// FilterBySources allows only events from one of sources.
func FilterBySources(sources ...string) FilterFunc {
	set := make(map[string]bool, len(sources))
	for _, s := range sources {
		set[s] = true
	}
	return func(evt Event) bool {
		return set[evt.Metadata.Source]
	}
}

// FilterExcludeSource drops events from source.
func FilterExcludeSource(source string) FilterFunc {
	return func(evt Event) bool {
		return evt.Metadata.Source != source
	}
}

// FilterByType allows only events whose type matches pattern.
// Useful to narrow a wildcard subscription.
func FilterByType(pattern string) FilterFunc {
	return func(evt Event) bool {
		return match.Match(string(evt.Type), pattern)
	}
}

// FilterExcludeType drops events whose type matches pattern.
func FilterExcludeType(pattern string) FilterFunc {
	return func(evt Event) bool {
		return !match.Match(string(evt.Type), pattern)
	}
}

// FilterPayload applies predicate to payloads of type T.
// Events carrying any other payload type are dropped.
func FilterPayload[T any](predicate func(payload T) bool) FilterFunc {
	return func(evt Event) bool {
		if payload, ok := evt.Payload.(T); ok {
			return predicate(payload)
		}
		return false
	}
}

// FilterAnd combines multiple filters with AND logic.
// All filters must pass for the event to be delivered.
func FilterAnd(filters ...FilterFunc) FilterFunc {
	return func(evt Event) bool {
		for _, f := range filters {
			if !f(evt) {
				return false
			}
		}
		return true
	}
}

// FilterOr combines multiple filters with OR logic.
// At least one filter must pass for the event to be delivered.
func FilterOr(filters ...FilterFunc) FilterFunc {
	return func(evt Event) bool {
		for _, f := range filters {
			if f(evt) {
				return true
			}
		}
		return false
	}
}

// FilterNot negates a filter.
func FilterNot(filter FilterFunc) FilterFunc {
	return func(evt Event) bool {
		return !filter(evt)
	}
}
