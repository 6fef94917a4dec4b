// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package suggest ranks likely intended field names for a misconfigured
// template reference. Suggestions only feed error messages; nothing is ever
// auto-corrected.
package suggest

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

const (
	maxDistance    = 3
	maxSuggestions = 5
)

// Suggest returns up to five candidates within case-insensitive edit
// distance 3 of name, most similar first. Ties keep input order.
func Suggest(name string, candidates []string) []string {
	lower := strings.ToLower(name)

	type scored struct {
		name string
		dist int
	}
	var kept []scored
	for _, c := range candidates {
		d := levenshtein.ComputeDistance(lower, strings.ToLower(c))
		if d <= maxDistance {
			kept = append(kept, scored{name: c, dist: d})
		}
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].dist < kept[j].dist })

	if len(kept) > maxSuggestions {
		kept = kept[:maxSuggestions]
	}
	out := make([]string, len(kept))
	for i, s := range kept {
		out[i] = s.name
	}
	return out
}

// Distance exposes the case-insensitive edit distance used for ranking.
func Distance(a, b string) int {
	return levenshtein.ComputeDistance(strings.ToLower(a), strings.ToLower(b))
}
