// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package sequence derives the next human-readable identifier in a family
// of sibling records from the latest sibling's display name.
//
// Two strategies coexist and are deliberately not unified. The count-based
// families (claims, payments, transactions, recoveries) synthesize the new
// number from the count of existing siblings, so gaps left by deletions are
// reused. Commission codes instead parse the previous number out of the
// latest name and increment it by one, so gaps survive. The divergence is
// carried over as-is; whether it is intentional is an open product question.
package sequence

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const firstSuffix = "-001"

// First synthesizes the first name of a family from its root identifier,
// with the fixed three-digit suffix.
func First(root string) string {
	return root + firstSuffix
}

// Next derives the next name from the most recent sibling's name and the
// count of existing siblings. The substring after the final separator is
// the old suffix; its length fixes the zero-pad width of the new number,
// which is existingCount+1 regardless of what the old suffix parsed to.
func Next(latest string, existingCount int) (string, error) {
	sep := strings.LastIndex(latest, "-")
	if sep < 0 || sep == len(latest)-1 {
		return "", fmt.Errorf("name %q has no numeric suffix", latest)
	}
	oldSuffix := latest[sep+1:]
	if _, err := strconv.Atoi(oldSuffix); err != nil {
		return "", fmt.Errorf("name %q has no numeric suffix", latest)
	}
	pad := len(oldSuffix)
	return fmt.Sprintf("%s-%0*d", latest[:sep], pad, existingCount+1), nil
}

// Family names a dependent record family below a claim. The marker letter
// replaces the claim marker in the parent name when the family's first
// record is created.
type Family struct {
	Marker string
}

var (
	Payments     = Family{Marker: "P"}
	Transactions = Family{Marker: "T"}
	Recoveries   = Family{Marker: "R"}
)

// claimMarker is the letter substituted per family in the parent claim name.
const claimMarker = "L"

// NextName derives the next record name of the family under the given
// claim. With no existing siblings the name is synthesized from the claim
// name with the family marker substituted; otherwise the latest sibling's
// name drives the count-based suffix.
func (f Family) NextName(claimName, latestSibling string, existingCount int) (string, error) {
	if existingCount == 0 {
		return First(strings.Replace(claimName, claimMarker, f.Marker, 1)), nil
	}
	return Next(latestSibling, existingCount)
}

// commissionSuffix matches the explicit two-digit code at the end of a
// commission name.
var commissionSuffix = regexp.MustCompile(`(\d{2})$`)

// NextCommission parses the two-digit suffix of the latest commission name
// and increments it by exactly one. A name without the pattern counts as 0.
// Unlike the count-based families this is a true increment.
func NextCommission(latest string) int {
	m := commissionSuffix.FindStringSubmatch(latest)
	if m == nil {
		return 1
	}
	n, _ := strconv.Atoi(m[1])
	return n + 1
}
