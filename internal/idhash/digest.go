package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"sort"
	"strings"

	"bank-personalization/internal/domain"
)

// ComputeResultsDigest hashes the canonical text form of one client's results.
// Two runs over identical input produce identical digests.
// Slices are expected in their canonical order (signals by product/type,
// estimates by product code order, recommendations by rank).
func ComputeResultsDigest(r domain.ClientResults) string {
	h := sha256.New()
	fmt.Fprintf(h, "client|%d|%s\n", r.ClientCode, r.Window)
	for _, s := range r.Signals {
		fmt.Fprintf(h, "signal|%s|%s|%s|%s|%s\n", s.Product, s.Type, s.Value.String(), s.Threshold.String(), s.Strength)
	}
	for _, e := range r.Estimates {
		fmt.Fprintf(h, "estimate|%s|%s|%s|%s|%s\n", e.Product, e.Benefit.String(), e.Confidence.String(), e.BenefitType, strings.Join(e.Breakdown.Flags, ","))
		writeTerms(h, e.Breakdown.Terms)
	}
	for _, rec := range r.Recommendations {
		fmt.Fprintf(h, "rec|%d|%s|%s|%s|%s\n", rec.Rank, rec.Product, rec.Benefit.String(), rec.Confidence.String(), rec.Reason)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func writeTerms(w io.Writer, terms []domain.BenefitTerm) {
	for _, t := range terms {
		fmt.Fprintf(w, "term|%s|%s|%s|%s\n", t.Name, t.Amount.String(), t.Rate.String(), t.Base.String())
	}
}

// CombineDigests folds per-client digests into one run digest, ordered by client code.
func CombineDigests(perClient map[int64]string) string {
	codes := make([]int64, 0, len(perClient))
	for code := range perClient {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })

	h := sha256.New()
	for _, code := range codes {
		fmt.Fprintf(h, "%d|%s\n", code, perClient[code])
	}
	return hex.EncodeToString(h.Sum(nil))
}
