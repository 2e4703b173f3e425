package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"bank-personalization/internal/domain"
)

// ComputeRecommendationID computes a deterministic recommendation_id using SHA256.
// Formula: SHA256(client_code|product_code|window_start|window_end)
// Returns hex-encoded hash (64 characters).
func ComputeRecommendationID(clientCode int64, product domain.ProductCode, window domain.Window) string {
	data := fmt.Sprintf("%d|%s|%s|%s",
		clientCode,
		string(product),
		window.Start.UTC().Format(time.RFC3339),
		window.End.UTC().Format(time.RFC3339),
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
