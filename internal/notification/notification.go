// Package notification turns a ranked recommendation into a short push text
// in Russian. Texts come from fixed templates or from an OpenAI-compatible
// chat completion API with the templates as fallback.
package notification

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"bank-personalization/internal/domain"
)

// MaxLength is the maximum notification length in runes.
const MaxLength = 250

// Text sources, used as metric labels.
const (
	SourceTemplate = "template"
	SourceAPI      = "api"
	SourceCache    = "cache"
	SourceFallback = "fallback"
)

// Request carries everything a generator may use for one recommendation.
type Request struct {
	Client         domain.Client
	Product        domain.Product
	Recommendation domain.Recommendation
	Estimate       domain.BenefitEstimate
	Features       domain.FeatureSet
}

// Generator produces notification text. Implementations must return at most
// MaxLength runes and be safe for concurrent use.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Truncate cuts s to MaxLength runes, ending with "..." when cut.
func Truncate(s string) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= MaxLength {
		return s
	}
	return string(r[:MaxLength-3]) + "..."
}

// CacheKey identifies a request by the values that shape its text.
func CacheKey(req Request) string {
	h := sha256.New()
	fmt.Fprintf(h, "%d|%s|%s|%s|%s",
		req.Client.Code, req.Product.Code, req.Recommendation.Benefit.StringFixed(2),
		req.Features.Window.Start.Format("2006-01-02"), req.Features.Window.End.Format("2006-01-02"))
	return "notify:" + hex.EncodeToString(h.Sum(nil))
}

var (
	ruPrinter   = message.NewPrinter(language.Russian)
	groupSpaces = strings.NewReplacer("\u00a0", " ", "\u202f", " ")
)

// Money formats a KZT amount as whole tenge with space-grouped thousands, e.g. "27 400 ₸".
func Money(v decimal.Decimal) string {
	s := ruPrinter.Sprintf("%d", v.Round(0).IntPart())
	return groupSpaces.Replace(s) + " ₸"
}

// Percent formats a rate as a percentage with a decimal comma, e.g. "16,5%".
func Percent(rate decimal.Decimal) string {
	return ruPrinter.Sprintf("%.1f", rate.Mul(decimal.NewFromInt(100)).InexactFloat64()) + "%"
}
