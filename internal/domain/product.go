package domain

import (
	"sort"
	"strconv"
	"strings"
)

// ProductCode identifies one of the ten products the pipeline evaluates.
// The set is closed: every switch over ProductCode handles all values.
type ProductCode string

const (
	ProductTravelCard           ProductCode = "travel_card"
	ProductPremiumCard          ProductCode = "premium_card"
	ProductCreditCard           ProductCode = "credit_card"
	ProductFXExchange           ProductCode = "fx_exchange"
	ProductCashLoan             ProductCode = "cash_loan"
	ProductDepositSavings       ProductCode = "deposit_savings"
	ProductDepositAccumulative  ProductCode = "deposit_accumulative"
	ProductDepositMulticurrency ProductCode = "deposit_multicurrency"
	ProductInvestments          ProductCode = "investments"
	ProductGoldBars             ProductCode = "gold_bars"
)

// AllProductCodes returns every product code in catalog order.
func AllProductCodes() []ProductCode {
	return []ProductCode{
		ProductTravelCard,
		ProductPremiumCard,
		ProductCreditCard,
		ProductFXExchange,
		ProductCashLoan,
		ProductDepositSavings,
		ProductDepositAccumulative,
		ProductDepositMulticurrency,
		ProductInvestments,
		ProductGoldBars,
	}
}

// Valid reports whether c is one of the known product codes.
func (c ProductCode) Valid() bool {
	for _, known := range AllProductCodes() {
		if c == known {
			return true
		}
	}
	return false
}

// ProductType groups products for ranking constraints.
type ProductType string

const (
	ProductTypeCard       ProductType = "card"
	ProductTypeCredit     ProductType = "credit"
	ProductTypeDeposit    ProductType = "deposit"
	ProductTypeInvestment ProductType = "investment"
	ProductTypeFX         ProductType = "fx"
	ProductTypeMetal      ProductType = "metal"
)

// Product is a static catalog entry.
type Product struct {
	ID      int // catalog identifier, used as the final ranking tie-break
	Code    ProductCode
	Name    string
	Type    ProductType
	Aliases []string // alternative names accepted as holding references
}

// Catalog is a read-only product lookup.
type Catalog struct {
	products []Product
	byCode   map[ProductCode]Product
}

// NewCatalog builds a catalog. Products are kept sorted by ID.
func NewCatalog(products []Product) (*Catalog, error) {
	sorted := make([]Product, len(products))
	copy(sorted, products)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	byCode := make(map[ProductCode]Product, len(sorted))
	seenID := make(map[int]bool, len(sorted))
	for _, p := range sorted {
		if !p.Code.Valid() {
			return nil, &ConfigurationError{Field: "catalog", Reason: "unknown product code " + strconv.Quote(string(p.Code))}
		}
		if _, dup := byCode[p.Code]; dup {
			return nil, &ConfigurationError{Field: "catalog", Reason: "duplicate product code " + string(p.Code)}
		}
		if seenID[p.ID] {
			return nil, &ConfigurationError{Field: "catalog", Reason: "duplicate product id " + strconv.Itoa(p.ID)}
		}
		seenID[p.ID] = true
		byCode[p.Code] = p
	}
	return &Catalog{products: sorted, byCode: byCode}, nil
}

// DefaultCatalog returns the ten products with their bank names.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(DefaultProducts())
	if err != nil {
		panic(err)
	}
	return c
}

// DefaultProducts returns the seed rows of the products table.
func DefaultProducts() []Product {
	return []Product{
		{ID: 1, Code: ProductTravelCard, Name: "Карта для путешествий", Type: ProductTypeCard, Aliases: []string{"Travel Card"}},
		{ID: 2, Code: ProductPremiumCard, Name: "Премиальная карта", Type: ProductTypeCard, Aliases: []string{"Premium Card"}},
		{ID: 3, Code: ProductCreditCard, Name: "Кредитная карта", Type: ProductTypeCredit, Aliases: []string{"Credit Card"}},
		{ID: 4, Code: ProductFXExchange, Name: "Обмен валют", Type: ProductTypeFX, Aliases: []string{"Currency Exchange", "FX Exchange"}},
		{ID: 5, Code: ProductCashLoan, Name: "Кредит наличными", Type: ProductTypeCredit, Aliases: []string{"Cash Loan"}},
		{ID: 6, Code: ProductDepositMulticurrency, Name: "Депозит Мультивалютный (KZT/USD/RUB/EUR)", Type: ProductTypeDeposit, Aliases: []string{"Депозит Мультивалютный", "Multicurrency Deposit"}},
		{ID: 7, Code: ProductDepositSavings, Name: "Депозит Сберегательный (защита KDIF)", Type: ProductTypeDeposit, Aliases: []string{"Депозит Сберегательный", "Savings Deposit"}},
		{ID: 8, Code: ProductDepositAccumulative, Name: "Депозит Накопительный", Type: ProductTypeDeposit, Aliases: []string{"Accumulative Deposit"}},
		{ID: 9, Code: ProductInvestments, Name: "Инвестиции", Type: ProductTypeInvestment, Aliases: []string{"Investments", "Brokerage Account"}},
		{ID: 10, Code: ProductGoldBars, Name: "Золотые слитки", Type: ProductTypeMetal, Aliases: []string{"Gold Bars"}},
	}
}

// Products returns all products ordered by ID.
func (c *Catalog) Products() []Product {
	out := make([]Product, len(c.products))
	copy(out, c.products)
	return out
}

// Get returns the product with the given code.
func (c *Catalog) Get(code ProductCode) (Product, bool) {
	p, ok := c.byCode[code]
	return p, ok
}

// Require returns the product with the given code or a ConfigurationError.
func (c *Catalog) Require(code ProductCode) (Product, error) {
	p, ok := c.byCode[code]
	if !ok {
		return Product{}, &ConfigurationError{Field: "catalog", Reason: "product " + string(code) + " is not in the catalog"}
	}
	return p, nil
}

// Resolve maps a holding reference to a product. The reference may be a
// product code, a numeric catalog ID, or a catalog name or alias (case-insensitive).
func (c *Catalog) Resolve(ref string) (Product, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return Product{}, false
	}
	if p, ok := c.byCode[ProductCode(ref)]; ok {
		return p, true
	}
	if id, err := strconv.Atoi(ref); err == nil {
		for _, p := range c.products {
			if p.ID == id {
				return p, true
			}
		}
		return Product{}, false
	}
	for _, p := range c.products {
		if strings.EqualFold(p.Name, ref) {
			return p, true
		}
		for _, alias := range p.Aliases {
			if strings.EqualFold(alias, ref) {
				return p, true
			}
		}
	}
	return Product{}, false
}

// ResolveAll maps holding references to a set of product codes, ignoring unknown references.
func (c *Catalog) ResolveAll(refs []string) map[ProductCode]bool {
	held := make(map[ProductCode]bool, len(refs))
	for _, ref := range refs {
		if p, ok := c.Resolve(ref); ok {
			held[p.Code] = true
		}
	}
	return held
}

// Unresolved returns the references that match no catalog product, in input order.
func (c *Catalog) Unresolved(refs []string) []string {
	var out []string
	for _, ref := range refs {
		if _, ok := c.Resolve(ref); !ok {
			out = append(out, ref)
		}
	}
	return out
}
