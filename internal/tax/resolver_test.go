package tax

import (
	"testing"

	"github.com/shopspring/decimal"
	accountingdomain "github.com/smallbiznis/invoicedesk/internal/accounting/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func code(id, name, rateID string) accountingdomain.TaxCode {
	c := accountingdomain.TaxCode{ID: id, Name: name, Active: true}
	if rateID != "" {
		c.SalesTaxRateList = &accountingdomain.TaxRateList{
			TaxRateDetail: []accountingdomain.TaxRateDetail{{TaxRateRef: accountingdomain.Ref{Value: rateID}}},
		}
	}
	return c
}

func rate(id string, value int64) accountingdomain.TaxRate {
	return accountingdomain.TaxRate{ID: id, Active: true, RateValue: decimal.NewFromInt(value)}
}

func TestResolveRateFromFirstSalesRate(t *testing.T) {
	codes := []accountingdomain.TaxCode{code("5", "Standard", "9"), code("6", "Zero", "10")}
	rates := []accountingdomain.TaxRate{rate("9", 15), rate("10", 0)}

	assert.True(t, ResolveRate("5", codes, rates).Equal(decimal.RequireFromString("0.15")))
	assert.True(t, ResolveRate("6", codes, rates).IsZero())
}

func TestResolveRateDefaults(t *testing.T) {
	codes := []accountingdomain.TaxCode{code("5", "Standard", "9"), code("7", "No rates", "")}
	rates := []accountingdomain.TaxRate{rate("9", 14)}

	cases := map[string]string{
		"absent id":        "",
		"unknown code":     "404",
		"no rate ref":      "7",
		"unknown rate ref": "8",
	}
	codes = append(codes, code("8", "Dangling", "missing"))
	for name, id := range cases {
		t.Run(name, func(t *testing.T) {
			assert.True(t, ResolveRate(id, codes, rates).Equal(DefaultRate))
		})
	}
	assert.True(t, ResolveRate("", nil, nil).Equal(decimal.RequireFromString("0.15")))
}

func TestResolverOnlyReadsFirstRateReference(t *testing.T) {
	c := code("5", "Group", "9")
	c.SalesTaxRateList.TaxRateDetail = append(c.SalesTaxRateList.TaxRateDetail,
		accountingdomain.TaxRateDetail{TaxRateRef: accountingdomain.Ref{Value: "11"}})
	r := NewResolver([]accountingdomain.TaxCode{c}, []accountingdomain.TaxRate{rate("9", 10), rate("11", 5)})

	assert.Equal(t, "0.1", r.Rate("5").String())
}

func TestNilResolverUsesDefault(t *testing.T) {
	var r *Resolver
	assert.True(t, r.Rate("5").Equal(DefaultRate))
	assert.Empty(t, r.Available())
}

func TestDefaultCodePrefersStandardVAT(t *testing.T) {
	hidden := code("1", "Exempt", "")
	hidden.Hidden = true
	inactive := code("2", "SA Old", "")
	inactive.Active = false
	r := NewResolver([]accountingdomain.TaxCode{hidden, inactive, code("3", "Zero-rated", ""), code("4", "Standard 15%", "")}, nil)

	got, ok := r.DefaultCode()
	require.True(t, ok)
	assert.Equal(t, "4", got.ID)
	assert.Len(t, r.Available(), 2)
}

func TestDefaultCodeFallsBackToFirstAvailable(t *testing.T) {
	r := NewResolver([]accountingdomain.TaxCode{code("3", "Exempt", ""), code("4", "Zero", "")}, nil)
	got, ok := r.DefaultCode()
	require.True(t, ok)
	assert.Equal(t, "3", got.ID)

	_, ok = NewResolver(nil, nil).DefaultCode()
	assert.False(t, ok)
}

func TestPercent(t *testing.T) {
	assert.Equal(t, "15", Percent(DefaultRate))
	assert.Equal(t, "7.5", Percent(decimal.RequireFromString("0.075")))
	assert.Equal(t, "0", Percent(decimal.Zero))
}
