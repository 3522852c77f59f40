package domain

// CurrencyUSD is the default currency for item rates and booking totals.
const CurrencyUSD = "USD"
