package core

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount Money
}

// MonthAmount represents an amount aggregated by "YYYY-MM" month key.
type MonthAmount struct {
	Month  string
	Amount Money
}

// Summary is a compact overview of a transaction view.
type Summary struct {
	Total      Money
	ByCategory []CategoryAmount
	ByMonth    []MonthAmount
}
