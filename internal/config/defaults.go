package config

import "time"

// DefaultTimestamp is the instant substituted for unparseable timestamps and
// used when a request omits one.
const DefaultTimestamp = "2025-08-24T09:00:00"

// TimestampLayout is the ISO-8601 form of transaction timestamps, whole
// seconds and no zone.
const TimestampLayout = "2006-01-02T15:04:05"

// DefaultOptions returns the literal definitions behind Default.
func DefaultOptions() RegistryOptions {
	return RegistryOptions{
		Categories: []string{
			"Groceries", "Transport", "Dining & Coffee", "Entertainment",
			"Bills & Utilities", "Health & Fitness", "Shopping", "Income", "Other",
		},
		Vocabulary: map[string]VocabularyEntry{
			"Groceries": {
				Merchants:    []string{"Tesco", "Sainsbury's", "ALDI", "LIDL", "ASDA", "Co-op", "Morrisons"},
				Descriptions: []string{"groceries", "weekly shop", "food basket", "fresh produce"},
			},
			"Transport": {
				Merchants:    []string{"Uber", "Bolt", "ScotRail", "TFL", "Shell", "BP", "Stagecoach"},
				Descriptions: []string{"ride home", "bus ticket", "train to work", "petrol", "diesel"},
			},
			"Dining & Coffee": {
				Merchants:    []string{"Starbucks", "Costa", "Caffè Nero", "KFC", "McDonalds", "Dominos"},
				Descriptions: []string{"morning latte", "burger meal", "pizza deal", "americano", "lunch"},
			},
			"Entertainment": {
				Merchants:    []string{"Netflix", "Spotify", "Steam", "Cineworld", "Disney+"},
				Descriptions: []string{"subscription", "movie ticket", "monthly sub", "premium plan"},
			},
			"Bills & Utilities": {
				Merchants:    []string{"Vodafone", "O2", "EE", "BT", "British Gas", "Octopus Energy"},
				Descriptions: []string{"mobile bill", "broadband", "energy bill", "council tax"},
			},
			"Health & Fitness": {
				Merchants:    []string{"Boots", "NHS", "PureGym", "The Gym Group", "Holland & Barrett"},
				Descriptions: []string{"pharmacy", "gym membership", "vitamins", "healthcare"},
			},
			"Shopping": {
				Merchants:    []string{"Amazon", "eBay", "Argos", "Currys", "Primark", "IKEA"},
				Descriptions: []string{"online order", "charger", "home goods", "t-shirt", "accessories"},
			},
			"Income": {
				Merchants:    []string{"Payroll", "ACME LTD", "Company Ltd", "Employer Ltd", "HSBC"},
				Descriptions: []string{"monthly salary", "PAYROLL BACS CREDIT", "wage", "payslip"},
			},
			"Other": {
				Merchants:    []string{"Local Market", "HSBC", "Barclays", "NatWest", "Halifax", "Monzo"},
				Descriptions: []string{"card payment", "transfer", "fee", "charge", "misc purchase"},
			},
		},
		Amounts: map[string]AmountSpec{
			"Groceries":         {Low: 8, High: 120, Sign: Expense},
			"Transport":         {Low: 3, High: 70, Sign: Expense},
			"Dining & Coffee":   {Low: 2, High: 30, Sign: Expense},
			"Entertainment":     {Low: 4, High: 20, Sign: Expense},
			"Bills & Utilities": {Low: 20, High: 500, Sign: Expense},
			"Health & Fitness":  {Low: 3, High: 120, Sign: Expense},
			"Shopping":          {Low: 5, High: 500, Sign: Expense},
			"Income":            {Low: 800, High: 2500, Sign: Income},
		},
		DefaultAmount: AmountSpec{Low: 1, High: 80, Sign: Expense},
		DecimalPlaces: 2,
		Time: TimeSpec{
			Base: time.Date(2025, time.August, 15, 0, 0, 0, 0, time.UTC),
			HourChoices: map[string][]int{
				"Transport":       {7, 8, 9, 22, 23, 0, 1},
				"Dining & Coffee": {8, 12, 13, 18, 19},
				"Entertainment":   {19, 20, 21, 22},
			},
			DefaultHourRange: [2]int{8, 21},
			DayOffsetRange:   [2]int{0, 13},
		},
		Model: DefaultModelSettings(),
		Seed:  42,
	}
}

// DefaultModelSettings returns the stock hyperparameters.
func DefaultModelSettings() ModelSettings {
	return ModelSettings{
		TestSize:    0.2,
		RandomState: 42,
		WordMinDF:   2,
		WordNgram:   [2]int{1, 2},
		CharMinDF:   2,
		CharNgram:   [2]int{3, 5},
		C:           1.0,
		Solver:      SolverLBFGS,
		MaxIter:     2000,
		Tol:         1e-4,
		ClassWeight: ClassWeightBalanced,
	}
}

// Default builds the stock registry. It panics only if the literal
// definitions above are invalid, which the tests guard against.
func Default() *Registry {
	r, err := New(DefaultOptions())
	if err != nil {
		panic("config: invalid default registry: " + err.Error())
	}
	return r
}
