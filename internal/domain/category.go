package domain

const (
	CategoryIncome        = "Income"
	CategoryHousing       = "Rent/Housing"
	CategoryFood          = "Food/Dining"
	CategoryTransport     = "Transportation"
	CategoryShopping      = "Shopping"
	CategoryEntertainment = "Entertainment"
	CategoryTravel        = "Travel"
	CategoryBills         = "Bills/Utilities"
	CategoryHealthcare    = "Healthcare"
	CategoryEducation     = "Education"
	CategoryTransfer      = "Transfer"
	CategoryFees          = "Fees"
	CategoryOther         = "Other"

	// CategoryUncategorized labels rows with no category in summaries.
	CategoryUncategorized = "Uncategorized"
)

// Categories is the fixed taxonomy offered to the model, in prompt order.
var Categories = []string{
	CategoryIncome,
	CategoryHousing,
	CategoryFood,
	CategoryTransport,
	CategoryShopping,
	CategoryEntertainment,
	CategoryTravel,
	CategoryBills,
	CategoryHealthcare,
	CategoryEducation,
	CategoryTransfer,
	CategoryFees,
	CategoryOther,
}
