package tools

var sheetIDProperty = stringProperty("Spreadsheet ID to use instead of the configured ledger (spreadsheet ledger only)")

// Register adds every tool to d.
func (s *Service) Register(d *Dispatcher) {
	// Storage
	d.Register(Tool{
		Name:        "search_drive_files",
		Description: "Search for statement PDFs in cloud storage, newest first. Use this to find bank statements before parsing them.",
		InputSchema: objectSchema(
			map[string]interface{}{
				"query":       stringProperty("Search term matched against file names, e.g. \"December Chase\""),
				"max_results": integerProperty("Maximum number of files to return", 20),
				"folder_id":   stringProperty("Only search inside this folder (Drive folder ID or gs:// prefix)"),
			},
			nil,
		),
	}, s.searchFiles)
	d.Register(Tool{
		Name:        "move_file_to_folder",
		Description: "Move a Drive file to another folder, e.g. to archive a processed statement.",
		InputSchema: objectSchema(
			map[string]interface{}{
				"file_id":   stringProperty("ID of the file to move"),
				"folder_id": stringProperty("ID of the destination folder"),
			},
			[]string{"file_id", "folder_id"},
		),
	}, s.moveFile)
	d.Register(Tool{
		Name:        "create_folder",
		Description: "Create a Drive folder and return its metadata including the new ID.",
		InputSchema: objectSchema(
			map[string]interface{}{
				"name":             stringProperty("Name of the new folder"),
				"parent_folder_id": stringProperty("Parent folder ID (optional)"),
			},
			[]string{"name"},
		),
	}, s.createFolder)

	// Parser
	d.Register(Tool{
		Name: "parse_statement",
		Description: "Download a bank statement (Drive file ID or gs:// URI) and extract the account header and every transaction with the AI model. " +
			"Nothing is saved; pass the result to save_transactions.",
		InputSchema: objectSchema(
			map[string]interface{}{
				"file_id": stringProperty("Drive file ID or gs://bucket/object URI of the statement"),
			},
			[]string{"file_id"},
		),
	}, s.parseStatement)
	d.Register(Tool{
		Name:        "recategorize_transaction",
		Description: "Suggest a category for a single transaction. Categories: " + categoryList,
		InputSchema: objectSchema(
			map[string]interface{}{
				"description": stringProperty("Transaction description as printed on the statement"),
				"amount":      numberProperty("Transaction amount; positive is money out"),
			},
			[]string{"description", "amount"},
		),
	}, s.recategorize)
	d.Register(Tool{
		Name:        "import_statement",
		Description: "Parse a statement, save its transactions to the ledger and move the file to the processed folder in one step.",
		InputSchema: objectSchema(
			map[string]interface{}{
				"file_id": stringProperty("Drive file ID or gs://bucket/object URI of the statement"),
			},
			[]string{"file_id"},
		),
	}, s.importStatement)

	// Ledger
	d.Register(Tool{
		Name:        "setup_budget_sheet",
		Description: "Prepare the ledger for use: create the transactions tab with its header row. Safe to call more than once.",
		InputSchema: objectSchema(
			map[string]interface{}{
				"sheet_id": sheetIDProperty,
			},
			nil,
		),
	}, s.setupLedger)
	d.Register(Tool{
		Name:        "save_transactions",
		Description: "Append transactions returned by parse_statement to the ledger.",
		InputSchema: objectSchema(
			map[string]interface{}{
				"transactions": arrayProperty("Transactions with date, description, merchant, amount, type and category",
					freeObjectProperty("A transaction")),
				"account_info": freeObjectProperty("Account header from parse_statement (bank, account_number, ...)"),
				"sheet_id":     sheetIDProperty,
			},
			[]string{"transactions"},
		),
	}, s.saveTransactions)
	d.Register(Tool{
		Name:        "get_recent_transactions",
		Description: "Return the most recently saved transactions.",
		InputSchema: objectSchema(
			map[string]interface{}{
				"limit":    integerProperty("Maximum number of transactions to return", DefaultRecentLimit),
				"sheet_id": sheetIDProperty,
			},
			nil,
		),
	}, s.recentTransactions)
	d.Register(Tool{
		Name:        "search_transactions",
		Description: "Search saved transactions by category, merchant and date range.",
		InputSchema: objectSchema(
			map[string]interface{}{
				"category":   stringProperty("Category name, e.g. \"Food/Dining\" (case-insensitive)"),
				"merchant":   stringProperty("Part of the merchant name (case-insensitive)"),
				"start_date": dateProperty("First date to include, YYYY-MM-DD"),
				"end_date":   dateProperty("Last date to include, YYYY-MM-DD"),
				"limit":      integerProperty("Keep only the last N matches (0 for all)", 0),
				"sheet_id":   sheetIDProperty,
			},
			nil,
		),
	}, s.searchTransactions)
	d.Register(Tool{
		Name:        "get_spending_summary_by_category",
		Description: "Total spent, total income, net and per-category totals for a date range.",
		InputSchema: objectSchema(
			map[string]interface{}{
				"start_date": dateProperty("First date to include, YYYY-MM-DD"),
				"end_date":   dateProperty("Last date to include, YYYY-MM-DD"),
				"sheet_id":   sheetIDProperty,
			},
			nil,
		),
	}, s.spendingSummary)

	// Advisor
	d.Register(Tool{
		Name:        "get_budget_recommendations",
		Description: "AI budget advice based on the spending summary and recent transactions.",
		InputSchema: objectSchema(
			map[string]interface{}{
				"start_date": dateProperty("First date to analyse, YYYY-MM-DD"),
				"end_date":   dateProperty("Last date to analyse, YYYY-MM-DD"),
				"sheet_id":   sheetIDProperty,
			},
			nil,
		),
	}, s.budgetAdvice)
	d.Register(Tool{
		Name:        "find_savings_opportunities",
		Description: "Find duplicate charges, recurring subscriptions and other ways to save money.",
		InputSchema: objectSchema(
			map[string]interface{}{
				"sheet_id": sheetIDProperty,
			},
			nil,
		),
	}, s.savings)
	d.Register(Tool{
		Name:        "analyze_trends",
		Description: "Monthly totals with month-over-month change and an AI trend analysis, for one category or all spending.",
		InputSchema: objectSchema(
			map[string]interface{}{
				"category": stringProperty("Category to analyse; omit for all transactions"),
				"sheet_id": sheetIDProperty,
			},
			nil,
		),
	}, s.trends)
	d.Register(Tool{
		Name:        "compare_to_budget",
		Description: "Compare actual spending per category with budget targets.",
		InputSchema: objectSchema(
			map[string]interface{}{
				"budgets":    mapProperty("Monthly budget per category, e.g. {\"Food/Dining\": 400}", numberProperty("Budget amount")),
				"start_date": dateProperty("First date to include, YYYY-MM-DD"),
				"end_date":   dateProperty("Last date to include, YYYY-MM-DD"),
				"sheet_id":   sheetIDProperty,
			},
			[]string{"budgets"},
		),
	}, s.compareToBudget)
}
