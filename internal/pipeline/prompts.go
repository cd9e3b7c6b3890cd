package pipeline

import (
	"strings"

	"github.com/shopspring/decimal"
)

// buildCategoriesPrompt lists the allowed categories for the model.
func buildCategoriesPrompt(categories []string) string {
	var b strings.Builder
	b.WriteString("Use ONLY the following categories:\n")
	for _, c := range categories {
		b.WriteString("  - " + c + "\n")
	}
	b.WriteString("\nCATEGORY ASSIGNMENT RULES:\n")
	b.WriteString("1. Category must be EXACTLY one of the names above.\n")
	b.WriteString("2. Salary, deposits and refunds from employers are \"Income\".\n")
	b.WriteString("3. Transfers between own accounts, Zelle, Venmo and similar are \"Transfer\".\n")
	b.WriteString("4. Bank charges and interest are \"Fees\".\n")
	b.WriteString("5. If you are unsure, use \"Other\".\n")
	return b.String()
}

// buildExtractionPrompt is the instruction sent with every statement.
func buildExtractionPrompt(categories []string) string {
	basePrompt :=
		"You are a financial statement parser for bank and credit card statements.\n\n" +
			"Task:\n" +
			"- Read the attached statement and extract the account header and EVERY transaction.\n" +
			"- Output STRICT JSON only (no comments, no trailing commas, no extra text).\n\n" +
			"Output a single JSON object with this shape:\n" +
			"{\n" +
			"  \"account_info\": {\n" +
			"    \"bank\": string or null,\n" +
			"    \"account_number\": string or null (last 4 digits only),\n" +
			"    \"statement_period_start\": \"YYYY-MM-DD\" or null,\n" +
			"    \"statement_period_end\": \"YYYY-MM-DD\" or null,\n" +
			"    \"beginning_balance\": number or null,\n" +
			"    \"ending_balance\": number or null\n" +
			"  },\n" +
			"  \"transactions\": [\n" +
			"    {\n" +
			"      \"date\": \"YYYY-MM-DD\",\n" +
			"      \"merchant\": string (clean merchant name, e.g. \"AMZN Mktp US*2K4\" -> \"Amazon\"),\n" +
			"      \"description\": string (the line exactly as printed),\n" +
			"      \"amount\": number (positive for money OUT, negative for money IN),\n" +
			"      \"type\": \"debit\" or \"credit\",\n" +
			"      \"category\": string (one of the categories below)\n" +
			"    }\n" +
			"  ]\n" +
			"}\n"

	rulesPrompt :=
		"Rules:\n" +
			"- Do not skip, merge or invent transactions. Keep statement order.\n" +
			"- Use the exact amounts printed on the statement.\n" +
			"- If the statement has separate \"paid out\" / \"paid in\" columns, convert to a single signed \"amount\".\n" +
			"- Purchases, payments and fees are \"debit\"; deposits, refunds and income are \"credit\".\n" +
			"- If a header value cannot be determined, set it to null.\n\n" +
			"Return ONLY valid raw JSON.\n" +
			"Do NOT wrap the response in code fences.\n" +
			"Output must begin with \"{\" and end with \"}\".\n"

	return basePrompt + "\n" + buildCategoriesPrompt(categories) + "\n" + rulesPrompt
}

// buildCategorizePrompt asks for a single category name.
func buildCategorizePrompt(categories []string, description string, amount decimal.Decimal) string {
	var b strings.Builder
	b.WriteString("Categorize this transaction into ONE of these categories:\n")
	for _, c := range categories {
		b.WriteString("- " + c + "\n")
	}
	b.WriteString("\nTransaction: " + description + "\n")
	b.WriteString("Amount: " + amount.StringFixed(2) + " (positive is money out, negative is money in)\n\n")
	b.WriteString("Respond with ONLY the category name, nothing else.\n")
	return b.String()
}
