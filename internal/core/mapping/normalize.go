package mapping

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var datePatterns = []struct {
	re     *regexp.Regexp
	layout string
}{
	{regexp.MustCompile(`\d{4}-\d{2}-\d{2}`), "2006-01-02"},
	{regexp.MustCompile(`\d{2}/\d{2}/\d{4}`), "01/02/2006"},
	{regexp.MustCompile(`\d{2}-\d{2}-\d{4}`), "01-02-2006"},
	{regexp.MustCompile(`\d{2}\.\d{2}\.\d{4}`), "02.01.2006"},
}

var monthNameDateRe = regexp.MustCompile(`(?i)(\d{1,2})\s+(Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)\w*\s+(\d{4})`)

var monthNumbers = map[string]string{
	"jan": "01", "feb": "02", "mar": "03", "apr": "04",
	"may": "05", "jun": "06", "jul": "07", "aug": "08",
	"sep": "09", "oct": "10", "nov": "11", "dec": "12",
}

var amountFieldKeywords = []string{"amount", "charge", "fee", "cost", "total", "price", "duty", "tax"}

// NormalizeValue applies field-name-driven normalization: dates to
// YYYY-MM-DD, monetary amounts to plain two-decimal numbers, weights
// stripped of units. Values that resist normalization pass through.
func NormalizeValue(value, fieldName string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}

	nameLower := strings.ToLower(fieldName)

	if strings.Contains(nameLower, "date") {
		if normalized := normalizeDate(value); normalized != "" {
			return normalized
		}
	}
	for _, keyword := range amountFieldKeywords {
		if strings.Contains(nameLower, keyword) {
			if normalized := normalizeAmount(value); normalized != "" {
				return normalized
			}
			break
		}
	}
	if strings.Contains(nameLower, "weight") {
		if normalized := normalizeWeight(value); normalized != "" {
			return normalized
		}
	}
	return value
}

func normalizeDate(value string) string {
	for _, p := range datePatterns {
		raw := p.re.FindString(value)
		if raw == "" {
			continue
		}
		parsed, err := time.Parse(p.layout, raw)
		if err != nil {
			continue
		}
		return parsed.Format("2006-01-02")
	}

	if match := monthNameDateRe.FindStringSubmatch(value); match != nil {
		day := match[1]
		if len(day) == 1 {
			day = "0" + day
		}
		month, ok := monthNumbers[strings.ToLower(match[2])]
		if !ok {
			return ""
		}
		return fmt.Sprintf("%s-%s-%s", match[3], month, day)
	}
	return ""
}

var nonAmountRe = regexp.MustCompile(`[^\d.,\-]`)

func normalizeAmount(value string) string {
	cleaned := nonAmountRe.ReplaceAllString(value, "")
	if cleaned == "" {
		return ""
	}

	hasComma := strings.Contains(cleaned, ",")
	hasDot := strings.Contains(cleaned, ".")
	switch {
	case hasComma && hasDot:
		// Both present: the comma is a thousands separator.
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	case hasComma:
		parts := strings.Split(cleaned, ",")
		if len(parts) == 2 && len(parts[1]) <= 2 {
			// One comma with 1-2 trailing digits acts as a decimal point.
			cleaned = strings.ReplaceAll(cleaned, ",", ".")
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	}

	amount, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%.2f", amount)
}

var weightUnitRe = regexp.MustCompile(`(?i)(kgs|kg|lbs|lb|grams|gram|g)\.?`)
var weightNumberRe = regexp.MustCompile(`[\d.,]+`)

func normalizeWeight(value string) string {
	cleaned := strings.TrimSpace(weightUnitRe.ReplaceAllString(value, ""))
	number := weightNumberRe.FindString(cleaned)
	if number == "" {
		return ""
	}
	return normalizeAmount(number)
}
