package prompt

import (
	"fmt"

	"github.com/KaramelBytes/csvask/internal/table"
)

// SystemMessage is sent as the system role message with every question.
const SystemMessage = "You are a helpful assistant for data analysis."

const analystTemplate = `
You are a data analyst assistant. Analyze the following CSV data and answer the user's question.

CSV Data:
%s

User Question: %s
`

// Compose embeds the CSV text and the question verbatim in the analyst template.
// Nothing is escaped or truncated.
func Compose(csvText, question string) string {
	return fmt.Sprintf(analystTemplate, csvText, question)
}

// FromTable re-serializes the whole table and composes the prompt from it.
func FromTable(t *table.Table, question string) (string, error) {
	csvText, err := t.CSV()
	if err != nil {
		return "", fmt.Errorf("serialize table: %w", err)
	}
	return Compose(csvText, question), nil
}
