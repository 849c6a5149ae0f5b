package alerts

import (
	"strings"

	"github.com/olekukonko/tablewriter"

	"tbsu/internal/frame"
)

// MessageWithTable renders f as an ASCII table in a code block under title
func MessageWithTable(title string, f *frame.Frame) string {
	var buf strings.Builder

	table := tablewriter.NewWriter(&buf)
	table.SetHeader(f.Columns())
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.AppendBulk(f.Records())
	table.Render()

	body := strings.TrimRight(buf.String(), "\n")
	return strings.Join([]string{title, body, ""}, "\n```")
}
