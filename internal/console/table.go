package console

import (
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"idconsole/internal/i18n"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiDim    = "\x1b[2m"
)

// ShouldColorize reports whether writer is a terminal.
func ShouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func colorFor(tone Tone) string {
	switch tone {
	case ToneSuccess:
		return ansiGreen
	case ToneDanger:
		return ansiRed
	case ToneActive:
		return ansiYellow
	default:
		return ansiDim
	}
}

func paint(value string, tone Tone, colorize bool) string {
	if !colorize || value == "" {
		return value
	}
	return colorFor(tone) + value + ansiReset
}

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

// RenderTable renders plain rows with the shared table style.
func RenderTable(headers []string, rows [][]string) string {
	return renderTable(headers, rows, nil)
}

// RenderJobTable renders job rows. An empty set renders the localized
// "no jobs" message.
func RenderJobTable(rows []JobRow, tr i18n.Translator, colorize bool) string {
	if len(rows) == 0 {
		return tr.T(i18n.MessageNoJobs)
	}
	headers := []string{tr.T(i18n.LabelID), tr.T(i18n.LabelStatus), tr.T(i18n.LabelFile), tr.T(i18n.LabelUpdated), tr.T(i18n.LabelSummary)}
	data := make([][]string, 0, len(rows))
	for _, row := range rows {
		data = append(data, []string{
			row.ID,
			paint(row.Badge, row.Tone, colorize),
			row.Filename,
			row.Updated,
			row.SummaryText(),
		})
	}
	return renderTable(headers, data, nil)
}

// RenderTokens renders token rows.
func RenderTokens(rows []TokenRow, tr i18n.Translator, colorize bool) string {
	if len(rows) == 0 {
		return tr.T(i18n.MessageNoTokens)
	}
	headers := []string{tr.T(i18n.LabelID), tr.T(i18n.LabelName), tr.T(i18n.LabelOwner), tr.T(i18n.LabelCreated), tr.T(i18n.LabelExpires), tr.T(i18n.LabelState)}
	data := make([][]string, 0, len(rows))
	for _, row := range rows {
		tone := ToneSuccess
		if row.Revoked {
			tone = ToneDanger
		}
		data = append(data, []string{row.ID, row.Name, row.Owner, row.Created, row.Expires, paint(row.State, tone, colorize)})
	}
	return renderTable(headers, data, nil)
}

// RenderUsers renders user rows.
func RenderUsers(rows []UserRow, tr i18n.Translator, colorize bool) string {
	if len(rows) == 0 {
		return tr.T(i18n.MessageNoUsers)
	}
	headers := []string{tr.T(i18n.LabelID), tr.T(i18n.LabelUsername), tr.T(i18n.LabelDisplayName), tr.T(i18n.LabelRoles), tr.T(i18n.LabelFeatures), tr.T(i18n.LabelState)}
	data := make([][]string, 0, len(rows))
	for _, row := range rows {
		tone := ToneSuccess
		if row.Disabled {
			tone = ToneDanger
		}
		data = append(data, []string{row.ID, row.Username, row.DisplayName, row.Roles, row.Features, paint(row.State, tone, colorize)})
	}
	return renderTable(headers, data, nil)
}

// RenderJobDetail renders one job as a two-column table.
func RenderJobDetail(row JobRow, fingerprint string, duration float64, tr i18n.Translator, colorize bool) string {
	data := [][]string{
		{tr.T(i18n.LabelID), row.ID},
		{tr.T(i18n.LabelStatus), paint(row.Badge, row.Tone, colorize)},
	}
	if row.Filename != "" {
		data = append(data, []string{tr.T(i18n.LabelFile), row.Filename})
	}
	data = append(data, []string{tr.T(i18n.LabelUpdated), row.Updated})
	if row.Progress != "" {
		data = append(data, []string{tr.T(i18n.LabelProgress), row.Progress})
	}
	data = append(data, []string{tr.T(i18n.LabelSummary), row.SummaryText()})
	if fingerprint != "" {
		data = append(data, []string{tr.T(i18n.LabelFingerprint), fingerprint})
	}
	if duration > 0 {
		data = append(data, []string{tr.T(i18n.LabelDuration), formatSeconds(duration)})
	}
	return renderTable([]string{"", ""}, data, []columnAlignment{alignRight, alignLeft})
}
