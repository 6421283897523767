package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/karaoke/internal/formatter"
	"github.com/desertthunder/karaoke/internal/models"
	"github.com/desertthunder/karaoke/internal/shared"
)

var (
	_ list.Item = songItem{}
)

// songItem wraps a [formatter.QueueRow] to implement [list.Item].
type songItem struct {
	row formatter.QueueRow
}

func (i songItem) FilterValue() string { return i.row.Song.Title }
func (i songItem) Title() string {
	title := fmt.Sprintf("%d. %s", i.row.Position, i.row.Song.Title)
	if k := models.FormatKey(i.row.Song.Key); k != "" {
		title = fmt.Sprintf("%s [%s]", title, k)
	}
	return title
}
func (i songItem) Description() string {
	parts := []string{i.row.Singers, "~" + shared.FormatMinutes(i.row.WaitMinutes)}
	if i.row.Song.Author != "" {
		parts = append(parts, i.row.Song.Author)
	}
	return strings.Join(parts, " • ")
}

func queueItems(rows []formatter.QueueRow) []list.Item {
	items := make([]list.Item, len(rows))
	for i, row := range rows {
		items[i] = songItem{row: row}
	}
	return items
}
