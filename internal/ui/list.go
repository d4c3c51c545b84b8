package ui

import (
	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/gestaopro/internal/models"
)

var _ list.Item = sectionItem{}

// sectionItem wraps a [models.Permission] to implement [list.Item].
type sectionItem struct {
	section models.Permission
}

func (i sectionItem) FilterValue() string { return string(i.section) }
func (i sectionItem) Title() string       { return i.section.Title() }
func (i sectionItem) Description() string { return "entity: " + models.EntityForPermission(i.section) }

func sectionItems(perms []models.Permission) []list.Item {
	items := []list.Item{}
	for _, p := range perms {
		if p.HasRecords() {
			items = append(items, sectionItem{section: p})
		}
	}
	return items
}
