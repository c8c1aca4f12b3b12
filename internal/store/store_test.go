package store

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vbonduro/housecheck/internal/db"
	"github.com/vbonduro/housecheck/internal/domain"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	d, err := db.OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func exteriorTemplate() *domain.Template {
	return &domain.Template{
		CheckType: domain.CheckTypeHome,
		Name:      "Home Check",
		Sections: []domain.Section{
			{
				Key:  "exterior",
				Name: "Exterior",
				Items: []domain.Item{
					{ID: "exterior.locks", Label: "Check locks", Required: true, Kind: domain.CheckItem{}},
					{ID: "exterior.paint", Label: "Check paint", Kind: domain.PhotoItem{MinPhotos: 2}},
				},
			},
			{
				Key:  "summary",
				Name: "Summary",
				Items: []domain.Item{
					{ID: "summary.notes", Label: "Overall impression", Kind: domain.NoteItem{}},
				},
			},
		},
	}
}
