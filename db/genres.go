package db

import (
	"database/sql"
	"strconv"
	"strings"

	m "github.com/amitalon123/Video-Streaming-Project/models"
)

// parseGenres folds the GROUP_CONCAT id/name pair back into genre records.
func parseGenres(genreIDs, genreNames sql.NullString) []m.Genre {
	if !genreIDs.Valid || !genreNames.Valid {
		return []m.Genre{}
	}

	ids := strings.Split(genreIDs.String, ",")
	names := strings.Split(genreNames.String, ",")
	if len(ids) != len(names) {
		return []m.Genre{}
	}

	genres := make([]m.Genre, 0, len(ids))
	for i := range ids {
		id, err := strconv.Atoi(strings.TrimSpace(ids[i]))
		if err != nil {
			continue
		}
		genres = append(genres, m.Genre{
			ID:   id,
			Name: strings.TrimSpace(names[i]),
		})
	}
	return genres
}
