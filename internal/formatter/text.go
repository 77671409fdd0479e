package formatter

import (
	"bytes"
	"fmt"

	"github.com/desertthunder/spotify-etl/internal/models"
)

// ExportToText renders a plain text summary of the tables derived from key,
// listing at most limit rows per table. A limit of zero lists every row.
func ExportToText(key string, t models.Tables, before models.TableCounts, limit int) []byte {
	var buf bytes.Buffer

	after := t.Counts()
	fmt.Fprintf(&buf, "Document: %s\n", key)
	fmt.Fprintf(&buf, "Albums: %d (%d before dedup)\n", after.Albums, before.Albums)
	fmt.Fprintf(&buf, "Artists: %d (%d before dedup)\n", after.Artists, before.Artists)
	fmt.Fprintf(&buf, "Songs: %d (%d before dedup)\n", after.Songs, before.Songs)

	buf.WriteString("\n## Albums\n")
	for i, a := range t.Albums {
		if limit > 0 && i >= limit {
			fmt.Fprintf(&buf, "... %d more\n", len(t.Albums)-limit)
			break
		}
		fmt.Fprintf(&buf, "%d. %s - %s (%s)\n", i+1, a.ArtistName, a.AlbumName, formatDate(a.ReleaseDate, ReleaseDateLayout))
	}

	buf.WriteString("\n## Artists\n")
	for i, a := range t.Artists {
		if limit > 0 && i >= limit {
			fmt.Fprintf(&buf, "... %d more\n", len(t.Artists)-limit)
			break
		}
		fmt.Fprintf(&buf, "%d. %s [%s]\n", i+1, a.ArtistName, a.ArtistID)
	}

	buf.WriteString("\n## Songs\n")
	for i, s := range t.Songs {
		if limit > 0 && i >= limit {
			fmt.Fprintf(&buf, "... %d more\n", len(t.Songs)-limit)
			break
		}
		fmt.Fprintf(&buf, "%d. %s [%s] added %s\n", i+1, s.SongName, s.ArtistID, formatDate(s.SongAdded, AddedAtLayout))
	}

	return buf.Bytes()
}
