package steam

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"steamgog/internal/catalog"
)

// WriteCSV writes the library to a CSV file with an appid,name,playtime_min
// header, in the given order.
func WriteCSV(path string, games []catalog.LibraryGame) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv %s: %w", path, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"appid", "name", "playtime_min"}); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, game := range games {
		record := []string{
			strconv.FormatInt(game.AppID, 10),
			game.Name,
			strconv.FormatInt(game.PlaytimeForeverMin, 10),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write csv row for %d: %w", game.AppID, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return file.Close()
}
