// Package export turns the admin listing into a downloadable CSV file.
package export

import (
	"strconv"
	"strings"

	"github.com/quantonganh/waitlist"
)

// FileName is the name the export is saved under
const FileName = "waitlist-emails.csv"

// Header is the first line of every export
const Header = "Email,Timestamp,Subscribed"

// CSV joins each entry's fields with commas, one row per entry, after
// Header. Values are written as is: an email containing a comma or a quote
// produces a malformed row.
func CSV(entries []waitlist.Entry) string {
	lines := make([]string, 0, len(entries)+1)
	lines = append(lines, Header)
	for _, e := range entries {
		lines = append(lines, e.Email+","+e.Timestamp+","+strconv.FormatBool(e.Subscribed))
	}
	return strings.Join(lines, "\n")
}
