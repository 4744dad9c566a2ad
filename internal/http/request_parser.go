package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"tracker/internal/core"
)

// dateLayout is the wire format for entry dates.
const dateLayout = "2006-01-02"

const maxBodyBytes = 1 << 20

var errMalformedBody = errors.New("malformed request body")

// entryPayload is the client-submitted shape of an entry. Amount arrives as
// a decimal string and is parsed into cents server-side. Every field is
// mandatory.
type entryPayload struct {
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Category    string `json:"category"`
	Date        string `json:"date"`
}

func decodeJSON(r *http.Request, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return errMalformedBody
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return errMalformedBody
	}
	return nil
}

// parseEntryPayload validates a submitted entry and returns its normalized
// fields. The display date is derived from the parsed date, never trusted
// from the client.
func (p entryPayload) parse() (core.EntryUpdate, error) {
	desc := sanitizeInput(p.Description)
	if desc == "" {
		return core.EntryUpdate{}, core.ErrEmptyDescription
	}

	amount, err := core.ParseAmount(strings.TrimSpace(p.Amount))
	if err != nil {
		return core.EntryUpdate{}, err
	}

	category := core.Category(strings.ToLower(strings.TrimSpace(p.Category)))
	if err := category.Validate(); err != nil {
		return core.EntryUpdate{}, err
	}

	if strings.TrimSpace(p.Date) == "" {
		return core.EntryUpdate{}, core.ErrZeroDate
	}
	occurredOn, err := time.Parse(dateLayout, strings.TrimSpace(p.Date))
	if err != nil {
		return core.EntryUpdate{}, fmt.Errorf("%w: want YYYY-MM-DD", core.ErrZeroDate)
	}

	return core.EntryUpdate{
		Description: desc,
		Amount:      amount,
		Category:    category,
		OccurredOn:  occurredOn,
		DisplayDate: core.FormatDisplayDate(occurredOn),
	}, nil
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
