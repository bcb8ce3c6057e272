package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"

	"ibonocollect/collect"
)

// Write renders records to w according to the profile. Timestamps use
// dateFormat (a Go layout string).
func Write(w io.Writer, records []collect.Record, profile *Profile, dateFormat string) error {
	filtered := records[:0:0]
	for _, rec := range records {
		if !profile.IncludePending && !rec.Synced() {
			continue
		}
		filtered = append(filtered, rec)
	}

	switch profile.Format {
	case "csv":
		return writeSeparated(w, filtered, profile, dateFormat, ',')
	case "tsv":
		return writeSeparated(w, filtered, profile, dateFormat, '\t')
	case "json":
		return writeJSON(w, filtered, profile, dateFormat)
	default:
		return fmt.Errorf("unsupported export format %q", profile.Format)
	}
}

// writeSeparated covers CSV and TSV; encoding/csv handles quoting of
// embedded separators, quotes and newlines.
func writeSeparated(w io.Writer, records []collect.Record, profile *Profile, dateFormat string, comma rune) error {
	cw := csv.NewWriter(w)
	cw.Comma = comma

	if profile.Header {
		if err := cw.Write(profile.Fields); err != nil {
			return err
		}
	}

	for _, rec := range records {
		row := make([]string, len(profile.Fields))
		for i, field := range profile.Fields {
			row[i] = fieldValue(rec, field, dateFormat)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func writeJSON(w io.Writer, records []collect.Record, profile *Profile, dateFormat string) error {
	out := make([]map[string]string, 0, len(records))
	for _, rec := range records {
		row := make(map[string]string, len(profile.Fields))
		for _, field := range profile.Fields {
			row[field] = fieldValue(rec, field, dateFormat)
		}
		out = append(out, row)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func fieldValue(rec collect.Record, field, dateFormat string) string {
	switch field {
	case "local_id":
		return rec.LocalID
	case "id":
		return rec.ID
	case "source_text":
		return rec.SourceText
	case "target_text":
		return rec.TargetText
	case "context":
		return rec.Context
	case "owner_id":
		return rec.OwnerID
	case "created_at":
		return rec.CreatedAt.Format(dateFormat)
	case "updated_at":
		return rec.UpdatedAt.Format(dateFormat)
	case "sync_status":
		return string(rec.SyncStatus)
	}
	return ""
}
