// Package export encodes session reports for research tooling.
package export

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/okian/synaptic/internal/domain/cognition"
)

// ErrUnknownFormat is returned for an unsupported export format.
var ErrUnknownFormat = errors.New("unknown export format")

// Format names an export encoding.
type Format string

// Supported formats.
const (
	JSON Format = "json"
	YAML Format = "yaml"
	CSV  Format = "csv"
)

// ParseFormat resolves a format name. The empty string selects JSON.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return JSON, nil
	case "yaml", "yml":
		return YAML, nil
	case "csv":
		return CSV, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// ContentType returns the HTTP content type for f.
func (f Format) ContentType() string {
	switch f {
	case YAML:
		return "application/yaml"
	case CSV:
		return "text/csv; charset=utf-8"
	default:
		return "application/json"
	}
}

// Extension returns the file extension for f, without the dot.
func (f Format) Extension() string {
	if f == "" {
		return string(JSON)
	}
	return string(f)
}

// Write encodes one report. JSON and YAML produce a single document; CSV
// produces a header and one row.
func Write(w io.Writer, f Format, r cognition.Report) error {
	switch f {
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case YAML:
		return writeYAML(w, r)
	case CSV:
		return WriteAll(w, f, []cognition.Report{r})
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, string(f))
	}
}

// WriteAll encodes a series of reports. JSON and YAML produce a list; CSV
// produces a header followed by one row per report.
func WriteAll(w io.Writer, f Format, reports []cognition.Report) error {
	if reports == nil {
		reports = []cognition.Report{}
	}
	switch f {
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(reports)
	case YAML:
		return writeYAML(w, reports)
	case CSV:
		cw := csv.NewWriter(w)
		if err := cw.Write(Header); err != nil {
			return err
		}
		for _, r := range reports {
			if err := cw.Write(Row(r)); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, string(f))
	}
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// Header lists the CSV columns in Row order.
var Header = []string{
	"timestamp",
	"session_id",
	"started_at",
	"duration",
	"score",
	"abilities_used",
	"kills",
	"achievements",
	"bdnf",
	"synaptic_strength",
	"neurogenesis_rate",
	"projected_bdnf",
	"eeg_connected",
	"focus_level",
	"focus_score",
	"alpha_waves",
	"beta_waves",
	"theta_waves",
	"performance",
	"attention",
	"memory",
	"processing",
}

// Row flattens a report into CSV fields. Achievements are joined with ';'.
func Row(r cognition.Report) []string {
	return []string{
		formatTime(r.Timestamp),
		r.Session.ID,
		formatTime(r.Session.StartedAt),
		formatFloat(r.Session.DurationSeconds),
		strconv.Itoa(r.Session.Score),
		strconv.Itoa(r.Session.AbilitiesUsed),
		strconv.Itoa(r.Session.Kills),
		strings.Join(r.Session.Achievements, ";"),
		formatFloat(r.Neuroplasticity.BDNF),
		formatFloat(r.Neuroplasticity.SynapticStrength),
		formatFloat(r.Neuroplasticity.NeurogenesisRate),
		formatFloat(r.Neuroplasticity.ProjectedBDNF),
		strconv.FormatBool(r.EEG.Connected),
		formatFloat(r.EEG.FocusLevel),
		formatFloat(r.EEG.FocusScore),
		formatFloat(r.EEG.Alpha),
		formatFloat(r.EEG.Beta),
		formatFloat(r.EEG.Theta),
		formatFloat(r.Cognitive.Performance),
		formatFloat(r.Cognitive.Attention),
		formatFloat(r.Cognitive.Memory),
		formatFloat(r.Cognitive.Processing),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
