package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"

	"github.com/aquasense/backend/internal/models"
)

// labCSVColumns is the header the laboratory export always carries, in order.
var labCSVColumns = []string{
	"sample_id", "tank_id", "sampled_at",
	"temperature", "turbidity", "dissolved_oxygen", "bod", "co2", "ph",
	"alkalinity", "hardness", "calcium", "ammonia", "nitrite",
	"phosphorus", "h2s", "plankton",
}

// LabClient fetches laboratory water-analysis exports from the supplier's
// FTP drop. Each export is a CSV file with one row per sample.
type LabClient struct {
	host     string
	user     string
	password string
	dir      string
}

// NewLabClient configures the FTP source. Empty credentials fall back to
// anonymous login, which is what the default supplier drop uses.
func NewLabClient(host, user, password, dir string) *LabClient {
	if user == "" {
		user = "anonymous"
		password = "anonymous"
	}
	if dir == "" {
		dir = "/exports"
	}
	return &LabClient{host: host, user: user, password: password, dir: dir}
}

// FetchResults downloads every CSV in the drop directory and parses the
// samples. A malformed row is skipped and counted, not fatal.
func (c *LabClient) FetchResults() ([]models.LabResult, int, error) {
	conn, err := ftp.Dial(c.host, ftp.DialWithTimeout(30*time.Second))
	if err != nil {
		return nil, 0, fmt.Errorf("ftp dial: %w", err)
	}
	defer conn.Quit()

	if err := conn.Login(c.user, c.password); err != nil {
		return nil, 0, fmt.Errorf("ftp login: %w", err)
	}

	entries, err := conn.List(c.dir)
	if err != nil {
		return nil, 0, fmt.Errorf("ftp list %s: %w", c.dir, err)
	}

	var results []models.LabResult
	var parseErrors int
	for _, entry := range entries {
		if entry.Type != ftp.EntryTypeFile || !strings.HasSuffix(entry.Name, ".csv") {
			continue
		}

		resp, err := conn.Retr(c.dir + "/" + entry.Name)
		if err != nil {
			return nil, parseErrors, fmt.Errorf("ftp retr %s: %w", entry.Name, err)
		}
		parsed, skipped, err := parseLabCSV(resp)
		resp.Close()
		if err != nil {
			return nil, parseErrors, fmt.Errorf("parse %s: %w", entry.Name, err)
		}
		results = append(results, parsed...)
		parseErrors += skipped
	}

	return results, parseErrors, nil
}

// parseLabCSV reads one laboratory export. It returns the parsed samples and
// the number of rows that were skipped as malformed. A bad header is an
// error; bad rows are not.
func parseLabCSV(r io.Reader) ([]models.LabResult, int, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("read header: %w", err)
	}
	if len(header) != len(labCSVColumns) {
		return nil, 0, fmt.Errorf("header has %d columns, want %d", len(header), len(labCSVColumns))
	}
	for i, col := range header {
		if strings.TrimSpace(strings.ToLower(col)) != labCSVColumns[i] {
			return nil, 0, fmt.Errorf("column %d is %q, want %q", i, col, labCSVColumns[i])
		}
	}

	var results []models.LabResult
	var skipped int
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			skipped++
			continue
		}

		lr, err := parseLabRow(row)
		if err != nil {
			skipped++
			continue
		}
		results = append(results, *lr)
	}

	return results, skipped, nil
}

func parseLabRow(row []string) (*models.LabResult, error) {
	if len(row) != len(labCSVColumns) {
		return nil, fmt.Errorf("row has %d fields, want %d", len(row), len(labCSVColumns))
	}

	sampledAt, err := time.Parse(time.RFC3339, row[2])
	if err != nil {
		return nil, fmt.Errorf("sampled_at: %w", err)
	}

	vals := make([]float64, 14)
	for i := range vals {
		v, err := strconv.ParseFloat(strings.TrimSpace(row[3+i]), 64)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", labCSVColumns[3+i], err)
		}
		vals[i] = v
	}

	lr := &models.LabResult{
		SampleID:        strings.TrimSpace(row[0]),
		TankID:          strings.TrimSpace(row[1]),
		SampledAt:       sampledAt.UTC(),
		Temperature:     vals[0],
		Turbidity:       vals[1],
		DissolvedOxygen: vals[2],
		BOD:             vals[3],
		CO2:             vals[4],
		PH:              vals[5],
		Alkalinity:      vals[6],
		Hardness:        vals[7],
		Calcium:         vals[8],
		Ammonia:         vals[9],
		Nitrite:         vals[10],
		Phosphorus:      vals[11],
		H2S:             vals[12],
		Plankton:        vals[13],
	}
	if lr.SampleID == "" || lr.TankID == "" {
		return nil, fmt.Errorf("missing sample or tank id")
	}
	return lr, nil
}
